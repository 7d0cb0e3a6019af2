package uia

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zoeyai/uiauto/internal/logger"
)

// Locator 绑定引擎与选择器（链），负责等待、轮询与获取
//
// 创建 Locator 不会访问元素树，只有 First/All 才会遍历。
type Locator struct {
	engine *Engine
	chain  []Selector
	err    error
	scope  *Element
	opts   *Options
}

// NewLocator 解析选择器文本（可用 >> 串联）创建定位器
// 解析错误保存在定位器中，由 First/All 返回
func NewLocator(engine *Engine, selector string, opts ...Option) *Locator {
	chain, err := ParseChain(selector)
	return &Locator{
		engine: engine,
		chain:  chain,
		err:    err,
		opts:   ApplyOptions(engine.locatorDefaults(), opts...),
	}
}

// NewSelectorLocator 使用已构造的选择器创建定位器
func NewSelectorLocator(engine *Engine, selector Selector, opts ...Option) *Locator {
	return &Locator{
		engine: engine,
		chain:  []Selector{selector},
		opts:   ApplyOptions(engine.locatorDefaults(), opts...),
	}
}

func (l *Locator) clone() *Locator {
	c := *l
	c.chain = append([]Selector(nil), l.chain...)
	o := *l.opts
	c.opts = &o
	return &c
}

// Within 返回限定在 scope 子树内的定位器，scope 本身不参与匹配
func (l *Locator) Within(scope *Element) *Locator {
	c := l.clone()
	c.scope = scope
	return c
}

// Locator 在当前匹配结果内继续查找，形成选择器链
func (l *Locator) Locator(selector string) *Locator {
	c := l.clone()
	chain, err := ParseChain(selector)
	if err != nil && c.err == nil {
		c.err = err
	}
	c.chain = append(c.chain, chain...)
	return c
}

// WithOptions 返回应用了新选项的定位器
func (l *Locator) WithOptions(opts ...Option) *Locator {
	c := l.clone()
	c.opts = ApplyOptions(c.opts, opts...)
	return c
}

// Selector 选择器链的文本描述
func (l *Locator) Selector() string {
	parts := lo.Map(l.chain, func(s Selector, _ int) string { return s.String() })
	return strings.Join(parts, " >> ")
}

// Err 选择器解析错误
func (l *Locator) Err() error {
	return l.err
}

// First 返回先序遍历中的第一个匹配元素
// 未匹配时按轮询间隔重试整次遍历，直到超时返回 Timeout
func (l *Locator) First(opts ...Option) (*Element, error) {
	if l.err != nil {
		return nil, l.err
	}
	o := ApplyOptions(l.opts, opts...)
	deadline := time.Now().Add(o.Timeout)

	for attempt := 1; ; attempt++ {
		if found := l.resolve(true); len(found) > 0 {
			return l.engine.wrap(found[0]), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.Debug("定位超时: %s (尝试 %d 次)", l.Selector(), attempt)
			return nil, Timeoutf(l.Selector(), "等待元素超时 (%v)", o.Timeout)
		}
		time.Sleep(min(o.PollInterval, remaining))
	}
}

// All 返回所有匹配元素（先序）
// 默认只遍历一次；显式指定超时时，结果为空会重试直到超时，超时后返回空切片
func (l *Locator) All(opts ...Option) ([]*Element, error) {
	if l.err != nil {
		return nil, l.err
	}
	o := ApplyOptions(l.opts, opts...)
	deadline := time.Now().Add(o.Timeout)

	for {
		found := l.resolve(false)
		if len(found) > 0 || !o.explicitTimeout {
			return lo.Map(found, func(n Node, _ int) *Element { return l.engine.wrap(n) }), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return []*Element{}, nil
		}
		time.Sleep(min(o.PollInterval, remaining))
	}
}

// resolve 执行一次完整遍历
// 链中非末级只保留最外层匹配作为下一级的父节点，父节点子树互不相交，
// 末级结果保持先序且不重复；任一级为空即无匹配
func (l *Locator) resolve(firstOnly bool) []Node {
	if len(l.chain) == 0 {
		return nil
	}
	var scope Node
	if l.scope != nil {
		scope = l.scope.node
	} else {
		scope = l.engine.rootNode()
	}

	parents := []Node{scope}
	for _, sel := range l.chain[:len(l.chain)-1] {
		var matched []Node
		for _, parent := range parents {
			matched = append(matched, Outermost(parent, 0, sel.Matches)...)
		}
		if len(matched) == 0 {
			return nil
		}
		parents = matched
	}

	last := l.chain[len(l.chain)-1]
	var matched []Node
	for _, parent := range parents {
		for n := range Descendants(parent, 0) {
			if !last.Matches(n) {
				continue
			}
			matched = append(matched, n)
			if firstOnly {
				return matched
			}
		}
	}
	return matched
}
