package uia

import (
	"fmt"
	"strings"
)

// Element UI 元素
//
// 元素只是对实时树中某个节点的视图，不缓存父子关系，每次遍历都重新查询。
type Element struct {
	node   Node
	engine *Engine
}

// Attributes 元素属性快照，读取失败的字段保持零值
type Attributes struct {
	Role         string `json:"role"`
	Name         string `json:"name,omitempty"`
	AutomationID string `json:"automation_id,omitempty"`
	ClassName    string `json:"class_name,omitempty"`
	Bounds       *Rect  `json:"bounds,omitempty"`
	IsEnabled    *bool  `json:"is_enabled,omitempty"`
	IsFocused    *bool  `json:"is_focused,omitempty"`
	Value        string `json:"value,omitempty"`
	ProcessID    int    `json:"process_id,omitempty"`
}

// NewElement 包装节点
func NewElement(node Node, engine *Engine) *Element {
	return &Element{node: node, engine: engine}
}

// Node 返回底层节点
func (e *Element) Node() Node { return e.node }

// Engine 返回元素所属引擎
func (e *Element) Engine() *Engine { return e.engine }

func (e *Element) wrap(n Node) *Element {
	return &Element{node: n, engine: e.engine}
}

// Role 控件类型
func (e *Element) Role() (string, error) { return e.node.Role() }

// Name 名称
func (e *Element) Name() (string, error) { return e.node.Name() }

// AutomationID 自动化 ID
func (e *Element) AutomationID() (string, error) { return e.node.AutomationID() }

// ClassName 类名
func (e *Element) ClassName() (string, error) { return e.node.ClassName() }

// Bounds 屏幕边界
func (e *Element) Bounds() (Rect, error) { return e.node.Bounds() }

// IsEnabled 是否可用
func (e *Element) IsEnabled() (bool, error) { return e.node.IsEnabled() }

// IsFocused 是否拥有键盘焦点
func (e *Element) IsFocused() (bool, error) { return e.node.IsFocused() }

// Value 值
func (e *Element) Value() (string, error) { return e.node.Value() }

// ProcessID 所属进程
func (e *Element) ProcessID() (int, error) { return e.node.ProcessID() }

// ID 元素标识：优先 AutomationID，其次名称
func (e *Element) ID() string {
	if id, err := e.node.AutomationID(); err == nil && id != "" {
		return id
	}
	if name, err := e.node.Name(); err == nil {
		return name
	}
	return ""
}

// Parent 父元素，根元素返回 NotFound
func (e *Element) Parent() (*Element, error) {
	p, err := e.node.Parent()
	if err != nil {
		return nil, InternalError(err, "获取父元素失败")
	}
	if p == nil {
		return nil, NotFoundf("元素没有父元素")
	}
	return e.wrap(p), nil
}

// Children 子元素
func (e *Element) Children() ([]*Element, error) {
	nodes, err := e.node.Children()
	if err != nil {
		return nil, InternalError(err, "获取子元素失败")
	}
	children := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		children = append(children, e.wrap(n))
	}
	return children, nil
}

// Attributes 读取所有属性，尽力而为
func (e *Element) Attributes() Attributes {
	var a Attributes
	a.Role, _ = e.node.Role()
	a.Name, _ = e.node.Name()
	a.AutomationID, _ = e.node.AutomationID()
	a.ClassName, _ = e.node.ClassName()
	a.Value, _ = e.node.Value()
	a.ProcessID, _ = e.node.ProcessID()
	if r, err := e.node.Bounds(); err == nil {
		a.Bounds = &r
	}
	if v, err := e.node.IsEnabled(); err == nil {
		a.IsEnabled = &v
	}
	if v, err := e.node.IsFocused(); err == nil {
		a.IsFocused = &v
	}
	return a
}

// pathToken 单个层级标识：Type[id-or-name]
func pathToken(n Node) string {
	role, _ := n.Role()
	if id, err := n.AutomationID(); err == nil && id != "" {
		return fmt.Sprintf("%s[%s]", role, id)
	}
	if name, err := n.Name(); err == nil && name != "" {
		return fmt.Sprintf("%s[%s]", role, name)
	}
	return role
}

// HierarchyPath 从根到当前元素的路径，如 window[Notepad]/pane/button[OK]
// 逐级查询父节点，最多 maxDepth 层
func (e *Element) HierarchyPath(maxDepth int) string {
	if maxDepth <= 0 {
		maxDepth = MaxWalkDepth
	}
	var tokens []string
	current := e.node
	for i := 0; current != nil && i < maxDepth; i++ {
		tokens = append(tokens, pathToken(current))
		parent, err := current.Parent()
		if err != nil {
			break
		}
		current = parent
	}
	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
	return strings.Join(tokens, "/")
}

// Locator 以当前元素为范围创建定位器
func (e *Element) Locator(selector string, opts ...Option) *Locator {
	return NewLocator(e.engine, selector, opts...).Within(e)
}

// Focus 设置键盘焦点
func (e *Element) Focus() error {
	f, ok := e.node.(Focuser)
	if !ok {
		return e.Click()
	}
	if err := f.SetFocus(); err != nil {
		return InternalError(err, "设置焦点失败")
	}
	return nil
}

func (e *Element) center() (int, int, error) {
	r, err := e.node.Bounds()
	if err != nil {
		return 0, 0, InternalError(err, "获取元素边界失败")
	}
	if r.Empty() {
		return 0, 0, NotFoundf("元素不可见: %s", pathToken(e.node))
	}
	x, y := r.Center()
	return x, y, nil
}

// Click 点击元素中心
func (e *Element) Click() error {
	x, y, err := e.center()
	if err != nil {
		return err
	}
	return e.engine.actions.Click(x, y, "left", false)
}

// DoubleClick 双击元素中心
func (e *Element) DoubleClick() error {
	x, y, err := e.center()
	if err != nil {
		return err
	}
	return e.engine.actions.Click(x, y, "left", true)
}

// RightClick 右键点击元素中心
func (e *Element) RightClick() error {
	x, y, err := e.center()
	if err != nil {
		return err
	}
	return e.engine.actions.Click(x, y, "right", false)
}

// Hover 鼠标移动到元素中心
func (e *Element) Hover() error {
	x, y, err := e.center()
	if err != nil {
		return err
	}
	return e.engine.actions.MoveMouse(x, y)
}

// TypeText 聚焦后输入文本
func (e *Element) TypeText(text string) error {
	if err := e.Focus(); err != nil {
		return err
	}
	return e.engine.actions.TypeText(text)
}

// Release 释放原生资源
func (e *Element) Release() {
	if r, ok := e.node.(Releaser); ok {
		r.Release()
	}
}

func (e *Element) String() string {
	return pathToken(e.node)
}
