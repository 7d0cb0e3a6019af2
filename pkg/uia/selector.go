package uia

import (
	"strings"
	"unicode"
)

// Attribute 可用于选择器的属性
type Attribute string

const (
	AttrRole         Attribute = "role"
	AttrName         Attribute = "name"
	AttrAutomationID Attribute = "automation_id"
	AttrClassName    Attribute = "class_name"
	AttrValue        Attribute = "value"
)

var knownAttributes = map[Attribute]bool{
	AttrRole:         true,
	AttrName:         true,
	AttrAutomationID: true,
	AttrClassName:    true,
	AttrValue:        true,
}

// Condition 单个属性等值比较
type Condition struct {
	Attr  Attribute
	Value string
}

// Matches 读取属性并做区分大小写的精确比较，读取失败视为不匹配
func (c Condition) Matches(n Node) bool {
	var (
		got string
		err error
	)
	switch c.Attr {
	case AttrRole:
		got, err = n.Role()
	case AttrName:
		got, err = n.Name()
	case AttrAutomationID:
		got, err = n.AutomationID()
	case AttrClassName:
		got, err = n.ClassName()
	case AttrValue:
		got, err = n.Value()
	default:
		return false
	}
	return err == nil && got == c.Value
}

func (c Condition) String() string {
	return string(c.Attr) + "=" + quoteValue(c.Value)
}

// Selector 由 AND 组合的属性条件，构造后不可变
type Selector struct {
	conds []Condition
}

// NewSelector 由条件直接构造选择器
func NewSelector(conds ...Condition) Selector {
	return Selector{conds: append([]Condition(nil), conds...)}
}

// ByRole 按控件类型
func ByRole(role string) Selector {
	return NewSelector(Condition{Attr: AttrRole, Value: role})
}

// ByName 按名称
func ByName(name string) Selector {
	return NewSelector(Condition{Attr: AttrName, Value: name})
}

// ByAutomationID 按自动化 ID
func ByAutomationID(id string) Selector {
	return NewSelector(Condition{Attr: AttrAutomationID, Value: id})
}

// And 追加条件，返回新的选择器
func (s Selector) And(other Selector) Selector {
	conds := make([]Condition, 0, len(s.conds)+len(other.conds))
	conds = append(conds, s.conds...)
	conds = append(conds, other.conds...)
	return Selector{conds: conds}
}

// Conditions 返回条件副本
func (s Selector) Conditions() []Condition {
	return append([]Condition(nil), s.conds...)
}

// Matches 所有条件都满足时匹配；空选择器不匹配任何元素
func (s Selector) Matches(n Node) bool {
	if len(s.conds) == 0 {
		return false
	}
	for _, c := range s.conds {
		if !c.Matches(n) {
			return false
		}
	}
	return true
}

// String 规范化文本形式，可被 ParseSelector 重新解析
func (s Selector) String() string {
	parts := make([]string, len(s.conds))
	for i, c := range s.conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

func quoteValue(v string) string {
	bare := v != ""
	for _, r := range v {
		if unicode.IsSpace(r) || r == '"' || r == '\\' || r == '=' {
			bare = false
			break
		}
	}
	if bare && !strings.EqualFold(v, "and") && !strings.Contains(v, ">>") {
		return v
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// ParseSelector 解析选择器文本：<attr>=<value> [AND <attr>=<value>]*
// 值为裸词或双引号字符串，引号内支持 \" 与 \\ 转义
func ParseSelector(text string) (Selector, error) {
	p := &selectorParser{src: []rune(text), text: text}
	return p.parse()
}

// MustParseSelector 解析失败时 panic，用于常量选择器
func MustParseSelector(text string) Selector {
	s, err := ParseSelector(text)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseChain 解析以 >> 分隔的选择器链
func ParseChain(text string) ([]Selector, error) {
	parts, err := splitChain(text)
	if err != nil {
		return nil, err
	}
	chain := make([]Selector, 0, len(parts))
	for _, part := range parts {
		s, err := ParseSelector(part)
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}
	return chain, nil
}

// splitChain 在引号之外按 >> 切分
func splitChain(text string) ([]string, error) {
	var (
		parts   []string
		start   int
		inQuote bool
	)
	src := []rune(text)
	for i := 0; i < len(src); i++ {
		switch {
		case inQuote && src[i] == '\\':
			i++
		case src[i] == '"':
			inQuote = !inQuote
		case !inQuote && src[i] == '>' && i+1 < len(src) && src[i+1] == '>':
			parts = append(parts, string(src[start:i]))
			start = i + 2
			i++
		}
	}
	if inQuote {
		return nil, InvalidSelectorf(text, "引号未闭合")
	}
	parts = append(parts, string(src[start:]))
	return parts, nil
}

type selectorParser struct {
	src  []rune
	pos  int
	text string
}

func (p *selectorParser) fail(format string, args ...any) error {
	return InvalidSelectorf(p.text, format, args...)
}

func (p *selectorParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *selectorParser) eof() bool { return p.pos >= len(p.src) }

func (p *selectorParser) parse() (Selector, error) {
	var conds []Condition
	p.skipSpace()
	if p.eof() {
		return Selector{}, p.fail("选择器为空")
	}
	for {
		c, err := p.condition()
		if err != nil {
			return Selector{}, err
		}
		conds = append(conds, c)

		p.skipSpace()
		if p.eof() {
			return Selector{conds: conds}, nil
		}
		if !p.keywordAnd() {
			return Selector{}, p.fail("位置 %d 处应为 AND", p.pos)
		}
		p.skipSpace()
		if p.eof() {
			return Selector{}, p.fail("AND 之后缺少条件")
		}
	}
}

// keywordAnd 匹配不区分大小写的 AND 关键字，其后必须是空白
func (p *selectorParser) keywordAnd() bool {
	if p.pos+3 > len(p.src) {
		return false
	}
	if !strings.EqualFold(string(p.src[p.pos:p.pos+3]), "and") {
		return false
	}
	if p.pos+3 < len(p.src) && !unicode.IsSpace(p.src[p.pos+3]) {
		return false
	}
	p.pos += 3
	return true
}

func (p *selectorParser) condition() (Condition, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentRune(p.src[p.pos]) {
		p.pos++
	}
	name := string(p.src[start:p.pos])
	if name == "" {
		return Condition{}, p.fail("位置 %d 处缺少属性名", start)
	}
	attr := Attribute(strings.ToLower(name))
	if !knownAttributes[attr] {
		return Condition{}, p.fail("未知属性 %q", name)
	}

	p.skipSpace()
	if p.eof() || p.src[p.pos] != '=' {
		return Condition{}, p.fail("属性 %s 后缺少 '='", name)
	}
	p.pos++
	p.skipSpace()

	value, err := p.value()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Attr: attr, Value: value}, nil
}

func (p *selectorParser) value() (string, error) {
	if p.eof() {
		return "", p.fail("缺少属性值")
	}
	if p.src[p.pos] != '"' {
		start := p.pos
		for p.pos < len(p.src) && !unicode.IsSpace(p.src[p.pos]) {
			if p.src[p.pos] == '"' {
				return "", p.fail("位置 %d 处引号不完整", p.pos)
			}
			p.pos++
		}
		return string(p.src[start:p.pos]), nil
	}

	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		switch {
		case r == '\\' && p.pos+1 < len(p.src):
			b.WriteRune(p.src[p.pos+1])
			p.pos += 2
		case r == '"':
			p.pos++
			if !p.eof() && !unicode.IsSpace(p.src[p.pos]) {
				return "", p.fail("位置 %d 处引号后缺少空白", p.pos)
			}
			return b.String(), nil
		default:
			b.WriteRune(r)
			p.pos++
		}
	}
	return "", p.fail("引号未闭合")
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
