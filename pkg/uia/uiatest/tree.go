// Package uiatest 提供内存中的无障碍树与系统操作替身，用于在没有桌面环境时测试自动化逻辑
package uiatest

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zoeyai/uiauto/pkg/uia"
)

// ErrStale 模拟已失效的节点句柄
var ErrStale = errors.New("节点已失效")

// Props 节点属性
type Props struct {
	Role         string
	Name         string
	AutomationID string
	ClassName    string
	Value        string
	Bounds       uia.Rect
	Enabled      bool
	Focused      bool
	PID          int
}

// Node 可变的内存节点，实现 uia.Node
//
// 所有修改都加锁，测试可以在定位器轮询期间从其他 goroutine 修改树。
type Node struct {
	mu       sync.RWMutex
	props    Props
	parent   *Node
	children []*Node
	stale    bool
	childErr error

	childCalls atomic.Int32
}

// NewNode 创建节点并挂载子节点
func NewNode(p Props, children ...*Node) *Node {
	n := &Node{props: p}
	n.Add(children...)
	return n
}

// Desktop 根节点
func Desktop(children ...*Node) *Node {
	return NewNode(Props{Role: uia.RoleDesktop, Enabled: true}, children...)
}

// App 应用节点
func App(name string, pid int, children ...*Node) *Node {
	return NewNode(Props{Role: uia.RoleApplication, Name: name, PID: pid, Enabled: true}, children...)
}

// Window 窗口节点
func Window(name string, bounds uia.Rect, children ...*Node) *Node {
	return NewNode(Props{Role: uia.RoleWindow, Name: name, Bounds: bounds, Enabled: true}, children...)
}

// Button 按钮节点
func Button(name string, bounds uia.Rect) *Node {
	return NewNode(Props{Role: uia.RoleButton, Name: name, Bounds: bounds, Enabled: true})
}

// Add 追加子节点，子树中未设置 PID 的节点继承父节点的 PID
func (n *Node) Add(children ...*Node) *Node {
	n.mu.Lock()
	pid := n.props.PID
	n.children = append(n.children, children...)
	n.mu.Unlock()

	for _, c := range children {
		c.mu.Lock()
		c.parent = n
		c.mu.Unlock()
		c.inheritPID(pid)
	}
	return n
}

func (n *Node) inheritPID(pid int) {
	if pid == 0 {
		return
	}
	n.mu.Lock()
	if n.props.PID == 0 {
		n.props.PID = pid
	}
	own := n.props.PID
	children := append([]*Node(nil), n.children...)
	n.mu.Unlock()

	for _, c := range children {
		c.inheritPID(own)
	}
}

// Remove 移除子节点
func (n *Node) Remove(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// Update 修改节点属性
func (n *Node) Update(fn func(p *Props)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(&n.props)
}

// Props 返回属性副本
func (n *Node) Props() Props {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.props
}

// SetStale 标记节点失效，之后所有访问都返回 ErrStale
func (n *Node) SetStale(stale bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stale = stale
}

// FailChildren 让 Children 返回指定错误
func (n *Node) FailChildren(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.childErr = err
}

func (n *Node) read() (Props, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stale {
		return Props{}, ErrStale
	}
	return n.props, nil
}

func (n *Node) Role() (string, error) {
	p, err := n.read()
	return p.Role, err
}

func (n *Node) Name() (string, error) {
	p, err := n.read()
	return p.Name, err
}

func (n *Node) AutomationID() (string, error) {
	p, err := n.read()
	return p.AutomationID, err
}

func (n *Node) ClassName() (string, error) {
	p, err := n.read()
	return p.ClassName, err
}

func (n *Node) Bounds() (uia.Rect, error) {
	p, err := n.read()
	return p.Bounds, err
}

func (n *Node) IsEnabled() (bool, error) {
	p, err := n.read()
	return p.Enabled, err
}

func (n *Node) IsFocused() (bool, error) {
	p, err := n.read()
	return p.Focused, err
}

func (n *Node) Value() (string, error) {
	p, err := n.read()
	return p.Value, err
}

func (n *Node) ProcessID() (int, error) {
	p, err := n.read()
	return p.PID, err
}

func (n *Node) Parent() (uia.Node, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stale {
		return nil, ErrStale
	}
	if n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

// ChildrenCalls Children 被调用的次数
func (n *Node) ChildrenCalls() int { return int(n.childCalls.Load()) }

func (n *Node) Children() ([]uia.Node, error) {
	n.childCalls.Add(1)
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stale {
		return nil, ErrStale
	}
	if n.childErr != nil {
		return nil, n.childErr
	}
	out := make([]uia.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

// SetFocus 设置焦点，清除同一棵树中其他节点的焦点
func (n *Node) SetFocus() error {
	if _, err := n.read(); err != nil {
		return err
	}
	root := n
	for {
		root.mu.RLock()
		p := root.parent
		root.mu.RUnlock()
		if p == nil {
			break
		}
		root = p
	}
	for node := range uia.Walk(root, 0) {
		if m, ok := node.(*Node); ok {
			m.Update(func(p *Props) { p.Focused = m == n })
		}
	}
	return nil
}
