package uia

// Node 平台无障碍树中的一个节点
//
// 节点句柄随时可能失效（目标应用销毁或重建控件），所以每个访问方法都可能返回错误，
// 调用方不得假定节点存活。
type Node interface {
	Role() (string, error)
	Name() (string, error)
	AutomationID() (string, error)
	ClassName() (string, error)
	Bounds() (Rect, error)
	IsEnabled() (bool, error)
	IsFocused() (bool, error)
	Value() (string, error)
	ProcessID() (int, error)
	// Parent 根节点返回 (nil, nil)
	Parent() (Node, error)
	Children() ([]Node, error)
}

// Focuser 支持设置键盘焦点的节点
type Focuser interface {
	SetFocus() error
}

// Releaser 持有原生资源的节点
type Releaser interface {
	Release()
}

// nullNode 平台调用失败时返回的空根节点
type nullNode struct{}

func (nullNode) Role() (string, error)         { return "desktop", nil }
func (nullNode) Name() (string, error)         { return "", nil }
func (nullNode) AutomationID() (string, error) { return "", nil }
func (nullNode) ClassName() (string, error)    { return "", nil }
func (nullNode) Bounds() (Rect, error)         { return Rect{}, nil }
func (nullNode) IsEnabled() (bool, error)      { return false, nil }
func (nullNode) IsFocused() (bool, error)      { return false, nil }
func (nullNode) Value() (string, error)        { return "", nil }
func (nullNode) ProcessID() (int, error)       { return 0, nil }
func (nullNode) Parent() (Node, error)         { return nil, nil }
func (nullNode) Children() ([]Node, error)     { return nil, nil }
