//go:build windows

package uia

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/go-ole/go-ole"
)

type windowsBackend struct {
	automation *ole.IUnknown
	walker     *ole.IUnknown
}

func newPlatformBackend(_ Config) (Backend, error) {
	// S_FALSE 与 RPC_E_CHANGED_MODE 表示线程已初始化，同样可用
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || (oleErr.Code() != 1 && oleErr.Code() != rpcEChangedMode) {
			return nil, InitializationError(err, "COM 初始化失败")
		}
	}

	automation, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return nil, InitializationError(err, "创建 CUIAutomation 失败")
	}

	walker, err := comElement(automation, vtAutomationGetControlViewWalker)
	if err != nil {
		automation.Release()
		return nil, InitializationError(err, "获取 ControlViewWalker 失败")
	}

	return &windowsBackend{automation: automation, walker: walker}, nil
}

func (b *windowsBackend) Name() string { return "uia" }

func (b *windowsBackend) node(el *ole.IUnknown) *winNode {
	if el == nil {
		return nil
	}
	n := &winNode{b: b, el: el}
	runtime.SetFinalizer(n, (*winNode).Release)
	return n
}

func (b *windowsBackend) Root() (Node, error) {
	el, err := comElement(b.automation, vtAutomationGetRootElement)
	if err != nil {
		return nil, err
	}
	if n := b.node(el); n != nil {
		return n, nil
	}
	return nil, errors.New("GetRootElement 返回空")
}

func (b *windowsBackend) Focused() (Node, error) {
	el, err := comElement(b.automation, vtAutomationGetFocusedElement)
	if err != nil {
		return nil, err
	}
	if n := b.node(el); n != nil {
		return n, nil
	}
	return nil, errors.New("没有焦点元素")
}

// Applications 桌面根下的顶层窗口
func (b *windowsBackend) Applications() ([]Node, error) {
	root, err := b.Root()
	if err != nil {
		return nil, err
	}
	return root.Children()
}

func (b *windowsBackend) NodeAtPoint(x, y int) (Node, error) {
	el, err := comElement(b.automation, vtAutomationElementFromPoint, pointArgs(x, y)...)
	if err != nil {
		return nil, err
	}
	if n := b.node(el); n != nil {
		return n, nil
	}
	return nil, errors.New("ElementFromPoint 返回空")
}

func (b *windowsBackend) Close() error {
	if b.walker != nil {
		b.walker.Release()
		b.walker = nil
	}
	if b.automation != nil {
		b.automation.Release()
		b.automation = nil
	}
	return nil
}

// winNode 持有 IUIAutomationElement 引用
type winNode struct {
	b  *windowsBackend
	el *ole.IUnknown
}

// Release 释放 COM 引用
func (n *winNode) Release() {
	if n.el != nil {
		n.el.Release()
		n.el = nil
	}
	runtime.SetFinalizer(n, nil)
}

func (n *winNode) alive() error {
	if n.el == nil {
		return errors.New("元素已释放")
	}
	return nil
}

func (n *winNode) Role() (string, error) {
	if err := n.alive(); err != nil {
		return "", err
	}
	id, err := comInt32(n.el, vtElementControlType)
	if err != nil {
		return "", err
	}
	return WindowsControlTypeRole(int(id)), nil
}

func (n *winNode) Name() (string, error) {
	if err := n.alive(); err != nil {
		return "", err
	}
	return comBSTR(n.el, vtElementName)
}

func (n *winNode) AutomationID() (string, error) {
	if err := n.alive(); err != nil {
		return "", err
	}
	return comBSTR(n.el, vtElementAutomationID)
}

func (n *winNode) ClassName() (string, error) {
	if err := n.alive(); err != nil {
		return "", err
	}
	return comBSTR(n.el, vtElementClassName)
}

func (n *winNode) Bounds() (Rect, error) {
	if err := n.alive(); err != nil {
		return Rect{}, err
	}
	var r winRect
	if err := comCall(n.el, vtElementBoundingRectangle, uintptr(unsafe.Pointer(&r))); err != nil {
		return Rect{}, err
	}
	return Rect{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}, nil
}

func (n *winNode) IsEnabled() (bool, error) {
	if err := n.alive(); err != nil {
		return false, err
	}
	v, err := comInt32(n.el, vtElementIsEnabled)
	return v != 0, err
}

func (n *winNode) IsFocused() (bool, error) {
	if err := n.alive(); err != nil {
		return false, err
	}
	v, err := comInt32(n.el, vtElementHasKeyboardFocus)
	return v != 0, err
}

// Value 读取 ValuePattern.Value，不支持时读取 LegacyIAccessible.Value
func (n *winNode) Value() (string, error) {
	if err := n.alive(); err != nil {
		return "", err
	}
	for _, prop := range []uintptr{uiaValueValuePropertyID, uiaLegacyValuePropertyID} {
		var v ole.VARIANT
		ole.VariantInit(&v)
		if err := comCall(n.el, vtElementGetCurrentPropertyValue, prop, uintptr(unsafe.Pointer(&v))); err != nil {
			return "", err
		}
		s := ""
		if v.VT == ole.VT_BSTR {
			s = v.ToString()
		}
		ole.VariantClear(&v)
		if s != "" {
			return s, nil
		}
	}
	return "", nil
}

func (n *winNode) ProcessID() (int, error) {
	if err := n.alive(); err != nil {
		return 0, err
	}
	pid, err := comInt32(n.el, vtElementProcessID)
	return int(pid), err
}

func (n *winNode) Parent() (Node, error) {
	if err := n.alive(); err != nil {
		return nil, err
	}
	el, err := comElement(n.b.walker, vtWalkerGetParent, uintptr(unsafe.Pointer(n.el)))
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	return n.b.node(el), nil
}

func (n *winNode) Children() ([]Node, error) {
	if err := n.alive(); err != nil {
		return nil, err
	}
	child, err := comElement(n.b.walker, vtWalkerGetFirstChild, uintptr(unsafe.Pointer(n.el)))
	if err != nil {
		return nil, err
	}

	var children []Node
	for child != nil && len(children) < maxSiblings {
		c := n.b.node(child)
		children = append(children, c)
		child, err = comElement(n.b.walker, vtWalkerGetNextSibling, uintptr(unsafe.Pointer(c.el)))
		if err != nil {
			break
		}
	}
	return children, nil
}

// maxSiblings 单个节点子元素数量上限，防止异常控件无限返回兄弟节点
const maxSiblings = 4096

func (n *winNode) SetFocus() error {
	if err := n.alive(); err != nil {
		return err
	}
	return comCall(n.el, vtElementSetFocus)
}
