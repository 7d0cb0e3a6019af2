//go:build linux

package uia

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
)

const (
	atspiRegistry   = "org.a11y.atspi.Registry"
	atspiRootPath   = dbus.ObjectPath("/org/a11y/atspi/accessible/root")
	atspiNullPath   = dbus.ObjectPath("/org/a11y/atspi/null")
	ifaceAccessible = "org.a11y.atspi.Accessible"
	ifaceComponent  = "org.a11y.atspi.Component"
	ifaceText       = "org.a11y.atspi.Text"
	ifaceValue      = "org.a11y.atspi.Value"

	// AT-SPI 状态位
	atspiStateActive  = 1
	atspiStateEnabled = 8
	atspiStateFocused = 12
	atspiStateShowing = 25

	// ATSPI_COORD_TYPE_SCREEN
	atspiCoordScreen = uint32(0)

	// 查找焦点时的遍历深度
	atspiFocusDepth = 64
)

// atspiRef AT-SPI 对象引用 (so)
type atspiRef struct {
	Dest string
	Path dbus.ObjectPath
}

type atspiBackend struct {
	conn *dbus.Conn
}

func newPlatformBackend(_ Config) (Backend, error) {
	session, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, InitializationError(err, "连接 D-Bus 会话总线失败")
	}
	defer session.Close()

	var addr string
	err = session.Object("org.a11y.Bus", "/org/a11y/bus").Call("org.a11y.Bus.GetAddress", 0).Store(&addr)
	if err != nil {
		return nil, InitializationError(err, "获取无障碍总线地址失败")
	}

	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, InitializationError(err, "连接无障碍总线失败")
	}
	return &atspiBackend{conn: conn}, nil
}

func (b *atspiBackend) Name() string { return "atspi" }

func (b *atspiBackend) node(ref atspiRef) *atspiNode {
	return &atspiNode{b: b, ref: ref}
}

func (b *atspiBackend) Root() (Node, error) {
	return b.node(atspiRef{Dest: atspiRegistry, Path: atspiRootPath}), nil
}

func (b *atspiBackend) applications() ([]*atspiNode, error) {
	root := b.node(atspiRef{Dest: atspiRegistry, Path: atspiRootPath})
	refs, err := root.childRefs()
	if err != nil {
		return nil, err
	}
	apps := make([]*atspiNode, 0, len(refs))
	for _, ref := range refs {
		apps = append(apps, b.node(ref))
	}
	return apps, nil
}

func (b *atspiBackend) Applications() ([]Node, error) {
	apps, err := b.applications()
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, len(apps))
	for i, a := range apps {
		nodes[i] = a
	}
	return nodes, nil
}

// activeWindow 查找处于 ACTIVE 状态的顶层窗口
func (b *atspiBackend) activeWindow() (*atspiNode, *atspiNode, error) {
	apps, err := b.applications()
	if err != nil {
		return nil, nil, err
	}
	for _, app := range apps {
		refs, err := app.childRefs()
		if err != nil {
			continue
		}
		for _, ref := range refs {
			w := b.node(ref)
			if w.hasState(atspiStateActive) {
				return app, w, nil
			}
		}
	}
	return nil, nil, errors.New("没有活动窗口")
}

func (b *atspiBackend) Focused() (Node, error) {
	_, win, err := b.activeWindow()
	if err != nil {
		return nil, err
	}
	for n := range Walk(win, atspiFocusDepth) {
		if an, ok := n.(*atspiNode); ok && an.hasState(atspiStateFocused) {
			return an, nil
		}
	}
	return nil, errors.New("活动窗口中没有焦点元素")
}

// NodeAtPoint 先定位包含该点的可见顶层窗口，再逐级调用 GetAccessibleAtPoint
func (b *atspiBackend) NodeAtPoint(x, y int) (Node, error) {
	apps, err := b.applications()
	if err != nil {
		return nil, err
	}

	var candidates []*atspiNode
	for _, app := range apps {
		refs, err := app.childRefs()
		if err != nil {
			continue
		}
		for _, ref := range refs {
			w := b.node(ref)
			r, err := w.Bounds()
			if err != nil || !r.Contains(x, y) || !w.hasState(atspiStateShowing) {
				continue
			}
			if w.hasState(atspiStateActive) {
				candidates = append([]*atspiNode{w}, candidates...)
			} else {
				candidates = append(candidates, w)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("坐标 (%d,%d) 处没有窗口", x, y)
	}

	current := candidates[0]
	for depth := 0; depth < MaxWalkDepth; depth++ {
		var ref atspiRef
		err := current.obj().Call(ifaceComponent+".GetAccessibleAtPoint", 0, int32(x), int32(y), atspiCoordScreen).Store(&ref)
		if err != nil || ref.Path == atspiNullPath || ref.Path == "" || ref == current.ref {
			break
		}
		current = b.node(ref)
	}
	return current, nil
}

func (b *atspiBackend) windowInfo(app, win *atspiNode) WindowInfo {
	info := WindowInfo{}
	info.AppName, _ = app.Name()
	info.Title, _ = win.Name()
	info.PID, _ = app.ProcessID()
	info.Bounds, _ = win.Bounds()
	return info
}

func (b *atspiBackend) WindowOwner(pid int) (WindowInfo, error) {
	apps, err := b.applications()
	if err != nil {
		return WindowInfo{}, err
	}
	for _, app := range apps {
		appPid, err := app.ProcessID()
		if err != nil || appPid != pid {
			continue
		}
		refs, err := app.childRefs()
		if err != nil || len(refs) == 0 {
			name, _ := app.Name()
			return WindowInfo{PID: pid, AppName: name}, nil
		}
		win := b.node(refs[0])
		for _, ref := range refs {
			if w := b.node(ref); w.hasState(atspiStateActive) {
				win = w
				break
			}
		}
		return b.windowInfo(app, win), nil
	}
	return WindowInfo{}, fmt.Errorf("PID=%d 没有无障碍应用", pid)
}

func (b *atspiBackend) ForegroundWindow() (WindowInfo, error) {
	app, win, err := b.activeWindow()
	if err != nil {
		return WindowInfo{}, err
	}
	return b.windowInfo(app, win), nil
}

func (b *atspiBackend) Close() error {
	return b.conn.Close()
}

// atspiNode AT-SPI 可访问对象
type atspiNode struct {
	b   *atspiBackend
	ref atspiRef
}

func (n *atspiNode) obj() dbus.BusObject {
	return n.b.conn.Object(n.ref.Dest, n.ref.Path)
}

func (n *atspiNode) stringProp(iface, name string) (string, error) {
	v, err := n.obj().GetProperty(iface + "." + name)
	if err != nil {
		return "", err
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("属性 %s 类型为 %s", name, v.Signature())
	}
	return s, nil
}

func (n *atspiNode) attributes() (map[string]string, error) {
	var attrs map[string]string
	err := n.obj().Call(ifaceAccessible+".GetAttributes", 0).Store(&attrs)
	return attrs, err
}

func (n *atspiNode) states() ([]uint32, error) {
	var bits []uint32
	err := n.obj().Call(ifaceAccessible+".GetState", 0).Store(&bits)
	return bits, err
}

func (n *atspiNode) hasState(state uint) bool {
	bits, err := n.states()
	if err != nil {
		return false
	}
	word, bit := state/32, state%32
	return int(word) < len(bits) && bits[word]&(1<<bit) != 0
}

func (n *atspiNode) childRefs() ([]atspiRef, error) {
	var refs []atspiRef
	err := n.obj().Call(ifaceAccessible+".GetChildren", 0).Store(&refs)
	return refs, err
}

func (n *atspiNode) Role() (string, error) {
	var name string
	if err := n.obj().Call(ifaceAccessible+".GetRoleName", 0).Store(&name); err != nil {
		return "", err
	}
	return AtspiRole(name), nil
}

func (n *atspiNode) Name() (string, error) {
	return n.stringProp(ifaceAccessible, "Name")
}

func (n *atspiNode) AutomationID() (string, error) {
	if id, err := n.stringProp(ifaceAccessible, "AccessibleId"); err == nil && id != "" {
		return id, nil
	}
	attrs, err := n.attributes()
	if err != nil {
		return "", err
	}
	return attrs["id"], nil
}

func (n *atspiNode) ClassName() (string, error) {
	attrs, err := n.attributes()
	if err != nil {
		return "", err
	}
	if c := attrs["class"]; c != "" {
		return c, nil
	}
	return attrs["tag"], nil
}

func (n *atspiNode) Bounds() (Rect, error) {
	var ext struct{ X, Y, W, H int32 }
	if err := n.obj().Call(ifaceComponent+".GetExtents", 0, atspiCoordScreen).Store(&ext); err != nil {
		return Rect{}, err
	}
	return Rect{X: int(ext.X), Y: int(ext.Y), Width: int(ext.W), Height: int(ext.H)}, nil
}

func (n *atspiNode) IsEnabled() (bool, error) {
	bits, err := n.states()
	if err != nil {
		return false, err
	}
	return len(bits) > 0 && bits[0]&(1<<atspiStateEnabled) != 0, nil
}

func (n *atspiNode) IsFocused() (bool, error) {
	bits, err := n.states()
	if err != nil {
		return false, err
	}
	return len(bits) > 0 && bits[0]&(1<<atspiStateFocused) != 0, nil
}

// Value 优先读取 Text 接口全文，其次 Value 接口数值
func (n *atspiNode) Value() (string, error) {
	var text string
	if err := n.obj().Call(ifaceText+".GetText", 0, int32(0), int32(-1)).Store(&text); err == nil {
		return text, nil
	}
	v, err := n.obj().GetProperty(ifaceValue + ".CurrentValue")
	if err != nil {
		return "", err
	}
	if f, ok := v.Value().(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("不支持的值类型 %s", v.Signature())
}

func (n *atspiNode) ProcessID() (int, error) {
	var pid uint32
	err := n.b.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, n.ref.Dest).Store(&pid)
	if err != nil {
		return 0, err
	}
	return int(pid), nil
}

func (n *atspiNode) Parent() (Node, error) {
	if n.ref.Path == atspiRootPath && n.ref.Dest == atspiRegistry {
		return nil, nil
	}
	v, err := n.obj().GetProperty(ifaceAccessible + ".Parent")
	if err != nil {
		return nil, err
	}
	var ref atspiRef
	if err := v.Store(&ref); err != nil {
		return nil, err
	}
	if ref.Path == atspiNullPath || ref.Path == "" {
		return nil, nil
	}
	return n.b.node(ref), nil
}

func (n *atspiNode) Children() ([]Node, error) {
	refs, err := n.childRefs()
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(refs))
	for _, ref := range refs {
		if ref.Path == atspiNullPath {
			continue
		}
		nodes = append(nodes, n.b.node(ref))
	}
	return nodes, nil
}

// SetFocus 通过 Component.GrabFocus 设置焦点
func (n *atspiNode) SetFocus() error {
	var ok bool
	if err := n.obj().Call(ifaceComponent+".GrabFocus", 0).Store(&ok); err != nil {
		return err
	}
	if !ok {
		return errors.New("GrabFocus 返回 false")
	}
	return nil
}
