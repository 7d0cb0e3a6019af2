package recorder

import "slices"

// Modifiers 修饰键状态
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// Or 合并两组修饰键状态
func (m Modifiers) Or(o Modifiers) Modifiers {
	return Modifiers{
		Ctrl:  m.Ctrl || o.Ctrl,
		Alt:   m.Alt || o.Alt,
		Shift: m.Shift || o.Shift,
		Meta:  m.Meta || o.Meta,
	}
}

// modifierKeys 各平台修饰键的键码
//
// 修饰键自身按下时，系统标志位往往要到下一个事件才更新，
// 因此键码本身就是修饰键时也视为该修饰键处于按下状态。
type modifierKeys struct {
	ctrl, alt, shift, meta []uint32
}

func (t modifierKeys) identity(code uint32) Modifiers {
	return Modifiers{
		Ctrl:  slices.Contains(t.ctrl, code),
		Alt:   slices.Contains(t.alt, code),
		Shift: slices.Contains(t.shift, code),
		Meta:  slices.Contains(t.meta, code),
	}
}

// keyModifiers 标志位与键码两种来源取并集
func (t modifierKeys) keyModifiers(code uint32, flags Modifiers) Modifiers {
	return flags.Or(t.identity(code))
}

// Windows 虚拟键码
var windowsModifierKeys = modifierKeys{
	ctrl:  []uint32{0x11, 0xA2, 0xA3}, // VK_CONTROL VK_LCONTROL VK_RCONTROL
	alt:   []uint32{0x12, 0xA4, 0xA5}, // VK_MENU VK_LMENU VK_RMENU
	shift: []uint32{0x10, 0xA0, 0xA1}, // VK_SHIFT VK_LSHIFT VK_RSHIFT
	meta:  []uint32{0x5B, 0x5C},       // VK_LWIN VK_RWIN
}

// macOS 虚拟键码 (kVK_*)
var macModifierKeys = modifierKeys{
	ctrl:  []uint32{59, 62},
	alt:   []uint32{58, 61},
	shift: []uint32{56, 60},
	meta:  []uint32{55, 54},
}

// libuiohook 虚拟键码 (VC_*)
var uiohookModifierKeys = modifierKeys{
	ctrl:  []uint32{0x001D, 0x0E1D},
	alt:   []uint32{0x0038, 0x0E38},
	shift: []uint32{0x002A, 0x0036},
	meta:  []uint32{0x0E5B, 0x0E5C},
}

// Windows 鼠标消息
const (
	wmKeyDown       = 0x0100
	wmKeyUp         = 0x0101
	wmSysKeyDown    = 0x0104
	wmSysKeyUp      = 0x0105
	wmMouseMove     = 0x0200
	wmLButtonDown   = 0x0201
	wmLButtonUp     = 0x0202
	wmRButtonDown   = 0x0204
	wmRButtonUp     = 0x0205
	wmMButtonDown   = 0x0207
	wmMButtonUp     = 0x0208
	wmMouseWheel    = 0x020A
	wmXButtonDown   = 0x020B
	wmXButtonUp     = 0x020C
	wmMouseHWheel   = 0x020E
	windowsXButton1 = 1
)

// decodeWindowsKey 键盘消息转按下/抬起，其他消息返回 false
func decodeWindowsKey(msg uintptr) (down bool, ok bool) {
	switch msg {
	case wmKeyDown, wmSysKeyDown:
		return true, true
	case wmKeyUp, wmSysKeyUp:
		return false, true
	}
	return false, false
}

// decodeWindowsMouse 鼠标消息转事件类型与按键，xButton 为 mouseData 高位字
func decodeWindowsMouse(msg uintptr, xButton uint16) (MouseKind, MouseButton, bool) {
	switch msg {
	case wmLButtonDown:
		return MouseDown, ButtonLeft, true
	case wmLButtonUp:
		return MouseUp, ButtonLeft, true
	case wmRButtonDown:
		return MouseDown, ButtonRight, true
	case wmRButtonUp:
		return MouseUp, ButtonRight, true
	case wmMButtonDown:
		return MouseDown, ButtonMiddle, true
	case wmMButtonUp:
		return MouseUp, ButtonMiddle, true
	case wmXButtonDown, wmXButtonUp:
		kind := MouseDown
		if msg == wmXButtonUp {
			kind = MouseUp
		}
		if xButton == windowsXButton1 {
			return kind, ButtonX1, true
		}
		return kind, ButtonX2, true
	case wmMouseMove:
		return MouseMove, ButtonLeft, true
	case wmMouseWheel, wmMouseHWheel:
		return MouseWheel, ButtonMiddle, true
	}
	return 0, 0, false
}

// CGEventType
const (
	cgLeftMouseDown     = 1
	cgLeftMouseUp       = 2
	cgRightMouseDown    = 3
	cgRightMouseUp      = 4
	cgMouseMoved        = 5
	cgLeftMouseDragged  = 6
	cgRightMouseDragged = 7
	cgKeyDown           = 10
	cgKeyUp             = 11
	cgFlagsChanged      = 12
	cgScrollWheel       = 22
	cgOtherMouseDown    = 25
	cgOtherMouseUp      = 26
	cgOtherMouseDragged = 27
)

// CGEventFlags
const (
	cgFlagShift     = 1 << 17
	cgFlagControl   = 1 << 18
	cgFlagAlternate = 1 << 19
	cgFlagCommand   = 1 << 20
)

func macFlagModifiers(flags uint64) Modifiers {
	return Modifiers{
		Ctrl:  flags&cgFlagControl != 0,
		Alt:   flags&cgFlagAlternate != 0,
		Shift: flags&cgFlagShift != 0,
		Meta:  flags&cgFlagCommand != 0,
	}
}

// decodeMacKey FlagsChanged 事件通过键码对应的标志位判断按下还是抬起
func decodeMacKey(eventType int, code uint32, flags uint64) (down bool, ok bool) {
	switch eventType {
	case cgKeyDown:
		return true, true
	case cgKeyUp:
		return false, true
	case cgFlagsChanged:
		id := macModifierKeys.identity(code)
		m := macFlagModifiers(flags)
		return (id.Ctrl && m.Ctrl) || (id.Alt && m.Alt) || (id.Shift && m.Shift) || (id.Meta && m.Meta), true
	}
	return false, false
}

// decodeMacMouse otherButton 为 kCGMouseEventButtonNumber
func decodeMacMouse(eventType int, otherButton int64) (MouseKind, MouseButton, bool) {
	other := ButtonMiddle
	switch otherButton {
	case 3:
		other = ButtonX1
	case 4:
		other = ButtonX2
	}
	switch eventType {
	case cgLeftMouseDown:
		return MouseDown, ButtonLeft, true
	case cgLeftMouseUp:
		return MouseUp, ButtonLeft, true
	case cgRightMouseDown:
		return MouseDown, ButtonRight, true
	case cgRightMouseUp:
		return MouseUp, ButtonRight, true
	case cgOtherMouseDown:
		return MouseDown, other, true
	case cgOtherMouseUp:
		return MouseUp, other, true
	case cgMouseMoved, cgLeftMouseDragged, cgRightMouseDragged, cgOtherMouseDragged:
		return MouseMove, ButtonLeft, true
	case cgScrollWheel:
		return MouseWheel, ButtonMiddle, true
	}
	return 0, 0, false
}

// libuiohook 修饰键掩码
const (
	uiohookMaskShiftL = 1 << 0
	uiohookMaskCtrlL  = 1 << 1
	uiohookMaskMetaL  = 1 << 2
	uiohookMaskAltL   = 1 << 3
	uiohookMaskShiftR = 1 << 4
	uiohookMaskCtrlR  = 1 << 5
	uiohookMaskMetaR  = 1 << 6
	uiohookMaskAltR   = 1 << 7
)

func uiohookMaskModifiers(mask uint16) Modifiers {
	return Modifiers{
		Ctrl:  mask&(uiohookMaskCtrlL|uiohookMaskCtrlR) != 0,
		Alt:   mask&(uiohookMaskAltL|uiohookMaskAltR) != 0,
		Shift: mask&(uiohookMaskShiftL|uiohookMaskShiftR) != 0,
		Meta:  mask&(uiohookMaskMetaL|uiohookMaskMetaR) != 0,
	}
}

// uiohookButton libuiohook 按键编号：1 左 2 右 3 中 4/5 侧键
func uiohookButton(b uint16) MouseButton {
	switch b {
	case 1:
		return ButtonLeft
	case 2:
		return ButtonRight
	case 3:
		return ButtonMiddle
	case 4:
		return ButtonX1
	case 5:
		return ButtonX2
	}
	return ButtonLeft
}
