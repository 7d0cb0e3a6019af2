package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeWindowsKey(t *testing.T) {
	down, ok := decodeWindowsKey(wmKeyDown)
	assert.True(t, ok)
	assert.True(t, down)

	down, ok = decodeWindowsKey(wmSysKeyUp)
	assert.True(t, ok)
	assert.False(t, down)

	_, ok = decodeWindowsKey(wmMouseMove)
	assert.False(t, ok, "非键盘消息")
}

func TestDecodeWindowsMouse(t *testing.T) {
	tests := []struct {
		name    string
		msg     uintptr
		xButton uint16
		kind    MouseKind
		button  MouseButton
	}{
		{"左键按下", wmLButtonDown, 0, MouseDown, ButtonLeft},
		{"右键抬起", wmRButtonUp, 0, MouseUp, ButtonRight},
		{"中键按下", wmMButtonDown, 0, MouseDown, ButtonMiddle},
		{"侧键1", wmXButtonDown, 1, MouseDown, ButtonX1},
		{"侧键2抬起", wmXButtonUp, 2, MouseUp, ButtonX2},
		{"移动", wmMouseMove, 0, MouseMove, ButtonLeft},
		{"滚轮", wmMouseWheel, 0, MouseWheel, ButtonMiddle},
		{"水平滚轮", wmMouseHWheel, 0, MouseWheel, ButtonMiddle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, button, ok := decodeWindowsMouse(tt.msg, tt.xButton)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.button, button)
		})
	}

	_, _, ok := decodeWindowsMouse(wmKeyDown, 0)
	assert.False(t, ok)
}

func TestDecodeMacFlagsChanged(t *testing.T) {
	// 左 Control 键码 59
	down, ok := decodeMacKey(cgFlagsChanged, 59, cgFlagControl)
	assert.True(t, ok)
	assert.True(t, down, "标志位仍带 control 说明是按下")

	down, ok = decodeMacKey(cgFlagsChanged, 59, 0)
	assert.True(t, ok)
	assert.False(t, down)

	// Shift 标志存在但变化的是 Command
	down, _ = decodeMacKey(cgFlagsChanged, 55, cgFlagShift)
	assert.False(t, down)

	down, ok = decodeMacKey(cgKeyDown, 0, 0)
	assert.True(t, ok)
	assert.True(t, down)

	_, ok = decodeMacKey(cgLeftMouseDown, 0, 0)
	assert.False(t, ok)
}

func TestDecodeMacMouse(t *testing.T) {
	kind, button, ok := decodeMacMouse(cgOtherMouseDown, 2)
	assert.True(t, ok)
	assert.Equal(t, MouseDown, kind)
	assert.Equal(t, ButtonMiddle, button)

	_, button, _ = decodeMacMouse(cgOtherMouseUp, 3)
	assert.Equal(t, ButtonX1, button)

	kind, button, _ = decodeMacMouse(cgRightMouseDragged, 0)
	assert.Equal(t, MouseMove, kind)
	assert.Equal(t, ButtonLeft, button)

	kind, _, _ = decodeMacMouse(cgScrollWheel, 0)
	assert.Equal(t, MouseWheel, kind)

	_, _, ok = decodeMacMouse(cgKeyUp, 0)
	assert.False(t, ok)
}

func TestMacModifierFlags(t *testing.T) {
	m := macModifierKeys.keyModifiers(0, cgFlagCommand|cgFlagShift)
	assert.Equal(t, Modifiers{Shift: true, Meta: true}, m)
}

func TestUiohookMask(t *testing.T) {
	assert.Equal(t, Modifiers{Ctrl: true}, uiohookMaskModifiers(uiohookMaskCtrlR))
	assert.Equal(t, Modifiers{Alt: true, Shift: true}, uiohookMaskModifiers(uiohookMaskAltL|uiohookMaskShiftR))
	assert.Equal(t, ButtonRight, uiohookButton(2))
	assert.Equal(t, ButtonX2, uiohookButton(5))
}
