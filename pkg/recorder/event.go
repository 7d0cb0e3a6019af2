// Package recorder 录制系统级键盘、鼠标与窗口事件，并关联鼠标位置处的 UI 元素
package recorder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zoeyai/uiauto/pkg/uia"
)

// EventType 事件类别
type EventType string

const (
	EventKeyboard EventType = "keyboard"
	EventMouse    EventType = "mouse"
	EventWindow   EventType = "window"
)

// MouseKind 鼠标事件类型
type MouseKind int

const (
	MouseDown MouseKind = iota + 1
	MouseUp
	MouseMove
	MouseWheel
)

func (k MouseKind) String() string {
	switch k {
	case MouseDown:
		return "down"
	case MouseUp:
		return "up"
	case MouseMove:
		return "move"
	case MouseWheel:
		return "wheel"
	default:
		return "unknown"
	}
}

// MarshalText 以名称序列化
func (k MouseKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MouseKind) UnmarshalText(text []byte) error {
	for _, c := range []MouseKind{MouseDown, MouseUp, MouseMove, MouseWheel} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("未知的鼠标事件类型: %q", text)
}

// MouseButton 鼠标按键
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonX1:
		return "x1"
	case ButtonX2:
		return "x2"
	default:
		return "none"
	}
}

// MarshalText 以名称序列化
func (b MouseButton) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *MouseButton) UnmarshalText(text []byte) error {
	for _, c := range []MouseButton{ButtonLeft, ButtonRight, ButtonMiddle, ButtonX1, ButtonX2} {
		if c.String() == string(text) {
			*b = c
			return nil
		}
	}
	if string(text) == "none" {
		*b = 0
		return nil
	}
	return fmt.Errorf("未知的鼠标按键: %q", text)
}

// Position 屏幕坐标
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// KeyboardEvent 键盘事件
type KeyboardEvent struct {
	KeyCode uint32 `json:"key_code"`
	Down    bool   `json:"is_key_down"`
	Ctrl    bool   `json:"ctrl_pressed"`
	Alt     bool   `json:"alt_pressed"`
	Shift   bool   `json:"shift_pressed"`
	Meta    bool   `json:"win_pressed"`
}

// MouseEvent 鼠标事件，Element 仅在按下/抬起且开启元素捕获时存在
type MouseEvent struct {
	Kind     MouseKind   `json:"event_type"`
	Button   MouseButton `json:"button"`
	Position Position    `json:"position"`
	// Delta 滚轮事件的滚动量
	Delta   int        `json:"delta,omitempty"`
	Element *UIElement `json:"ui_element,omitempty"`
}

// WindowEvent 前台窗口切换
type WindowEvent struct {
	Title       string `json:"title"`
	AppName     string `json:"application_name"`
	ProcessID   int    `json:"process_id"`
	PrevTitle   string `json:"previous_title,omitempty"`
	PrevAppName string `json:"previous_application_name,omitempty"`
}

// UIElement 事件发生时鼠标位置处元素的快照，字段均为尽力读取
type UIElement struct {
	Name             string    `json:"name,omitempty"`
	AutomationID     string    `json:"automation_id,omitempty"`
	ClassName        string    `json:"class_name,omitempty"`
	ControlType      string    `json:"control_type,omitempty"`
	ProcessID        int       `json:"process_id,omitempty"`
	ApplicationName  string    `json:"application_name,omitempty"`
	WindowTitle      string    `json:"window_title,omitempty"`
	BoundingRect     *uia.Rect `json:"bounding_rect,omitempty"`
	IsEnabled        *bool     `json:"is_enabled,omitempty"`
	HasKeyboardFocus *bool     `json:"has_keyboard_focus,omitempty"`
	HierarchyPath    string    `json:"hierarchy_path,omitempty"`
	Value            string    `json:"value,omitempty"`
}

// WorkflowEvent 录制事件，Type 决定哪个负载非空；构造后不再修改
type WorkflowEvent struct {
	ID       string         `json:"id"`
	Session  string         `json:"session"`
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Keyboard *KeyboardEvent `json:"keyboard,omitempty"`
	Mouse    *MouseEvent    `json:"mouse,omitempty"`
	Window   *WindowEvent   `json:"window,omitempty"`
}

func newEvent(session string, t EventType) WorkflowEvent {
	return WorkflowEvent{
		ID:      uuid.NewString(),
		Session: session,
		Type:    t,
		Time:    time.Now(),
	}
}

func (e WorkflowEvent) String() string {
	switch e.Type {
	case EventKeyboard:
		k := e.Keyboard
		state := "up"
		if k.Down {
			state = "down"
		}
		return fmt.Sprintf("keyboard %d %s ctrl=%t alt=%t shift=%t meta=%t", k.KeyCode, state, k.Ctrl, k.Alt, k.Shift, k.Meta)
	case EventMouse:
		m := e.Mouse
		s := fmt.Sprintf("mouse %s %s (%d,%d)", m.Kind, m.Button, m.Position.X, m.Position.Y)
		if m.Element != nil {
			s += " " + m.Element.HierarchyPath
		}
		return s
	case EventWindow:
		return fmt.Sprintf("window %q [%s]", e.Window.Title, e.Window.AppName)
	default:
		return string(e.Type)
	}
}
