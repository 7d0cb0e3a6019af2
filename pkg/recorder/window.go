package recorder

import (
	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// windowTracker 前台窗口变化检测，只在转发 goroutine 上使用
type windowTracker struct {
	engine  *uia.Engine
	session string
	last    uia.WindowInfo
}

// newWindowTracker 未开启元素捕获或没有引擎时返回 nil
func newWindowTracker(cfg Config, engine *uia.Engine, session string) *windowTracker {
	if engine == nil || !cfg.CaptureUIElements {
		return nil
	}
	return &windowTracker{engine: engine, session: session}
}

// observe 键盘按下和鼠标按下前检查前台窗口，标题或应用变化时返回 Window 事件
// Window 事件沿用触发事件的时间戳
func (w *windowTracker) observe(trigger WorkflowEvent) (WorkflowEvent, bool) {
	if w == nil || !isPress(trigger) {
		return WorkflowEvent{}, false
	}
	info, err := w.engine.ForegroundWindow()
	if err != nil {
		logger.Debug("获取前台窗口失败: %v", err)
		return WorkflowEvent{}, false
	}

	prev := w.last
	if prev.Title == info.Title && prev.AppName == info.AppName {
		return WorkflowEvent{}, false
	}
	w.last = info

	ev := newEvent(w.session, EventWindow)
	ev.Time = trigger.Time
	ev.Window = &WindowEvent{
		Title:       info.Title,
		AppName:     info.AppName,
		ProcessID:   info.PID,
		PrevTitle:   prev.Title,
		PrevAppName: prev.AppName,
	}
	return ev, true
}

func isPress(ev WorkflowEvent) bool {
	switch ev.Type {
	case EventKeyboard:
		return ev.Keyboard != nil && ev.Keyboard.Down
	case EventMouse:
		return ev.Mouse != nil && ev.Mouse.Kind == MouseDown
	}
	return false
}
