package recorder

import (
	"sync/atomic"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// Dispatcher 把钩子输入转换为 WorkflowEvent 并放入队列，实现 Sink
//
// 移动事件按采样率抽取；按下/抬起事件在开启捕获时关联元素快照。
type Dispatcher struct {
	cfg     Config
	engine  *uia.Engine
	queue   *Queue[WorkflowEvent]
	session string

	moves atomic.Uint64
}

// NewDispatcher 创建分发器，engine 为空时不做元素关联
func NewDispatcher(cfg Config, engine *uia.Engine, queue *Queue[WorkflowEvent], session string) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg.normalize(),
		engine:  engine,
		queue:   queue,
		session: session,
	}
}

func (d *Dispatcher) emit(ev WorkflowEvent) {
	if !d.queue.Push(ev) {
		logger.Debug("录制已停止，丢弃事件: %s", ev)
	}
}

// Key 键盘输入
func (d *Dispatcher) Key(raw RawKey) {
	if !d.cfg.RecordKeyboard {
		return
	}
	ev := newEvent(d.session, EventKeyboard)
	ev.Keyboard = &KeyboardEvent{
		KeyCode: raw.Code,
		Down:    raw.Down,
		Ctrl:    raw.Mods.Ctrl,
		Alt:     raw.Mods.Alt,
		Shift:   raw.Mods.Shift,
		Meta:    raw.Mods.Meta,
	}
	d.emit(ev)
}

// Mouse 鼠标输入
func (d *Dispatcher) Mouse(raw RawMouse) {
	if !d.cfg.RecordMouse {
		return
	}
	if raw.Kind == MouseMove {
		n := d.moves.Add(1)
		if n%uint64(d.cfg.MouseMoveSampleRate) != 0 {
			return
		}
	}

	var element *UIElement
	if (raw.Kind == MouseDown || raw.Kind == MouseUp) && d.cfg.CaptureUIElements {
		element = Snapshot(d.engine, raw.X, raw.Y, d.cfg.MaxHierarchyDepth)
	}

	ev := newEvent(d.session, EventMouse)
	ev.Mouse = &MouseEvent{
		Kind:     raw.Kind,
		Button:   raw.Button,
		Position: Position{X: raw.X, Y: raw.Y},
		Delta:    raw.Delta,
		Element:  element,
	}
	d.emit(ev)
}
