//go:build linux

package recorder

import (
	"sync"
	"sync/atomic"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/record"
	hook "github.com/robotn/gohook"

	"github.com/zoeyai/uiauto/pkg/uia"
)

// gohookActive gohook 使用进程级全局状态，同一时间只能有一个监听
var gohookActive atomic.Bool

// checkRecordExtension libuiohook 在 X11 上依赖 RECORD 扩展，缺失时它只会在线程里报错退出
var checkRecordExtension = xrecordAvailable

// xrecordAvailable 连接 $DISPLAY 并查询 RECORD 扩展版本
func xrecordAvailable() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := record.Init(conn); err != nil {
		return err
	}
	_, err = record.QueryVersion(conn, 1, 13).Reply()
	return err
}

// linuxHookSource 基于 libuiohook 的全局输入监听
//
// libuiohook 在自己的线程上回调并写入 gohook 的通道，这里的读取 goroutine 负责解码和投递。
type linuxHookSource struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newPlatformHookSource() HookSource {
	return &linuxHookSource{}
}

func (s *linuxHookSource) Install(sink Sink, keyboard, mouse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrAlreadyStarted
	}
	if !gohookActive.CompareAndSwap(false, true) {
		return uia.InitializationError(nil, "其他录制器已安装输入监听")
	}

	if err := checkRecordExtension(); err != nil {
		gohookActive.Store(false)
		return uia.InitializationError(err, "X11 RECORD 扩展不可用，无法监听输入")
	}

	events := hook.Start()

	reg := &hookRegistration{sink: sink, keyboard: keyboard, mouse: mouse}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(reg, events, s.stop, s.done)
	return nil
}

func (s *linuxHookSource) loop(reg *hookRegistration, events chan hook.Event, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			deliverUiohook(reg, ev)
		}
	}
}

// deliverUiohook libuiohook 事件转换
// gohook 的常量名沿用 libuiohook 编号：KeyHold=按下 KeyUp=抬起 MouseHold=按下 MouseDown=抬起
func deliverUiohook(reg *hookRegistration, ev hook.Event) {
	defer recoverHook("输入监听")
	switch ev.Kind {
	case hook.KeyHold, hook.KeyUp:
		if !reg.keyboard {
			return
		}
		code := uint32(ev.Keycode)
		reg.sink.Key(RawKey{
			Code: code,
			Down: ev.Kind == hook.KeyHold,
			Mods: uiohookModifierKeys.keyModifiers(code, uiohookMaskModifiers(ev.Mask)),
		})
	case hook.MouseHold, hook.MouseDown, hook.MouseMove, hook.MouseDrag, hook.MouseWheel:
		if !reg.mouse {
			return
		}
		raw := RawMouse{X: int(ev.X), Y: int(ev.Y), Button: uiohookButton(ev.Button)}
		switch ev.Kind {
		case hook.MouseHold:
			raw.Kind = MouseDown
		case hook.MouseDown:
			raw.Kind = MouseUp
		case hook.MouseWheel:
			raw.Kind = MouseWheel
			raw.Button = ButtonMiddle
			raw.Delta = int(ev.Rotation)
		default:
			raw.Kind = MouseMove
			raw.Button = ButtonLeft
		}
		reg.sink.Mouse(raw)
	}
}

func (s *linuxHookSource) Uninstall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return nil
	}
	hook.End()
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
	gohookActive.Store(false)
	return nil
}
