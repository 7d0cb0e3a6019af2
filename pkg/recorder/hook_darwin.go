//go:build darwin

package recorder

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <stdbool.h>
#include <stdint.h>

int  recorderTapStart(uintptr_t handle, bool keyboard, bool mouse);
void recorderTapRun(void);
void recorderTapStop(void);
void recorderTapRelease(void);
*/
import "C"

import (
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"

	"github.com/zoeyai/uiauto/pkg/permissions"
	"github.com/zoeyai/uiauto/pkg/uia"
)

const tapExitTimeout = 2 * time.Second

//export goRecorderEvent
func goRecorderEvent(handle C.uintptr_t, eventType C.int, keycode C.int64_t, flags C.uint64_t, x, y C.double, button, delta C.int64_t) {
	defer recoverHook("事件监听")
	reg, ok := cgo.Handle(handle).Value().(*hookRegistration)
	if !ok {
		return
	}

	typ := int(eventType)
	if down, ok := decodeMacKey(typ, uint32(keycode), uint64(flags)); ok {
		if !reg.keyboard {
			return
		}
		code := uint32(keycode)
		reg.sink.Key(RawKey{
			Code: code,
			Down: down,
			Mods: macModifierKeys.keyModifiers(code, macFlagModifiers(uint64(flags))),
		})
		return
	}

	kind, btn, ok := decodeMacMouse(typ, int64(button))
	if !ok || !reg.mouse {
		return
	}
	raw := RawMouse{Kind: kind, Button: btn, X: int(x), Y: int(y)}
	if kind == MouseWheel {
		raw.Delta = int(delta)
	}
	reg.sink.Mouse(raw)
}

// macHookSource 只监听不拦截的 CGEventTap，运行在专用线程的 RunLoop 上
// 回调上下文通过 cgo.Handle 作为 refcon 传入
type macHookSource struct {
	mu     sync.Mutex
	handle cgo.Handle
	done   chan struct{}
}

// tapMu 进程内只允许一个事件监听
var tapMu sync.Mutex

func newPlatformHookSource() HookSource {
	return &macHookSource{}
}

func (s *macHookSource) Install(sink Sink, keyboard, mouse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrAlreadyStarted
	}
	if err := permissions.Require(permissions.InputMonitoring); err != nil {
		return err
	}
	if !tapMu.TryLock() {
		return uia.InitializationError(nil, "其他录制器已安装事件监听")
	}

	handle := cgo.NewHandle(&hookRegistration{sink: sink, keyboard: keyboard, mouse: mouse})
	ready := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		if C.recorderTapStart(C.uintptr_t(handle), C.bool(keyboard), C.bool(mouse)) != 0 {
			ready <- uia.InitializationError(errors.New("CGEventTapCreate 返回空"), "创建事件监听失败，请检查辅助功能与输入监控权限")
			return
		}
		ready <- nil
		C.recorderTapRun()
		C.recorderTapRelease()
	}()

	if err := <-ready; err != nil {
		<-done
		handle.Delete()
		tapMu.Unlock()
		return err
	}
	s.handle = handle
	s.done = done
	return nil
}

func (s *macHookSource) Uninstall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return nil
	}

	C.recorderTapStop()
	select {
	case <-s.done:
	case <-time.After(tapExitTimeout):
		// RunLoop 未退出时保留 handle，避免回调访问已删除的句柄
		s.done = nil
		tapMu.Unlock()
		return errors.New("等待事件监听线程退出超时")
	}
	s.handle.Delete()
	s.done = nil
	tapMu.Unlock()
	return nil
}
