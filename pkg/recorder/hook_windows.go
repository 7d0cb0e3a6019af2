//go:build windows

package recorder

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/uia"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW  = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHook  = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx     = user32.NewProc("CallNextHookEx")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState   = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	hcAction     = 0
	wmQuit       = 0x0012

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C

	hookExitTimeout = 2 * time.Second
)

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msLLHookStruct struct {
	X, Y        int32
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type winMsg struct {
	Hwnd    windows.HWND
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	X, Y    int32
}

// activeHook 钩子回调没有接收者参数，通过进程级注册槽访问 Sink
// 安装时写入，卸载时清空；重新安装前必须先卸载
var activeHook atomic.Pointer[hookRegistration]

var (
	callbacksOnce    sync.Once
	keyboardCallback uintptr
	mouseCallback    uintptr
)

// hookCallbacks 回调只创建一次，syscall 回调数量有上限
func hookCallbacks() (uintptr, uintptr) {
	callbacksOnce.Do(func() {
		keyboardCallback = windows.NewCallback(keyboardProc)
		mouseCallback = windows.NewCallback(mouseProc)
	})
	return keyboardCallback, mouseCallback
}

func callNextHook(code, wparam, lparam uintptr) uintptr {
	ret, _, _ := procCallNextHookEx.Call(0, code, wparam, lparam)
	return ret
}

func keyDown(vk uintptr) bool {
	state, _, _ := procGetAsyncKeyState.Call(vk)
	return state&0x8000 != 0
}

func asyncModifiers() Modifiers {
	return Modifiers{
		Ctrl:  keyDown(vkControl),
		Alt:   keyDown(vkMenu),
		Shift: keyDown(vkShift),
		Meta:  keyDown(vkLWin) || keyDown(vkRWin),
	}
}

// keyboardProc 无论转发结果如何都必须调用 CallNextHookEx
func keyboardProc(code, wparam, lparam uintptr) uintptr {
	if int32(code) == hcAction {
		deliverKey(wparam, lparam)
	}
	return callNextHook(code, wparam, lparam)
}

func deliverKey(wparam, lparam uintptr) {
	defer recoverHook("键盘")
	reg := activeHook.Load()
	if reg == nil || !reg.keyboard {
		return
	}
	down, ok := decodeWindowsKey(wparam)
	if !ok {
		return
	}
	kb := (*kbdLLHookStruct)(unsafe.Pointer(lparam))
	reg.sink.Key(RawKey{
		Code: kb.VkCode,
		Down: down,
		Mods: windowsModifierKeys.keyModifiers(kb.VkCode, asyncModifiers()),
	})
}

func mouseProc(code, wparam, lparam uintptr) uintptr {
	if int32(code) == hcAction {
		deliverMouse(wparam, lparam)
	}
	return callNextHook(code, wparam, lparam)
}

func deliverMouse(wparam, lparam uintptr) {
	defer recoverHook("鼠标")
	reg := activeHook.Load()
	if reg == nil || !reg.mouse {
		return
	}
	ms := (*msLLHookStruct)(unsafe.Pointer(lparam))
	high := uint16(ms.MouseData >> 16)
	kind, button, ok := decodeWindowsMouse(wparam, high)
	if !ok {
		return
	}
	raw := RawMouse{Kind: kind, Button: button, X: int(ms.X), Y: int(ms.Y)}
	if kind == MouseWheel {
		raw.Delta = int(int16(high))
	}
	reg.sink.Mouse(raw)
}

// windowsHookSource 在专用线程上安装低级钩子并运行消息循环
type windowsHookSource struct {
	mu       sync.Mutex
	threadID uint32
	done     chan struct{}
}

func newPlatformHookSource() HookSource {
	return &windowsHookSource{}
}

func (s *windowsHookSource) Install(sink Sink, keyboard, mouse bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrAlreadyStarted
	}

	reg := &hookRegistration{sink: sink, keyboard: keyboard, mouse: mouse}
	if !activeHook.CompareAndSwap(nil, reg) {
		return uia.InitializationError(nil, "其他录制器已安装输入钩子")
	}

	ready := make(chan error, 1)
	done := make(chan struct{})
	go s.run(keyboard, mouse, ready, done)
	if err := <-ready; err != nil {
		activeHook.Store(nil)
		return err
	}
	s.done = done
	return nil
}

func setHook(id int, callback uintptr) (uintptr, error) {
	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return 0, fmt.Errorf("GetModuleHandleEx 失败: %w", err)
	}
	h, _, err := procSetWindowsHookExW.Call(uintptr(id), callback, uintptr(module), 0)
	if h == 0 {
		return 0, err
	}
	return h, nil
}

func (s *windowsHookSource) run(keyboard, mouse bool, ready chan<- error, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	var hooks []uintptr
	unhookAll := func() {
		for _, h := range hooks {
			if r, _, err := procUnhookWindowsHook.Call(h); r == 0 {
				logger.Warn("移除输入钩子失败: %v", err)
			}
		}
	}

	kbProc, msProc := hookCallbacks()
	if keyboard {
		h, err := setHook(whKeyboardLL, kbProc)
		if err != nil {
			ready <- uia.InitializationError(err, "安装键盘钩子失败")
			return
		}
		hooks = append(hooks, h)
	}
	if mouse {
		h, err := setHook(whMouseLL, msProc)
		if err != nil {
			unhookAll()
			ready <- uia.InitializationError(err, "安装鼠标钩子失败")
			return
		}
		hooks = append(hooks, h)
	}

	// 确保线程消息队列已创建，PostThreadMessage 才能送达
	var m winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, 0)
	s.threadID = windows.GetCurrentThreadId()
	ready <- nil

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
	}
	unhookAll()
}

func (s *windowsHookSource) Uninstall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return nil
	}
	defer func() {
		s.done = nil
		activeHook.Store(nil)
	}()

	if r, _, err := procPostThreadMessageW.Call(uintptr(s.threadID), wmQuit, 0, 0); r == 0 {
		return fmt.Errorf("通知钩子线程退出失败: %w", err)
	}
	select {
	case <-s.done:
		return nil
	case <-time.After(hookExitTimeout):
		return errors.New("等待钩子线程退出超时")
	}
}
