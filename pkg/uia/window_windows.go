//go:build windows

package uia

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/zoeyai/uiauto/pkg/process"
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procGetWindow     = user32.NewProc("GetWindow")
	procGetWindowRect = user32.NewProc("GetWindowRect")
	procGetWindowLong = user32.NewProc("GetWindowLongW")
	procGetTextLength = user32.NewProc("GetWindowTextLengthW")
)

const (
	gwOwner        = 4
	gwlExStyle     = ^uintptr(19) // -20
	wsExToolWindow = 0x00000080
	wsExAppWindow  = 0x00040000
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

// ownerSearch EnumWindows 回调的查找状态
type ownerSearch struct {
	pid  uint32
	hwnd windows.HWND
}

var (
	ownerCallbackOnce sync.Once
	ownerCallback     uintptr
)

// enumOwnerProc 只创建一次回调，syscall 回调数量有上限
func enumOwnerProc() uintptr {
	ownerCallbackOnce.Do(func() {
		ownerCallback = windows.NewCallback(func(hwnd windows.HWND, lparam uintptr) uintptr {
			s := (*ownerSearch)(unsafe.Pointer(lparam))
			var pid uint32
			if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid != s.pid {
				return 1
			}
			if !windows.IsWindowVisible(hwnd) {
				return 1
			}
			owner, _, _ := procGetWindow.Call(uintptr(hwnd), gwOwner)
			if owner != 0 {
				return 1
			}
			exStyle, _, _ := procGetWindowLong.Call(uintptr(hwnd), gwlExStyle)
			if exStyle&wsExToolWindow != 0 && exStyle&wsExAppWindow == 0 {
				return 1
			}
			s.hwnd = hwnd
			return 0
		})
	})
	return ownerCallback
}

func windowTitle(hwnd windows.HWND) string {
	length, _, _ := procGetTextLength.Call(uintptr(hwnd))
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n, err := windows.GetWindowText(hwnd, &buf[0], int32(len(buf)))
	if err != nil || n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func windowRect(hwnd windows.HWND) Rect {
	var r winRect
	procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
	return Rect{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}
}

func windowInfo(hwnd windows.HWND, pid uint32) WindowInfo {
	name, _ := process.Name(int(pid))
	return WindowInfo{
		PID:     int(pid),
		Title:   windowTitle(hwnd),
		AppName: name,
		Bounds:  windowRect(hwnd),
	}
}

// findMainWindow 查找进程的第一个可见无 owner 顶层窗口
func findMainWindow(pid int) (windows.HWND, error) {
	s := &ownerSearch{pid: uint32(pid)}
	// 回调返回 0 终止枚举时 EnumWindows 会报错，以 hwnd 为准
	_ = windows.EnumWindows(enumOwnerProc(), unsafe.Pointer(s))
	if s.hwnd == 0 {
		return 0, fmt.Errorf("PID=%d 没有可见窗口", pid)
	}
	return s.hwnd, nil
}

func (b *windowsBackend) WindowOwner(pid int) (WindowInfo, error) {
	hwnd, err := findMainWindow(pid)
	if err != nil {
		return WindowInfo{}, err
	}
	return windowInfo(hwnd, uint32(pid)), nil
}

func (b *windowsBackend) ForegroundWindow() (WindowInfo, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return WindowInfo{}, errors.New("没有前台窗口")
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return WindowInfo{}, fmt.Errorf("GetWindowThreadProcessId 失败: %w", err)
	}
	return windowInfo(hwnd, pid), nil
}
