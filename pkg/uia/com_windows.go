//go:build windows

package uia

import (
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

// UI Automation COM 标识
var (
	clsidCUIAutomation = ole.NewGUID("{ff48dba4-60ef-4201-aa87-54103eef594e}")
	iidIUIAutomation   = ole.NewGUID("{30cbe57d-d9d0-452a-ab13-7ac5ac4825ee}")
)

// IUIAutomation vtable 索引
const (
	vtAutomationGetRootElement       = 5
	vtAutomationElementFromPoint     = 7
	vtAutomationGetFocusedElement    = 8
	vtAutomationGetControlViewWalker = 14
)

// IUIAutomationTreeWalker vtable 索引
const (
	vtWalkerGetParent      = 3
	vtWalkerGetFirstChild  = 4
	vtWalkerGetNextSibling = 6
)

// IUIAutomationElement vtable 索引
const (
	vtElementSetFocus                = 3
	vtElementGetCurrentPropertyValue = 10
	vtElementProcessID               = 20
	vtElementControlType             = 21
	vtElementName                    = 23
	vtElementHasKeyboardFocus        = 26
	vtElementIsEnabled               = 28
	vtElementAutomationID            = 29
	vtElementClassName               = 30
	vtElementBoundingRectangle       = 43
)

const (
	uiaValueValuePropertyID  = 30045
	uiaLegacyValuePropertyID = 30093

	// RPC_E_CHANGED_MODE 线程已以其他并发模型初始化
	rpcEChangedMode = 0x80010106
)

// comCall 调用 COM 接口 vtable 中第 idx 个方法
func comCall(obj *ole.IUnknown, idx int, args ...uintptr) error {
	vtbl := *(*unsafe.Pointer)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Add(vtbl, uintptr(idx)*unsafe.Sizeof(uintptr(0))))
	all := make([]uintptr, 0, len(args)+1)
	all = append(all, uintptr(unsafe.Pointer(obj)))
	all = append(all, args...)
	hr, _, _ := syscall.SyscallN(fn, all...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

// comBSTR 调用返回 BSTR 的属性并释放
func comBSTR(obj *ole.IUnknown, idx int) (string, error) {
	var bstr *uint16
	if err := comCall(obj, idx, uintptr(unsafe.Pointer(&bstr))); err != nil {
		return "", err
	}
	if bstr == nil {
		return "", nil
	}
	s := ole.BstrToString(bstr)
	ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
	return s, nil
}

func comInt32(obj *ole.IUnknown, idx int) (int32, error) {
	var v int32
	err := comCall(obj, idx, uintptr(unsafe.Pointer(&v)))
	return v, err
}

// comElement 调用返回 IUIAutomationElement** 的方法
func comElement(obj *ole.IUnknown, idx int, args ...uintptr) (*ole.IUnknown, error) {
	var out *ole.IUnknown
	args = append(args, uintptr(unsafe.Pointer(&out)))
	if err := comCall(obj, idx, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// pointArgs POINT 按值传递：64 位平台打包进一个寄存器，32 位平台分两个参数
func pointArgs(x, y int) []uintptr {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return []uintptr{uintptr(uint32(int32(x))) | uintptr(uint32(int32(y)))<<32}
	}
	return []uintptr{uintptr(int32(x)), uintptr(int32(y))}
}
