//go:build darwin

package uia

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework ApplicationServices -framework Cocoa
#include <ApplicationServices/ApplicationServices.h>
#include <Cocoa/Cocoa.h>
#include <stdlib.h>

static CFStringRef axAttrName(const char *name) {
	return CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingUTF8);
}

static void axRelease(AXUIElementRef el) {
	if (el != NULL) {
		CFRelease(el);
	}
}

static Boolean axIsTrusted(void) {
	return AXIsProcessTrusted();
}

// axCopyStringAttr 读取字符串属性；数值类属性转为描述文本
static CFStringRef axCopyStringAttr(AXUIElementRef el, const char *name, AXError *errOut) {
	CFStringRef attr = axAttrName(name);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
	CFRelease(attr);
	*errOut = err;
	if (err != kAXErrorSuccess || value == NULL) {
		return NULL;
	}
	if (CFGetTypeID(value) == CFStringGetTypeID()) {
		return (CFStringRef)value;
	}
	if (CFGetTypeID(value) == CFNumberGetTypeID() || CFGetTypeID(value) == CFBooleanGetTypeID()) {
		CFStringRef desc = CFCopyDescription(value);
		CFRelease(value);
		return desc;
	}
	CFRelease(value);
	return NULL;
}

static AXError axGetBoolAttr(AXUIElementRef el, const char *name, int *out) {
	CFStringRef attr = axAttrName(name);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
	CFRelease(attr);
	if (err != kAXErrorSuccess || value == NULL) {
		return err;
	}
	*out = (CFGetTypeID(value) == CFBooleanGetTypeID() && CFBooleanGetValue(value)) ? 1 : 0;
	CFRelease(value);
	return kAXErrorSuccess;
}

static AXError axGetFrame(AXUIElementRef el, double *x, double *y, double *w, double *h) {
	CFTypeRef pos = NULL;
	CFTypeRef size = NULL;
	AXError err = AXUIElementCopyAttributeValue(el, kAXPositionAttribute, &pos);
	if (err != kAXErrorSuccess || pos == NULL) {
		return err;
	}
	err = AXUIElementCopyAttributeValue(el, kAXSizeAttribute, &size);
	if (err != kAXErrorSuccess || size == NULL) {
		CFRelease(pos);
		return err;
	}
	CGPoint p;
	CGSize s;
	AXValueGetValue(pos, kAXValueCGPointType, &p);
	AXValueGetValue(size, kAXValueCGSizeType, &s);
	CFRelease(pos);
	CFRelease(size);
	*x = p.x;
	*y = p.y;
	*w = s.width;
	*h = s.height;
	return kAXErrorSuccess;
}

static AXUIElementRef axCopyElementAttr(AXUIElementRef el, const char *name, AXError *errOut) {
	CFStringRef attr = axAttrName(name);
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
	CFRelease(attr);
	*errOut = err;
	if (err != kAXErrorSuccess || value == NULL) {
		return NULL;
	}
	if (CFGetTypeID(value) != AXUIElementGetTypeID()) {
		CFRelease(value);
		return NULL;
	}
	return (AXUIElementRef)value;
}

static CFIndex axCopyChildren(AXUIElementRef el, CFArrayRef *out, AXError *errOut) {
	CFTypeRef value = NULL;
	AXError err = AXUIElementCopyAttributeValue(el, kAXChildrenAttribute, &value);
	*errOut = err;
	if (err != kAXErrorSuccess || value == NULL) {
		return 0;
	}
	if (CFGetTypeID(value) != CFArrayGetTypeID()) {
		CFRelease(value);
		return 0;
	}
	*out = (CFArrayRef)value;
	return CFArrayGetCount((CFArrayRef)value);
}

static AXUIElementRef axArrayElementAt(CFArrayRef arr, CFIndex i) {
	AXUIElementRef el = (AXUIElementRef)CFArrayGetValueAtIndex(arr, i);
	if (el != NULL) {
		CFRetain(el);
	}
	return el;
}

static pid_t axPid(AXUIElementRef el, AXError *errOut) {
	pid_t pid = 0;
	*errOut = AXUIElementGetPid(el, &pid);
	return pid;
}

static AXUIElementRef axElementAtPoint(float x, float y, AXError *errOut) {
	AXUIElementRef systemWide = AXUIElementCreateSystemWide();
	AXUIElementRef el = NULL;
	*errOut = AXUIElementCopyElementAtPosition(systemWide, x, y, &el);
	CFRelease(systemWide);
	return el;
}

static AXUIElementRef axFocusedElement(AXError *errOut) {
	AXUIElementRef systemWide = AXUIElementCreateSystemWide();
	AXUIElementRef el = axCopyElementAttr(systemWide, "AXFocusedUIElement", errOut);
	CFRelease(systemWide);
	return el;
}

static AXError axSetFocus(AXUIElementRef el) {
	return AXUIElementSetAttributeValue(el, kAXFocusedAttribute, kCFBooleanTrue);
}

static AXUIElementRef axApplication(pid_t pid) {
	return AXUIElementCreateApplication(pid);
}

// runningAppPids 返回正在运行的应用 PID，includeBackground 为 0 时只返回常规应用
static int runningAppPids(pid_t *out, int max, int includeBackground) {
	int n = 0;
	@autoreleasepool {
		for (NSRunningApplication *app in [[NSWorkspace sharedWorkspace] runningApplications]) {
			if (n >= max) {
				break;
			}
			if (!includeBackground && app.activationPolicy != NSApplicationActivationPolicyRegular) {
				continue;
			}
			out[n++] = app.processIdentifier;
		}
	}
	return n;
}

static pid_t frontmostPid(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil) {
		return 0;
	}
	return app.processIdentifier;
}

static CFStringRef copyAppName(pid_t pid) {
	NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:pid];
	if (app == nil) {
		return NULL;
	}
	NSString *name = app.localizedName ?: @"";
	return (__bridge_retained CFStringRef)name;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

const maxRunningApps = 512

type macBackend struct {
	includeBackground bool
}

func newPlatformBackend(cfg Config) (Backend, error) {
	if C.axIsTrusted() == C.Boolean(0) {
		return nil, InitializationError(errors.New("AXIsProcessTrusted = false"), "未授予辅助功能权限")
	}
	return &macBackend{includeBackground: cfg.UseBackgroundApps}, nil
}

func (b *macBackend) Name() string { return "ax" }

func (b *macBackend) Root() (Node, error) {
	return &macDesktopNode{b: b}, nil
}

func (b *macBackend) appNodes() []*macNode {
	include := C.int(0)
	if b.includeBackground {
		include = 1
	}
	pids := make([]C.pid_t, maxRunningApps)
	n := int(C.runningAppPids(&pids[0], C.int(len(pids)), include))
	apps := make([]*macNode, 0, n)
	for _, pid := range pids[:n] {
		if node := newMacNode(C.axApplication(pid)); node != nil {
			apps = append(apps, node)
		}
	}
	return apps
}

func (b *macBackend) Applications() ([]Node, error) {
	apps := b.appNodes()
	nodes := make([]Node, len(apps))
	for i, a := range apps {
		nodes[i] = a
	}
	return nodes, nil
}

func (b *macBackend) Focused() (Node, error) {
	var axErr C.AXError
	el := C.axFocusedElement(&axErr)
	if el == nil {
		return nil, axError(axErr, "AXFocusedUIElement")
	}
	return newMacNode(el), nil
}

func (b *macBackend) NodeAtPoint(x, y int) (Node, error) {
	var axErr C.AXError
	el := C.axElementAtPoint(C.float(x), C.float(y), &axErr)
	if el == nil {
		return nil, axError(axErr, "AXUIElementCopyElementAtPosition")
	}
	return newMacNode(el), nil
}

func (b *macBackend) WindowOwner(pid int) (WindowInfo, error) {
	app := newMacNode(C.axApplication(C.pid_t(pid)))
	if app == nil {
		return WindowInfo{}, fmt.Errorf("无法创建 PID=%d 的应用元素", pid)
	}
	info := WindowInfo{PID: pid, AppName: cfStringToGo(C.copyAppName(C.pid_t(pid)))}
	for _, attr := range []string{"AXFocusedWindow", "AXMainWindow"} {
		if w, err := app.elementAttr(attr); err == nil && w != nil {
			info.Title, _ = w.Name()
			info.Bounds, _ = w.Bounds()
			return info, nil
		}
	}
	if info.AppName == "" {
		return WindowInfo{}, fmt.Errorf("PID=%d 没有窗口", pid)
	}
	return info, nil
}

func (b *macBackend) ForegroundWindow() (WindowInfo, error) {
	pid := int(C.frontmostPid())
	if pid == 0 {
		return WindowInfo{}, errors.New("没有前台应用")
	}
	return b.WindowOwner(pid)
}

func (b *macBackend) Close() error { return nil }

func axError(code C.AXError, call string) error {
	return fmt.Errorf("%s 失败: AXError=%d", call, int(code))
}

// cfStringToGo 转换并释放 CFString
func cfStringToGo(str C.CFStringRef) string {
	if str == 0 {
		return ""
	}
	defer C.CFRelease(C.CFTypeRef(str))
	length := C.CFStringGetLength(str)
	if length == 0 {
		return ""
	}
	bufSize := C.CFIndex(1 + 4*length)
	buf := make([]byte, int(bufSize))
	if C.CFStringGetCString(str, (*C.char)(unsafe.Pointer(&buf[0])), bufSize, C.kCFStringEncodingUTF8) == C.Boolean(0) {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
}

// macDesktopNode 虚拟桌面根节点，子节点为运行中的应用
type macDesktopNode struct {
	nullNode
	b *macBackend
}

func (d *macDesktopNode) Children() ([]Node, error) {
	return d.b.Applications()
}

// macNode 持有一个已 retain 的 AXUIElementRef，由 finalizer 释放
type macNode struct {
	ref C.AXUIElementRef
}

func newMacNode(ref C.AXUIElementRef) *macNode {
	if ref == nil {
		return nil
	}
	n := &macNode{ref: ref}
	runtime.SetFinalizer(n, (*macNode).Release)
	return n
}

// Release 立即释放原生引用
func (n *macNode) Release() {
	if n.ref != nil {
		C.axRelease(n.ref)
		n.ref = nil
	}
	runtime.SetFinalizer(n, nil)
}

func (n *macNode) stringAttr(name string) (string, error) {
	if n.ref == nil {
		return "", errors.New("元素已释放")
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var axErr C.AXError
	s := C.axCopyStringAttr(n.ref, cname, &axErr)
	if axErr != C.kAXErrorSuccess && axErr != C.kAXErrorNoValue {
		return "", axError(axErr, name)
	}
	return cfStringToGo(s), nil
}

func (n *macNode) boolAttr(name string) (bool, error) {
	if n.ref == nil {
		return false, errors.New("元素已释放")
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var out C.int
	if axErr := C.axGetBoolAttr(n.ref, cname, &out); axErr != C.kAXErrorSuccess {
		return false, axError(axErr, name)
	}
	return out != 0, nil
}

func (n *macNode) elementAttr(name string) (*macNode, error) {
	if n.ref == nil {
		return nil, errors.New("元素已释放")
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var axErr C.AXError
	el := C.axCopyElementAttr(n.ref, cname, &axErr)
	if el == nil {
		if axErr == C.kAXErrorSuccess || axErr == C.kAXErrorNoValue {
			return nil, nil
		}
		return nil, axError(axErr, name)
	}
	return newMacNode(el), nil
}

func (n *macNode) Role() (string, error) {
	role, err := n.stringAttr("AXRole")
	if err != nil {
		return "", err
	}
	return MacRole(role), nil
}

// Name 依次尝试 AXTitle、AXDescription
func (n *macNode) Name() (string, error) {
	title, err := n.stringAttr("AXTitle")
	if err == nil && title != "" {
		return title, nil
	}
	desc, descErr := n.stringAttr("AXDescription")
	if descErr == nil {
		return desc, nil
	}
	return title, err
}

func (n *macNode) AutomationID() (string, error) { return n.stringAttr("AXIdentifier") }

func (n *macNode) ClassName() (string, error) { return n.stringAttr("AXSubrole") }

func (n *macNode) Value() (string, error) { return n.stringAttr("AXValue") }

func (n *macNode) Bounds() (Rect, error) {
	if n.ref == nil {
		return Rect{}, errors.New("元素已释放")
	}
	var x, y, w, h C.double
	if axErr := C.axGetFrame(n.ref, &x, &y, &w, &h); axErr != C.kAXErrorSuccess {
		return Rect{}, axError(axErr, "AXPosition/AXSize")
	}
	return Rect{X: int(x), Y: int(y), Width: int(w), Height: int(h)}, nil
}

func (n *macNode) IsEnabled() (bool, error) { return n.boolAttr("AXEnabled") }

func (n *macNode) IsFocused() (bool, error) { return n.boolAttr("AXFocused") }

func (n *macNode) ProcessID() (int, error) {
	if n.ref == nil {
		return 0, errors.New("元素已释放")
	}
	var axErr C.AXError
	pid := C.axPid(n.ref, &axErr)
	if axErr != C.kAXErrorSuccess {
		return 0, axError(axErr, "AXUIElementGetPid")
	}
	return int(pid), nil
}

func (n *macNode) Parent() (Node, error) {
	p, err := n.elementAttr("AXParent")
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}

func (n *macNode) Children() ([]Node, error) {
	if n.ref == nil {
		return nil, errors.New("元素已释放")
	}
	var (
		arr   C.CFArrayRef
		axErr C.AXError
	)
	count := int(C.axCopyChildren(n.ref, &arr, &axErr))
	if axErr != C.kAXErrorSuccess && axErr != C.kAXErrorNoValue {
		return nil, axError(axErr, "AXChildren")
	}
	if arr == 0 {
		return nil, nil
	}
	defer C.CFRelease(C.CFTypeRef(arr))

	children := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if child := newMacNode(C.axArrayElementAt(arr, C.CFIndex(i))); child != nil {
			children = append(children, child)
		}
	}
	return children, nil
}

func (n *macNode) SetFocus() error {
	if n.ref == nil {
		return errors.New("元素已释放")
	}
	if axErr := C.axSetFocus(n.ref); axErr != C.kAXErrorSuccess {
		return axError(axErr, "AXFocused")
	}
	return nil
}
