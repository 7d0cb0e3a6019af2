//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework ApplicationServices -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <ApplicationServices/ApplicationServices.h>
#import <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>

static int checkAccessibility(int prompt) {
	NSDictionary *options = @{(__bridge NSString *)kAXTrustedCheckOptionPrompt: prompt ? @YES : @NO};
	return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}

// 没有屏幕录制权限时其它应用的窗口名称读不到
static int checkScreenRecording(void) {
	if (@available(macOS 10.15, *)) {
		CFArrayRef windowList = CGWindowListCopyWindowInfo(
			kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
			kCGNullWindowID
		);
		if (windowList == NULL) {
			return 0;
		}
		CFIndex count = CFArrayGetCount(windowList);
		int hasNames = 0;
		for (CFIndex i = 0; i < count; i++) {
			CFDictionaryRef window = (CFDictionaryRef)CFArrayGetValueAtIndex(windowList, i);
			CFStringRef name = (CFStringRef)CFDictionaryGetValue(window, kCGWindowName);
			if (name != NULL && CFStringGetLength(name) > 0) {
				hasNames = 1;
				break;
			}
		}
		CFRelease(windowList);
		return (count == 0 || hasNames) ? 1 : 0;
	}
	return 1;
}

static int checkInputMonitoring(int prompt) {
	if (@available(macOS 10.15, *)) {
		if (CGPreflightListenEventAccess()) {
			return 1;
		}
		if (prompt) {
			return CGRequestListenEventAccess() ? 1 : 0;
		}
		return 0;
	}
	return 1;
}

static void openPrivacyPane(const char *anchor) {
	NSString *url = [NSString stringWithFormat:@"x-apple.systempreferences:com.apple.preference.security?%s", anchor];
	[[NSWorkspace sharedWorkspace] openURL:[NSURL URLWithString:url]];
}
*/
import "C"

import "unsafe"

// Check 检查权限，不触发系统弹窗
func Check() Status {
	return Status{
		Accessibility:   C.checkAccessibility(0) == 1,
		ScreenRecording: C.checkScreenRecording() == 1,
		InputMonitoring: C.checkInputMonitoring(0) == 1,
	}
}

// Request 请求缺失的权限，会触发系统授权弹窗
func Request(need Need) Status {
	if need&Accessibility != 0 {
		C.checkAccessibility(1)
	}
	if need&InputMonitoring != 0 {
		C.checkInputMonitoring(1)
	}
	return Check()
}

// OpenSettings 打开系统设置中第一个缺失权限对应的页面
func OpenSettings(need Need) {
	status := Check()
	var anchor string
	switch {
	case need&Accessibility != 0 && !status.Accessibility:
		anchor = "Privacy_Accessibility"
	case need&ScreenRecording != 0 && !status.ScreenRecording:
		anchor = "Privacy_ScreenCapture"
	case need&InputMonitoring != 0 && !status.InputMonitoring:
		anchor = "Privacy_ListenEvent"
	default:
		return
	}
	cs := C.CString(anchor)
	defer C.free(unsafe.Pointer(cs))
	C.openPrivacyPane(cs)
}
