//go:build !darwin

package permissions

// Check 非 macOS 系统不需要授权
func Check() Status {
	return Status{Accessibility: true, ScreenRecording: true, InputMonitoring: true}
}

// Request 非 macOS 系统不需要授权
func Request(Need) Status {
	return Check()
}

// OpenSettings 非 macOS 系统无对应设置页
func OpenSettings(Need) {}
