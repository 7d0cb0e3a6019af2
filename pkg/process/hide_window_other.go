//go:build !windows

package process

import "os/exec"

// HideWindow 非 Windows 平台空实现
func HideWindow(_ *exec.Cmd) {}
