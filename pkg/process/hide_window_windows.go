package process

import (
	"os/exec"
	"syscall"
)

// HideWindow 在 Windows 上隐藏子进程的控制台窗口
func HideWindow(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}
