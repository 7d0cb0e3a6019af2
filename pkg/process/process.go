// Package process 提供进程查询与命令执行
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo 进程信息
type ProcessInfo struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// CommandOutput 命令执行结果
type CommandOutput struct {
	// ExitStatus 退出码，进程被信号终止时为 -1
	ExitStatus int    `json:"exit_status"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

// Name 按 PID 获取进程名（不含扩展名 .exe）
func Name(pid int) (string, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("进程不存在: PID=%d", pid)
	}
	name, err := proc.Name()
	if err != nil || name == "" {
		exe, exeErr := proc.Exe()
		if exeErr != nil {
			return "", fmt.Errorf("获取进程名失败: PID=%d", pid)
		}
		name = filepath.Base(exe)
	}
	return strings.TrimSuffix(name, ".exe"), nil
}

// GetProcessByPID 按 PID 获取进程信息
func GetProcessByPID(pid int) (*ProcessInfo, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d", pid)
	}

	name, _ := proc.Name()
	exe, _ := proc.Exe()

	return &ProcessInfo{
		PID:  pid,
		Name: name,
		Path: exe,
	}, nil
}

// FindProcess 按名称查找进程 (不区分大小写，支持部分匹配)
func FindProcess(name string) ([]ProcessInfo, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	name = strings.ToLower(name)
	var matches []ProcessInfo

	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}

		procName, err := proc.Name()
		if err != nil {
			continue
		}

		if strings.Contains(strings.ToLower(procName), name) {
			exe, _ := proc.Exe()
			matches = append(matches, ProcessInfo{
				PID:  int(pid),
				Name: procName,
				Path: exe,
			})
		}
	}

	return matches, nil
}

// FindPIDsByName 按名称查找进程 PID
func FindPIDsByName(name string) ([]int, error) {
	pids, err := robotgo.FindIds(name)
	if err != nil {
		return nil, fmt.Errorf("查找进程失败: %w", err)
	}
	return pids, nil
}

// IsProcessRunning 检查进程是否正在运行
func IsProcessRunning(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

// ShellCommand 按当前平台选择命令：Windows 用 windowsCmd，其它平台用 unixCmd
func ShellCommand(windowsCmd, unixCmd string) (string, error) {
	if runtime.GOOS == "windows" {
		if windowsCmd == "" {
			return "", errors.New("未提供 Windows 命令")
		}
		return windowsCmd, nil
	}
	if unixCmd == "" {
		return "", errors.New("未提供 Unix 命令")
	}
	return unixCmd, nil
}

// shell 返回执行命令行的解释器参数
func shell(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}

// RunCommand 通过系统 shell 执行命令并等待退出
// 非零退出码不视为错误，由调用方检查 ExitStatus
func RunCommand(ctx context.Context, windowsCmd, unixCmd string) (*CommandOutput, error) {
	command, err := ShellCommand(windowsCmd, unixCmd)
	if err != nil {
		return nil, err
	}

	name, args := shell(command)
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	out := &CommandOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.ExitStatus = 0
	case errors.As(err, &exitErr):
		out.ExitStatus = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("执行命令失败: %w", err)
	}
	if ctx.Err() != nil {
		return out, fmt.Errorf("命令被取消: %w", ctx.Err())
	}
	return out, nil
}

// Start 启动进程后立即返回，不等待退出
func Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	HideWindow(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动 %s 失败: %w", name, err)
	}
	go cmd.Wait()
	return nil
}
