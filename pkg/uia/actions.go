package uia

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/pkg/browser"

	"github.com/zoeyai/uiauto/pkg/process"
)

// Actions 系统级操作：打开/激活应用、执行命令、截屏、鼠标键盘输入
type Actions interface {
	OpenApplication(name string) error
	ActivateApplication(name string) error
	OpenURL(url, browserName string) error
	OpenFile(path string) error
	RunCommand(ctx context.Context, windowsCmd, unixCmd string) (*process.CommandOutput, error)
	CaptureScreen(ctx context.Context) (*ScreenshotResult, error)
	CaptureMonitorByName(ctx context.Context, name string) (*ScreenshotResult, error)
	Click(x, y int, button string, double bool) error
	MoveMouse(x, y int) error
	TypeText(text string) error
	// ListWindows 列出标题或应用名包含 filter 的窗口
	ListWindows(filter string) ([]WindowInfo, error)
	ActivateWindow(pid int) error
}

// systemActions 基于 robotgo 的默认实现
type systemActions struct{}

// NewSystemActions 创建操作系统级操作
func NewSystemActions() Actions {
	return systemActions{}
}

// OpenApplication 启动应用后立即返回
func (systemActions) OpenApplication(name string) error {
	switch runtime.GOOS {
	case "windows":
		return process.Start("cmd", "/C", "start", "", name)
	case "darwin":
		return process.Start("open", "-a", name)
	default:
		return process.Start(name)
	}
}

// ActivateApplication 激活名称匹配的应用窗口
func (systemActions) ActivateApplication(name string) error {
	pids, err := robotgo.FindIds(name)
	if err == nil {
		for _, pid := range pids {
			if robotgo.GetTitle(pid) == "" {
				continue
			}
			if err := robotgo.ActivePid(pid); err == nil {
				return nil
			}
		}
	}
	if err := robotgo.ActiveName(name); err != nil {
		return NotFoundf("未找到应用窗口: %s", name)
	}
	return nil
}

// OpenURL 使用默认或指定浏览器打开网址
func (systemActions) OpenURL(url, browserName string) error {
	if browserName == "" {
		return browser.OpenURL(url)
	}
	switch runtime.GOOS {
	case "windows":
		return process.Start("cmd", "/C", "start", "", browserName, url)
	case "darwin":
		return process.Start("open", "-a", browserName, url)
	default:
		return process.Start(browserName, url)
	}
}

// OpenFile 使用默认程序打开文件
func (systemActions) OpenFile(path string) error {
	return browser.OpenFile(path)
}

func (systemActions) RunCommand(ctx context.Context, windowsCmd, unixCmd string) (*process.CommandOutput, error) {
	return process.RunCommand(ctx, windowsCmd, unixCmd)
}

// CaptureScreen 截取主显示器
func (systemActions) CaptureScreen(ctx context.Context) (*ScreenshotResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	return NewScreenshotResult(img), nil
}

// MonitorNames 显示器名称列表，形如 display-0、display-1
func MonitorNames() []string {
	n := robotgo.DisplaysNum()
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("display-%d", i)
	}
	return names
}

// monitorIndex 解析 display-N 或 N
func monitorIndex(name string) (int, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "display-")
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, NotFoundf("未知显示器: %s", name)
	}
	return idx, nil
}

// CaptureMonitorByName 按名称截取指定显示器
func (systemActions) CaptureMonitorByName(ctx context.Context, name string) (*ScreenshotResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := monitorIndex(name)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= robotgo.DisplaysNum() {
		return nil, NotFoundf("显示器不存在: %s (共 %d 个)", name, robotgo.DisplaysNum())
	}
	x, y, w, h := robotgo.GetDisplayBounds(idx)
	img, err := robotgo.CaptureImg(x, y, w, h)
	if err != nil {
		return nil, fmt.Errorf("截取显示器失败: %w", err)
	}
	return NewScreenshotResult(img), nil
}

func (systemActions) Click(x, y int, button string, double bool) error {
	robotgo.Move(x, y)
	robotgo.MilliSleep(20)
	robotgo.Click(button, double)
	return nil
}

func (systemActions) MoveMouse(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (systemActions) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}

// ListWindows 枚举拥有标题的进程窗口
func (systemActions) ListWindows(filter string) ([]WindowInfo, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	filter = strings.ToLower(filter)
	var windows []WindowInfo
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}
		name, _ := robotgo.FindName(pid)
		if filter != "" &&
			!strings.Contains(strings.ToLower(title), filter) &&
			!strings.Contains(strings.ToLower(name), filter) {
			continue
		}

		x, y, w, h := robotgo.GetBounds(pid)
		windows = append(windows, WindowInfo{
			PID:     pid,
			Title:   title,
			AppName: strings.TrimSuffix(name, ".exe"),
			Bounds:  Rect{X: x, Y: y, Width: w, Height: h},
		})
	}
	return windows, nil
}

func (systemActions) ActivateWindow(pid int) error {
	return robotgo.ActivePid(pid)
}
