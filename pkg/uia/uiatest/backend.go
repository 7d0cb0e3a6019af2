package uiatest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zoeyai/uiauto/pkg/process"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// Backend 基于内存树的后端
type Backend struct {
	root *Node

	// RootErr 非空时 Root 返回该错误
	RootErr error
	// Foreground 前台窗口，未设置时取第一个聚焦节点所在的窗口
	Foreground *uia.WindowInfo

	closed          atomic.Int32
	rootCalls       atomic.Int32
	foregroundCalls atomic.Int32
}

// NewBackend 创建后端
func NewBackend(root *Node) *Backend {
	return &Backend{root: root}
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) Root() (uia.Node, error) {
	b.rootCalls.Add(1)
	if b.RootErr != nil {
		return nil, b.RootErr
	}
	return b.root, nil
}

func (b *Backend) Focused() (uia.Node, error) {
	for n := range uia.Walk(b.root, 0) {
		if f, err := n.IsFocused(); err == nil && f {
			return n, nil
		}
	}
	return nil, errors.New("没有焦点元素")
}

func (b *Backend) Applications() ([]uia.Node, error) {
	return b.root.Children()
}

// NodeAtPoint 返回包含该点的最深层节点
func (b *Backend) NodeAtPoint(x, y int) (uia.Node, error) {
	var hit uia.Node
	for n := range uia.Descendants(b.root, 0) {
		if r, err := n.Bounds(); err == nil && r.Contains(x, y) {
			hit = n
		}
	}
	if hit == nil {
		return nil, fmt.Errorf("坐标 (%d,%d) 处没有元素", x, y)
	}
	return hit, nil
}

func (b *Backend) windowOf(app uia.Node) uia.WindowInfo {
	info := uia.WindowInfo{}
	info.AppName, _ = app.Name()
	info.PID, _ = app.ProcessID()
	if children, err := app.Children(); err == nil && len(children) > 0 {
		info.Title, _ = children[0].Name()
		info.Bounds, _ = children[0].Bounds()
	}
	return info
}

func (b *Backend) WindowOwner(pid int) (uia.WindowInfo, error) {
	apps, _ := b.root.Children()
	for _, app := range apps {
		if p, err := app.ProcessID(); err == nil && p == pid {
			return b.windowOf(app), nil
		}
	}
	return uia.WindowInfo{}, fmt.Errorf("PID=%d 没有窗口", pid)
}

func (b *Backend) ForegroundWindow() (uia.WindowInfo, error) {
	b.foregroundCalls.Add(1)
	if b.Foreground != nil {
		return *b.Foreground, nil
	}
	focused, err := b.Focused()
	if err != nil {
		return uia.WindowInfo{}, err
	}
	pid, _ := focused.ProcessID()
	return b.WindowOwner(pid)
}

// RootCalls Root 被调用的次数
func (b *Backend) RootCalls() int { return int(b.rootCalls.Load()) }

// ForegroundCalls ForegroundWindow 被调用的次数
func (b *Backend) ForegroundCalls() int { return int(b.foregroundCalls.Load()) }

func (b *Backend) Close() error {
	b.closed.Add(1)
	return nil
}

// Closed Close 调用次数
func (b *Backend) Closed() int {
	return int(b.closed.Load())
}

// Call 一次系统操作调用
type Call struct {
	Method string
	Args   []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Method + "(" + strings.Join(args, ", ") + ")"
}

// Actions 记录调用的系统操作替身
type Actions struct {
	mu    sync.Mutex
	calls []Call

	// Errors 按方法名返回的错误
	Errors map[string]error
	// Windows ListWindows 的数据源
	Windows []uia.WindowInfo
	// Screen 截屏结果，默认 4x4 空白图
	Screen image.Image
	// Monitors 可用显示器名称
	Monitors []string
	// Output RunCommand 的输出
	Output *process.CommandOutput
}

// NewActions 创建替身
func NewActions() *Actions {
	return &Actions{
		Errors:   map[string]error{},
		Monitors: []string{"display-0"},
		Output:   &process.CommandOutput{},
	}
}

func (a *Actions) record(method string, args ...any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, Call{Method: method, Args: args})
	return a.Errors[method]
}

// Calls 返回所有调用记录
func (a *Actions) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// CallsTo 返回指定方法的调用记录
func (a *Actions) CallsTo(method string) []Call {
	var out []Call
	for _, c := range a.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Reset 清空调用记录
func (a *Actions) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = nil
}

func (a *Actions) OpenApplication(name string) error {
	return a.record("OpenApplication", name)
}

func (a *Actions) ActivateApplication(name string) error {
	return a.record("ActivateApplication", name)
}

func (a *Actions) OpenURL(url, browserName string) error {
	return a.record("OpenURL", url, browserName)
}

func (a *Actions) OpenFile(path string) error {
	return a.record("OpenFile", path)
}

func (a *Actions) RunCommand(ctx context.Context, windowsCmd, unixCmd string) (*process.CommandOutput, error) {
	if err := a.record("RunCommand", windowsCmd, unixCmd); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := *a.Output
	return &out, nil
}

func (a *Actions) screen() *uia.ScreenshotResult {
	img := a.Screen
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, 4, 4))
	}
	return uia.NewScreenshotResult(img)
}

func (a *Actions) CaptureScreen(ctx context.Context) (*uia.ScreenshotResult, error) {
	if err := a.record("CaptureScreen"); err != nil {
		return nil, err
	}
	return a.screen(), ctx.Err()
}

func (a *Actions) CaptureMonitorByName(ctx context.Context, name string) (*uia.ScreenshotResult, error) {
	if err := a.record("CaptureMonitorByName", name); err != nil {
		return nil, err
	}
	for _, m := range a.Monitors {
		if m == name {
			return a.screen(), ctx.Err()
		}
	}
	return nil, uia.NotFoundf("未找到显示器: %s", name)
}

func (a *Actions) Click(x, y int, button string, double bool) error {
	return a.record("Click", x, y, button, double)
}

func (a *Actions) MoveMouse(x, y int) error {
	return a.record("MoveMouse", x, y)
}

func (a *Actions) TypeText(text string) error {
	return a.record("TypeText", text)
}

func (a *Actions) ListWindows(filter string) ([]uia.WindowInfo, error) {
	if err := a.record("ListWindows", filter); err != nil {
		return nil, err
	}
	want := strings.ToLower(filter)
	var out []uia.WindowInfo
	for _, w := range a.Windows {
		if strings.Contains(strings.ToLower(w.Title), want) || strings.Contains(strings.ToLower(w.AppName), want) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (a *Actions) ActivateWindow(pid int) error {
	return a.record("ActivateWindow", pid)
}

// NewEngine 用内存树和调用记录替身创建引擎
func NewEngine(root *Node, cfg uia.Config) (*uia.Engine, *Backend, *Actions) {
	backend := NewBackend(root)
	actions := NewActions()
	return uia.NewEngine(backend, actions, cfg), backend, actions
}
