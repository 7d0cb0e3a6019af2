package uia

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/process"
)

// Backend 平台无障碍后端，每个操作系统一个实现
//
// 实现必须可以在系统钩子回调线程中调用 NodeAtPoint，不得持有可重入的全局锁。
type Backend interface {
	Name() string
	Root() (Node, error)
	Focused() (Node, error)
	Applications() ([]Node, error)
	NodeAtPoint(x, y int) (Node, error)
	// WindowOwner 查找进程的主窗口及其所属应用
	WindowOwner(pid int) (WindowInfo, error)
	ForegroundWindow() (WindowInfo, error)
	Close() error
}

// WindowInfo 窗口信息
type WindowInfo struct {
	PID     int    `json:"pid"`
	Title   string `json:"title"`
	AppName string `json:"app_name"`
	Bounds  Rect   `json:"bounds"`
}

// Config 引擎配置
type Config struct {
	// UseBackgroundApps 枚举应用时包含没有窗口的后台应用
	UseBackgroundApps bool
	// ActivateApp 打开应用后将其置于前台
	ActivateApp bool
	// Locator 定位器默认等待策略
	Locator Options
}

// DefaultConfig 默认引擎配置
func DefaultConfig() Config {
	return Config{
		ActivateApp: true,
		Locator:     *DefaultOptions(),
	}
}

// Engine 无障碍引擎：平台后端 + 系统操作
//
// 引擎不保存任何影响查询结果的可变状态，可在多个 goroutine 间共享。
type Engine struct {
	backend Backend
	actions Actions
	cfg     Config
}

// New 为当前平台创建引擎，不支持的平台返回 PlatformNotSupported
func New(cfg Config) (*Engine, error) {
	backend, err := newPlatformBackend(cfg)
	if err != nil {
		return nil, err
	}
	return NewEngine(backend, NewSystemActions(), cfg), nil
}

// NewEngine 使用指定后端和系统操作创建引擎
func NewEngine(backend Backend, actions Actions, cfg Config) *Engine {
	if cfg.Locator.PollInterval <= 0 {
		cfg.Locator.PollInterval = DefaultPollInterval
	}
	if cfg.Locator.Timeout <= 0 && !cfg.Locator.explicitTimeout {
		cfg.Locator.Timeout = DefaultTimeout
	}
	return &Engine{backend: backend, actions: actions, cfg: cfg}
}

// Name 后端名称
func (e *Engine) Name() string { return e.backend.Name() }

// Backend 返回平台后端
func (e *Engine) Backend() Backend { return e.backend }

// Actions 返回系统操作
func (e *Engine) Actions() Actions { return e.actions }

// Config 返回引擎配置
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) locatorDefaults() *Options {
	o := e.cfg.Locator
	return &o
}

func (e *Engine) wrap(n Node) *Element {
	return &Element{node: n, engine: e}
}

// rootNode 获取根节点，失败时返回空根节点
func (e *Engine) rootNode() Node {
	root, err := e.backend.Root()
	if err != nil || root == nil {
		logger.Warn("获取根元素失败，使用空根节点: %v", err)
		return nullNode{}
	}
	return root
}

// Root 桌面根元素，永不失败
func (e *Engine) Root() *Element {
	return e.wrap(e.rootNode())
}

// Locator 创建定位器
func (e *Engine) Locator(selector string, opts ...Option) *Locator {
	return NewLocator(e, selector, opts...)
}

// FocusedElement 当前拥有键盘焦点的元素
func (e *Engine) FocusedElement() (*Element, error) {
	n, err := e.backend.Focused()
	if err != nil || n == nil {
		return nil, &AutomationError{Kind: KindNotFound, Message: "未找到焦点元素", Err: err}
	}
	return e.wrap(n), nil
}

// Applications 枚举应用
// 未开启 UseBackgroundApps 时过滤掉没有任何子窗口的应用
func (e *Engine) Applications() ([]*Element, error) {
	nodes, err := e.backend.Applications()
	if err != nil {
		return nil, InternalError(err, "获取应用列表失败")
	}
	if !e.cfg.UseBackgroundApps {
		nodes = lo.Filter(nodes, func(n Node, _ int) bool {
			children, err := n.Children()
			return err == nil && len(children) > 0
		})
	}
	return lo.Map(nodes, func(n Node, _ int) *Element { return e.wrap(n) }), nil
}

// ApplicationByName 按名称查找应用
// 先比较应用元素名称（不区分大小写），再比较所属进程名
func (e *Engine) ApplicationByName(name string) (*Element, error) {
	apps, err := e.Applications()
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(strings.TrimSuffix(name, ".exe"))

	if app, ok := lo.Find(apps, func(a *Element) bool {
		n, err := a.Name()
		return err == nil && strings.ToLower(n) == want
	}); ok {
		return app, nil
	}

	if app, ok := lo.Find(apps, func(a *Element) bool {
		n, err := a.Name()
		return err == nil && n != "" && strings.Contains(strings.ToLower(n), want)
	}); ok {
		return app, nil
	}

	if app, ok := lo.Find(apps, func(a *Element) bool {
		pid, err := a.ProcessID()
		if err != nil || pid <= 0 {
			return false
		}
		procName, err := process.Name(pid)
		return err == nil && strings.ToLower(procName) == want
	}); ok {
		return app, nil
	}

	return nil, NotFoundf("未找到应用: %s", name)
}

// ElementAtPoint 屏幕坐标处的元素
func (e *Engine) ElementAtPoint(x, y int) (*Element, bool) {
	n, err := e.backend.NodeAtPoint(x, y)
	if err != nil || n == nil {
		return nil, false
	}
	return e.wrap(n), true
}

// WindowOwner 进程主窗口及应用名
func (e *Engine) WindowOwner(pid int) (WindowInfo, error) {
	info, err := e.backend.WindowOwner(pid)
	if err != nil {
		return WindowInfo{}, NotFoundf("未找到 PID=%d 的窗口: %v", pid, err)
	}
	if info.AppName == "" {
		info.AppName, _ = process.Name(pid)
	}
	return info, nil
}

// ForegroundWindow 当前前台窗口
func (e *Engine) ForegroundWindow() (WindowInfo, error) {
	info, err := e.backend.ForegroundWindow()
	if err != nil {
		return WindowInfo{}, NotFoundf("未找到前台窗口: %v", err)
	}
	if info.AppName == "" && info.PID > 0 {
		info.AppName, _ = process.Name(info.PID)
	}
	return info, nil
}

// OpenApplication 打开应用，配置了 ActivateApp 时尝试置于前台
func (e *Engine) OpenApplication(name string) error {
	if err := e.actions.OpenApplication(name); err != nil {
		return asInternal(err, "打开应用 %s 失败", name)
	}
	if e.cfg.ActivateApp {
		if err := e.actions.ActivateApplication(name); err != nil {
			logger.Debug("打开后激活应用 %s 失败: %v", name, err)
		}
	}
	return nil
}

// ActivateApplication 激活应用
func (e *Engine) ActivateApplication(name string) error {
	if err := e.actions.ActivateApplication(name); err != nil {
		return asInternal(err, "激活应用 %s 失败", name)
	}
	return nil
}

// OpenURL 打开网址，browser 为空时使用默认浏览器
func (e *Engine) OpenURL(url, browser string) error {
	if err := e.actions.OpenURL(url, browser); err != nil {
		return asInternal(err, "打开网址 %s 失败", url)
	}
	return nil
}

// OpenFile 使用默认程序打开文件
func (e *Engine) OpenFile(path string) error {
	if err := e.actions.OpenFile(path); err != nil {
		return asInternal(err, "打开文件 %s 失败", path)
	}
	return nil
}

// RunCommand 执行命令，Windows 上使用 windowsCmd，其它平台使用 unixCmd
func (e *Engine) RunCommand(ctx context.Context, windowsCmd, unixCmd string) (*process.CommandOutput, error) {
	out, err := e.actions.RunCommand(ctx, windowsCmd, unixCmd)
	if err != nil {
		return out, asInternal(err, "执行命令失败")
	}
	return out, nil
}

// CaptureScreen 截取主屏幕
func (e *Engine) CaptureScreen(ctx context.Context) (*ScreenshotResult, error) {
	shot, err := e.actions.CaptureScreen(ctx)
	if err != nil {
		return nil, asInternal(err, "截屏失败")
	}
	return shot, nil
}

// CaptureMonitorByName 按显示器名称截屏
func (e *Engine) CaptureMonitorByName(ctx context.Context, name string) (*ScreenshotResult, error) {
	shot, err := e.actions.CaptureMonitorByName(ctx, name)
	if err != nil {
		return nil, asInternal(err, "截取显示器 %s 失败", name)
	}
	return shot, nil
}

// FindWindowByCriteria 轮询查找标题包含 titleContains 的顶层窗口
func (e *Engine) FindWindowByCriteria(ctx context.Context, titleContains string, timeout time.Duration) (*Element, error) {
	if timeout <= 0 {
		timeout = e.cfg.Locator.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	want := strings.ToLower(titleContains)
	for {
		if w := e.findWindow(want); w != nil {
			return w, nil
		}
		select {
		case <-ctx.Done():
			return nil, Timeoutf("window title contains "+quoteValue(titleContains), "查找窗口超时 (%v)", timeout)
		case <-time.After(e.cfg.Locator.PollInterval):
		}
	}
}

func (e *Engine) findWindow(want string) *Element {
	apps, err := e.backend.Applications()
	if err != nil {
		return nil
	}
	for _, app := range apps {
		windows, err := app.Children()
		if err != nil {
			continue
		}
		for _, w := range windows {
			title, err := w.Name()
			if err != nil {
				continue
			}
			if want == "" || strings.Contains(strings.ToLower(title), want) {
				return e.wrap(w)
			}
		}
	}
	return nil
}

// knownBrowsers 常见浏览器进程名
var knownBrowsers = []string{
	"chrome", "msedge", "firefox", "safari", "brave", "opera", "chromium", "vivaldi", "arc",
	"google chrome", "microsoft edge",
}

// IsBrowser 判断应用名是否为浏览器
func IsBrowser(appName string) bool {
	name := strings.ToLower(strings.TrimSuffix(appName, ".exe"))
	return lo.ContainsBy(knownBrowsers, func(b string) bool {
		return strings.Contains(name, b)
	})
}

// ActivateBrowserWindowByTitle 激活标题包含 title 的浏览器窗口
func (e *Engine) ActivateBrowserWindowByTitle(title string) error {
	windows, err := e.actions.ListWindows(title)
	if err != nil {
		return asInternal(err, "枚举窗口失败")
	}
	w, ok := lo.Find(windows, func(w WindowInfo) bool { return IsBrowser(w.AppName) })
	if !ok {
		return NotFoundf("未找到标题包含 %q 的浏览器窗口", title)
	}
	if err := e.actions.ActivateWindow(w.PID); err != nil {
		return asInternal(err, "激活浏览器窗口失败")
	}
	return nil
}

// CurrentBrowserWindow 前台浏览器窗口对应的元素
func (e *Engine) CurrentBrowserWindow(ctx context.Context) (*Element, error) {
	fg, err := e.ForegroundWindow()
	if err != nil {
		return nil, err
	}
	if !IsBrowser(fg.AppName) {
		return nil, NotFoundf("前台窗口不是浏览器: %s", fg.AppName)
	}
	w, err := e.FindWindowByCriteria(ctx, fg.Title, e.cfg.Locator.PollInterval)
	if err != nil {
		return nil, NotFoundf("未找到浏览器窗口元素: %s", fg.Title)
	}
	return w, nil
}

// Close 释放后端资源
func (e *Engine) Close() error {
	return e.backend.Close()
}

// asInternal 非 AutomationError 的错误统一归为 InternalError
func asInternal(err error, format string, args ...any) error {
	if KindOf(err) != 0 {
		return err
	}
	return InternalError(err, format, args...)
}
