// Package desktop 自动化会话入口
//
// Desktop 组合一个无障碍引擎、可选的叠加层和 OCR 服务，每次调用记录耗时。
package desktop

import (
	"context"
	"errors"
	"time"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/config"
	"github.com/zoeyai/uiauto/pkg/ocr"
	"github.com/zoeyai/uiauto/pkg/overlay"
	"github.com/zoeyai/uiauto/pkg/process"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// Option 会话选项
type Option func(*Desktop)

// WithEngine 使用已创建的引擎，Close 时不会关闭它
func WithEngine(engine *uia.Engine) Option {
	return func(d *Desktop) {
		d.engine = engine
	}
}

// WithOverlay 启用叠加层
func WithOverlay(o *overlay.Overlay) Option {
	return func(d *Desktop) {
		d.overlay = o
	}
}

// WithOCR 使用指定 OCR 服务
func WithOCR(s *ocr.Service) Option {
	return func(d *Desktop) {
		d.ocr = s
	}
}

// WithLogger 指定日志
func WithLogger(l *logger.Logger) Option {
	return func(d *Desktop) {
		d.log = l
	}
}

// Desktop 自动化会话
type Desktop struct {
	engine    *uia.Engine
	ownEngine bool
	overlay   *overlay.Overlay
	ocr       *ocr.Service
	log       *logger.Logger
}

// EngineConfig 由配置文件构造引擎配置
func EngineConfig(c *config.Config) uia.Config {
	cfg := uia.DefaultConfig()
	cfg.UseBackgroundApps = c.Desktop.UseBackgroundApps
	cfg.ActivateApp = c.Desktop.ActivateApp
	cfg.Locator = *uia.ApplyOptions(nil,
		uia.WithTimeout(c.Locator.Timeout.Std()),
		uia.WithPollInterval(c.Locator.PollInterval.Std()),
	)
	return cfg
}

// New 创建会话；未指定引擎时创建当前平台引擎
func New(cfg uia.Config, opts ...Option) (*Desktop, error) {
	d := &Desktop{}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Default()
	}
	if d.engine == nil {
		start := time.Now()
		engine, err := uia.New(cfg)
		if err != nil {
			return nil, err
		}
		d.engine = engine
		d.ownEngine = true
		d.log.With("duration_ms", time.Since(start).Milliseconds()).Info("无障碍引擎已创建: %s", engine.Name())
	}
	if d.ocr == nil {
		d.ocr = ocr.New(ocr.DefaultConfig())
	}
	return d, nil
}

// timed 返回在调用结束时记录耗时的函数
func (d *Desktop) timed(op string) func() {
	start := time.Now()
	return func() {
		d.log.With("op", op, "duration_ms", time.Since(start).Milliseconds()).Debug("%s 完成", op)
	}
}

// Engine 底层无障碍引擎
func (d *Desktop) Engine() *uia.Engine { return d.engine }

// Overlay 叠加层，未启用时为 nil
func (d *Desktop) Overlay() *overlay.Overlay { return d.overlay }

// Root 桌面根元素
func (d *Desktop) Root() *uia.Element {
	defer d.timed("Root")()
	return d.engine.Root()
}

// Locator 从桌面根开始的定位器
func (d *Desktop) Locator(selector string, opts ...uia.Option) *uia.Locator {
	defer d.timed("Locator")()
	return d.engine.Locator(selector, opts...)
}

// FocusedElement 当前焦点元素
func (d *Desktop) FocusedElement() (*uia.Element, error) {
	defer d.timed("FocusedElement")()
	return d.engine.FocusedElement()
}

// Applications 正在运行的应用
func (d *Desktop) Applications() ([]*uia.Element, error) {
	defer d.timed("Applications")()
	return d.engine.Applications()
}

// Application 按名称查找应用
func (d *Desktop) Application(name string) (*uia.Element, error) {
	defer d.timed("Application")()
	return d.engine.ApplicationByName(name)
}

// OpenApplication 打开应用
func (d *Desktop) OpenApplication(name string) error {
	defer d.timed("OpenApplication")()
	return d.engine.OpenApplication(name)
}

// ActivateApplication 激活应用
func (d *Desktop) ActivateApplication(name string) error {
	defer d.timed("ActivateApplication")()
	return d.engine.ActivateApplication(name)
}

// OpenURL 打开网址
func (d *Desktop) OpenURL(url, browser string) error {
	defer d.timed("OpenURL")()
	return d.engine.OpenURL(url, browser)
}

// OpenFile 打开文件
func (d *Desktop) OpenFile(path string) error {
	defer d.timed("OpenFile")()
	return d.engine.OpenFile(path)
}

// RunCommand 执行命令
func (d *Desktop) RunCommand(ctx context.Context, windowsCmd, unixCmd string) (*process.CommandOutput, error) {
	defer d.timed("RunCommand")()
	return d.engine.RunCommand(ctx, windowsCmd, unixCmd)
}

// CaptureScreen 截取主屏幕
func (d *Desktop) CaptureScreen(ctx context.Context) (*uia.ScreenshotResult, error) {
	defer d.timed("CaptureScreen")()
	return d.engine.CaptureScreen(ctx)
}

// CaptureMonitorByName 按名称截取显示器
func (d *Desktop) CaptureMonitorByName(ctx context.Context, name string) (*uia.ScreenshotResult, error) {
	defer d.timed("CaptureMonitorByName")()
	return d.engine.CaptureMonitorByName(ctx, name)
}

// OCRImagePath 识别图像文件中的文字
func (d *Desktop) OCRImagePath(ctx context.Context, path string) (string, error) {
	defer d.timed("OCRImagePath")()
	return d.ocr.ImagePath(ctx, path)
}

// OCRScreenshot 识别截图中的文字
func (d *Desktop) OCRScreenshot(ctx context.Context, shot *uia.ScreenshotResult) (string, error) {
	defer d.timed("OCRScreenshot")()
	return d.ocr.Screenshot(ctx, shot)
}

// OCRElement 截屏并识别元素范围内的文字
func (d *Desktop) OCRElement(ctx context.Context, el *uia.Element) (string, error) {
	defer d.timed("OCRElement")()
	bounds, err := el.Bounds()
	if err != nil {
		return "", uia.InternalError(err, "获取元素边界失败")
	}
	shot, err := d.engine.CaptureScreen(ctx)
	if err != nil {
		return "", err
	}
	return d.ocr.ScreenshotRegion(ctx, shot, bounds)
}

// ActivateBrowserWindowByTitle 激活标题匹配的浏览器窗口
func (d *Desktop) ActivateBrowserWindowByTitle(title string) error {
	defer d.timed("ActivateBrowserWindowByTitle")()
	return d.engine.ActivateBrowserWindowByTitle(title)
}

// FindWindowByCriteria 等待标题包含 titleContains 的窗口出现
func (d *Desktop) FindWindowByCriteria(ctx context.Context, titleContains string, timeout time.Duration) (*uia.Element, error) {
	defer d.timed("FindWindowByCriteria")()
	return d.engine.FindWindowByCriteria(ctx, titleContains, timeout)
}

// CurrentBrowserWindow 前台浏览器窗口
func (d *Desktop) CurrentBrowserWindow(ctx context.Context) (*uia.Element, error) {
	defer d.timed("CurrentBrowserWindow")()
	return d.engine.CurrentBrowserWindow(ctx)
}

// Close 释放会话资源
func (d *Desktop) Close() error {
	var errs []error
	if d.overlay != nil {
		errs = append(errs, d.overlay.Close())
	}
	if d.ocr != nil {
		errs = append(errs, d.ocr.Close())
	}
	if d.ownEngine {
		errs = append(errs, d.engine.Close())
	}
	return errors.Join(errs...)
}
