package desktop_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/config"
	"github.com/zoeyai/uiauto/pkg/desktop"
	"github.com/zoeyai/uiauto/pkg/ocr"
	"github.com/zoeyai/uiauto/pkg/overlay"
	"github.com/zoeyai/uiauto/pkg/uia"
	"github.com/zoeyai/uiauto/pkg/uia/uiatest"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type stubRecognizer struct {
	results []ocr.Result
	bounds  image.Rectangle
}

func (s *stubRecognizer) Recognize(img image.Image) ([]ocr.Result, error) {
	s.bounds = img.Bounds()
	return append([]ocr.Result(nil), s.results...), nil
}

func (s *stubRecognizer) Close() error { return nil }

type nopRenderer struct{ frames int }

func (r *nopRenderer) Render(overlay.Frame) error { r.frames++; return nil }
func (r *nopRenderer) Clear() error               { return nil }
func (r *nopRenderer) Close() error               { return nil }

type fixture struct {
	desk    *desktop.Desktop
	backend *uiatest.Backend
	actions *uiatest.Actions
	logs    *syncBuffer
}

func newFixture(t *testing.T, opts ...desktop.Option) *fixture {
	t.Helper()
	root := uiatest.Desktop(
		uiatest.App("Notepad", 100,
			uiatest.Window("Untitled - Notepad", uia.Rect{Width: 800, Height: 600},
				uiatest.Button("OK", uia.Rect{X: 10, Y: 10, Width: 80, Height: 30}),
			),
		),
		uiatest.App("Chrome", 200,
			uiatest.Window("GitHub - Google Chrome", uia.Rect{Width: 1024, Height: 768}),
		),
	)
	cfg := uia.DefaultConfig()
	cfg.Locator.Timeout = 200 * time.Millisecond
	cfg.Locator.PollInterval = 10 * time.Millisecond
	engine, backend, actions := uiatest.NewEngine(root, cfg)
	actions.Screen = image.NewRGBA(image.Rect(0, 0, 200, 100))

	logs := &syncBuffer{}
	log := logger.New()
	log.SetOutput(logs)
	log.SetLevel(logger.DEBUG)

	all := append([]desktop.Option{desktop.WithEngine(engine), desktop.WithLogger(log)}, opts...)
	d, err := desktop.New(cfg, all...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return &fixture{desk: d, backend: backend, actions: actions, logs: logs}
}

func TestDesktopDelegates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	apps, err := f.desk.Applications()
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	app, err := f.desk.Application("notepad")
	require.NoError(t, err)
	name, _ := app.Name()
	assert.Equal(t, "Notepad", name)

	ok, err := f.desk.Locator("role=button AND name=OK").First()
	require.NoError(t, err)
	assert.Equal(t, "desktop/application[Notepad]/window[Untitled - Notepad]/button[OK]", ok.HierarchyPath(0))

	w, err := f.desk.FindWindowByCriteria(ctx, "github", time.Second)
	require.NoError(t, err)
	title, _ := w.Name()
	assert.Equal(t, "GitHub - Google Chrome", title)

	require.NoError(t, f.desk.OpenApplication("Calculator"))
	require.NoError(t, f.desk.OpenURL("https://example.com", ""))
	assert.NotEmpty(t, f.actions.CallsTo("OpenApplication"))
	assert.NotEmpty(t, f.actions.CallsTo("OpenURL"))

	shot, err := f.desk.CaptureScreen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, shot.Width)

	_, err = f.desk.CaptureMonitorByName(ctx, "display-9")
	assert.ErrorIs(t, err, uia.ErrNotFound)

	assert.NotNil(t, f.desk.Root())
}

func TestDesktopLogsDuration(t *testing.T) {
	f := newFixture(t)
	_, err := f.desk.Applications()
	require.NoError(t, err)

	out := f.logs.String()
	assert.Contains(t, out, "Applications 完成")
	assert.Contains(t, out, "duration_ms=")
}

func TestDesktopErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	f.actions.Errors["ActivateApplication"] = errors.New("拒绝访问")

	err := f.desk.ActivateApplication("Notepad")
	assert.ErrorIs(t, err, uia.ErrInternal)

	_, err = f.desk.Application("Safari")
	assert.ErrorIs(t, err, uia.ErrNotFound)
}

func TestVisualizationWithoutOverlay(t *testing.T) {
	f := newFixture(t)
	ok, err := f.desk.Locator("name=OK").First()
	require.NoError(t, err)

	assert.Equal(t, 0, f.desk.HighlightElements([]*uia.Element{ok}, nil, nil))
	f.desk.ShowPopup("hello", time.Second, nil)
	f.desk.ClearVisualizations()
	f.desk.StartVisualization()
	assert.False(t, f.desk.ToggleVisualization())
	assert.False(t, f.desk.VisualizationEnabled())

	assert.Contains(t, f.logs.String(), "未配置叠加层")
}

func TestVisualizationWithOverlay(t *testing.T) {
	r := &nopRenderer{}
	o := overlay.New(r, overlay.WithFrameInterval(time.Hour))
	f := newFixture(t, desktop.WithOverlay(o))
	ok, err := f.desk.Locator("name=OK").First()
	require.NoError(t, err)

	assert.Equal(t, 0, f.desk.HighlightElements([]*uia.Element{ok}, nil, nil), "未开启时不绘制")
	assert.Contains(t, f.logs.String(), "叠加层未开启")

	f.desk.StartVisualization()
	assert.True(t, f.desk.VisualizationEnabled())
	assert.Equal(t, 1, f.desk.HighlightElements([]*uia.Element{ok}, nil, nil))
	f.desk.ShowPopup("完成", time.Second, nil)
	assert.Len(t, o.Frame().Popups, 1)
	f.desk.ClearVisualizations()
	assert.True(t, o.Frame().Empty())

	assert.False(t, f.desk.ToggleVisualization())
	f.desk.StopVisualization()
	assert.False(t, f.desk.VisualizationEnabled())
}

func TestDesktopOCR(t *testing.T) {
	rec := &stubRecognizer{results: []ocr.Result{{Text: "确定", Confidence: 0.9, Position: ocr.Point{X: 20, Y: 10}}}}
	f := newFixture(t, desktop.WithOCR(ocr.New(ocr.Config{}, ocr.WithRecognizer(rec), ocr.WithGrayscale(false))))
	ctx := context.Background()

	shot, err := f.desk.CaptureScreen(ctx)
	require.NoError(t, err)
	text, err := f.desk.OCRScreenshot(ctx, shot)
	require.NoError(t, err)
	assert.Equal(t, "确定", text)

	ok, err := f.desk.Locator("name=OK").First()
	require.NoError(t, err)
	text, err = f.desk.OCRElement(ctx, ok)
	require.NoError(t, err)
	assert.Equal(t, "确定", text)
	assert.Equal(t, image.Rect(0, 0, 80, 30), rec.bounds, "只识别元素范围")
}

func TestEngineConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.Desktop.UseBackgroundApps = true
	c.Locator.Timeout = config.Duration(5 * time.Second)

	cfg := desktop.EngineConfig(c)
	assert.True(t, cfg.UseBackgroundApps)
	assert.True(t, cfg.ActivateApp)
	assert.Equal(t, 5*time.Second, cfg.Locator.Timeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Locator.PollInterval)
}
