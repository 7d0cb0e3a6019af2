package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/uia"
)

type fakeRecognizer struct {
	results []Result
	err     error
	calls   int
	last    image.Rectangle
	closed  bool
}

func (f *fakeRecognizer) Recognize(img image.Image) ([]Result, error) {
	f.calls++
	f.last = img.Bounds()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Result, len(f.results))
	copy(out, f.results)
	return out, nil
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

func word(text string, x, y int) Result {
	return Result{
		Text:       text,
		Confidence: 0.9,
		Position:   Point{X: x, Y: y},
		Box:        []Point{{X: x - 10, Y: y - 8}, {X: x - 10, Y: y + 8}, {X: x + 10, Y: y + 8}, {X: x + 10, Y: y - 8}},
	}
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestJoinTextReadingOrder(t *testing.T) {
	results := []Result{
		word("世界", 120, 22),
		word("第二行", 40, 60),
		word("你好", 40, 20),
		{Text: "  ", Position: Point{X: 0, Y: 0}},
	}
	assert.Equal(t, "你好 世界\n第二行", JoinText(results))
	assert.Equal(t, "", JoinText(nil))
}

func TestServiceScreenshot(t *testing.T) {
	rec := &fakeRecognizer{results: []Result{word("确定", 50, 20)}}
	svc := New(Config{}, WithRecognizer(rec), WithGrayscale(false))

	shot := uia.NewScreenshotResult(blank(200, 100))
	text, err := svc.Screenshot(context.Background(), shot)
	require.NoError(t, err)
	assert.Equal(t, "确定", text)
	assert.Equal(t, image.Rect(0, 0, 200, 100), rec.last, "未指定区域时识别整幅图像")

	_, err = svc.Screenshot(context.Background(), &uia.ScreenshotResult{})
	assert.Error(t, err, "空截图")
}

func TestServiceMinConfidence(t *testing.T) {
	low := word("噪声", 10, 10)
	low.Confidence = 0.2
	rec := &fakeRecognizer{results: []Result{low, word("保存", 60, 10)}}
	svc := New(Config{MinConfidence: 0.5}, WithRecognizer(rec), WithGrayscale(false))

	text, err := svc.Text(context.Background(), blank(100, 40), image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, "保存", text)
}

func TestServiceImagePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, blank(30, 30)))
	require.NoError(t, f.Close())

	rec := &fakeRecognizer{results: []Result{word("abc", 5, 5)}}
	svc := New(Config{}, WithRecognizer(rec), WithGrayscale(false))

	text, err := svc.ImagePath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "abc", text)

	_, err = svc.ImagePath(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestServiceFindText(t *testing.T) {
	rec := &fakeRecognizer{results: []Result{word("File", 10, 10), word("Save As", 80, 10)}}
	svc := New(Config{}, WithRecognizer(rec), WithGrayscale(false))
	ctx := context.Background()

	p, err := svc.FindText(ctx, blank(100, 20), "save")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, Point{X: 80, Y: 10}, *p)

	p, err = svc.FindText(ctx, blank(100, 20), "退出")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = svc.FindText(ctx, blank(100, 20), "")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestServiceErrors(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("模型异常")}
	svc := New(Config{}, WithRecognizer(rec), WithGrayscale(false))
	_, err := svc.Text(context.Background(), blank(10, 10), image.Rectangle{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Text(ctx, blank(10, 10), image.Rectangle{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, rec.calls, "ctx 取消后不再识别")

	require.NoError(t, svc.Close())
	assert.True(t, rec.closed)
}

func TestServiceUnavailable(t *testing.T) {
	svc := New(Config{DetModelPath: "/nonexistent/det.onnx"})
	_, err := svc.Text(context.Background(), blank(10, 10), image.Rectangle{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Text(context.Background(), blank(10, 10), image.Rectangle{})
	assert.ErrorIs(t, err, ErrUnavailable, "初始化失败被缓存")
	assert.NoError(t, svc.Close())
}

func TestShiftResult(t *testing.T) {
	r := shift(word("x", 10, 10), image.Pt(100, 50))
	assert.Equal(t, Point{X: 110, Y: 60}, r.Position)
	assert.Equal(t, Point{X: 100, Y: 52}, r.Box[0])
}

func TestConfigAvailable(t *testing.T) {
	assert.False(t, Config{}.Available())

	dir := t.TempDir()
	files := []string{"lib.so", "det.onnx", "rec.onnx", "dict.txt"}
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	cfg := Config{
		OnnxRuntimeLibPath: filepath.Join(dir, "lib.so"),
		DetModelPath:       filepath.Join(dir, "det.onnx"),
		RecModelPath:       filepath.Join(dir, "rec.onnx"),
		DictPath:           filepath.Join(dir, "dict.txt"),
	}
	assert.True(t, cfg.Available())
}

// TestPaddleRecognizer 需要本地模型文件
func TestPaddleRecognizer(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Available() {
		t.Skip("跳过测试：未找到 OCR 模型")
	}
	rec, err := NewPaddleRecognizer(cfg)
	require.NoError(t, err)
	defer rec.Close()

	img := blank(200, 60)
	img.Set(10, 10, color.Black)
	_, err = rec.Recognize(img)
	assert.NoError(t, err)
}
