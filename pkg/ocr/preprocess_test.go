package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/uia"
)

func TestPreprocessCropGray(t *testing.T) {
	img := blank(100, 80)
	img.Set(25, 15, color.RGBA{R: 255, A: 255})

	out, err := Preprocess(img, image.Rect(20, 10, 60, 40), true)
	require.NoError(t, err)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
	_, isGray := out.(*image.Gray)
	assert.True(t, isGray, "灰度输出")
}

func TestPreprocessClipsRegion(t *testing.T) {
	out, err := Preprocess(blank(50, 50), image.Rect(30, 30, 500, 500), false)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())

	_, err = Preprocess(blank(50, 50), image.Rect(100, 100, 120, 120), false)
	assert.Error(t, err, "区域完全在图像外")
}

func TestScreenshotRegionOffsets(t *testing.T) {
	rec := &fakeRecognizer{results: []Result{word("OK", 20, 10)}}
	svc := New(Config{}, WithRecognizer(rec))

	shot := uia.NewScreenshotResult(blank(300, 200))
	results, err := svc.Recognize(context.Background(), blank(300, 200), image.Rect(100, 50, 180, 80))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Point{X: 120, Y: 60}, results[0].Position, "结果坐标换算回原图")
	assert.Equal(t, image.Rect(0, 0, 80, 30), rec.last)

	text, err := svc.ScreenshotRegion(context.Background(), shot, uia.Rect{X: 100, Y: 50, Width: 80, Height: 30})
	require.NoError(t, err)
	assert.Equal(t, "OK", text)

	_, err = svc.ScreenshotRegion(context.Background(), shot, uia.Rect{})
	assert.Error(t, err)
}
