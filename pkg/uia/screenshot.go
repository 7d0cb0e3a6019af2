package uia

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
)

// ScreenshotResult 截图结果，ImageData 为 RGBA 原始像素
type ScreenshotResult struct {
	ImageData []byte `json:"-"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// NewScreenshotResult 由图像构造截图结果
func NewScreenshotResult(img image.Image) *ScreenshotResult {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &ScreenshotResult{
		ImageData: rgba.Pix,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
}

// Image 转换为 image.RGBA（共享底层像素）
func (s *ScreenshotResult) Image() (*image.RGBA, error) {
	if s == nil || s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("截图为空")
	}
	if len(s.ImageData) != s.Width*s.Height*4 {
		return nil, fmt.Errorf("截图数据长度不匹配: %d != %dx%dx4", len(s.ImageData), s.Width, s.Height)
	}
	return &image.RGBA{
		Pix:    s.ImageData,
		Stride: s.Width * 4,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}, nil
}

// Encode 编码为 png 或 jpeg
func (s *ScreenshotResult) Encode(format string, quality int) ([]byte, error) {
	img, err := s.Image()
	if err != nil {
		return nil, err
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	var buf bytes.Buffer
	switch format {
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("PNG 编码失败: %w", err)
		}
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("JPEG 编码失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的图像格式: %s", format)
	}
	return buf.Bytes(), nil
}

// Base64 编码为 data URL
func (s *ScreenshotResult) Base64(format string, quality int) (string, error) {
	data, err := s.Encode(format, quality)
	if err != nil {
		return "", err
	}
	mime := "image/png"
	if format == "jpeg" || format == "jpg" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

// SavePNG 保存为 PNG 文件
func (s *ScreenshotResult) SavePNG(path string) error {
	data, err := s.Encode("png", 0)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("保存截图失败: %w", err)
	}
	return nil
}
