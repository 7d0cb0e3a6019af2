// Package ocr 屏幕文字识别
//
// 基本用法:
//
//	svc := ocr.New(ocr.DefaultConfig())
//	defer svc.Close()
//	text, err := svc.ImagePath(ctx, "screen.png")
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// ErrUnavailable 未找到模型文件
var ErrUnavailable = errors.New("OCR 模型不可用")

// Option 服务选项
type Option func(*Service)

// WithRecognizer 使用指定识别器，不再加载模型
func WithRecognizer(r Recognizer) Option {
	return func(s *Service) {
		s.recognizer = r
	}
}

// WithGrayscale 识别前是否转为灰度，默认开启
func WithGrayscale(gray bool) Option {
	return func(s *Service) {
		s.gray = gray
	}
}

// Service OCR 服务，首次识别时加载模型
type Service struct {
	cfg  Config
	gray bool

	mu         sync.Mutex
	recognizer Recognizer
	initErr    error
}

// New 创建 OCR 服务
func New(cfg Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, gray: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) getRecognizer() (Recognizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recognizer != nil {
		return s.recognizer, nil
	}
	if s.initErr != nil {
		return nil, s.initErr
	}
	if !s.cfg.Available() {
		s.initErr = fmt.Errorf("%w: det=%s rec=%s", ErrUnavailable, s.cfg.DetModelPath, s.cfg.RecModelPath)
		return nil, s.initErr
	}
	r, err := NewPaddleRecognizer(s.cfg)
	if err != nil {
		s.initErr = err
		return nil, err
	}
	s.recognizer = r
	return r, nil
}

// Recognize 识别图像中 region 范围内的文本区域，结果坐标相对于原图
func (s *Service) Recognize(ctx context.Context, img image.Image, region image.Rectangle) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := s.getRecognizer()
	if err != nil {
		return nil, err
	}

	input := img
	if s.gray || !region.Empty() {
		input, err = Preprocess(img, region, s.gray)
		if err != nil {
			return nil, err
		}
	}

	results, err := r.Recognize(input)
	if err != nil {
		return nil, err
	}

	offset := image.Point{}
	if !region.Empty() {
		offset = region.Intersect(img.Bounds()).Min
	}
	kept := results[:0]
	for _, res := range results {
		if res.Confidence < s.cfg.MinConfidence {
			continue
		}
		kept = append(kept, shift(res, offset))
	}
	return kept, nil
}

func shift(r Result, d image.Point) Result {
	if d == (image.Point{}) {
		return r
	}
	r.Position.X += d.X
	r.Position.Y += d.Y
	box := make([]Point, len(r.Box))
	for i, p := range r.Box {
		box[i] = Point{X: p.X + d.X, Y: p.Y + d.Y}
	}
	r.Box = box
	return r
}

// Text 识别并按阅读顺序拼接文本，行之间以换行分隔
func (s *Service) Text(ctx context.Context, img image.Image, region image.Rectangle) (string, error) {
	results, err := s.Recognize(ctx, img, region)
	if err != nil {
		return "", err
	}
	return JoinText(results), nil
}

// ImagePath 识别图像文件
func (s *Service) ImagePath(ctx context.Context, path string) (string, error) {
	img, err := loadImageFromFile(path)
	if err != nil {
		return "", err
	}
	return s.Text(ctx, img, image.Rectangle{})
}

// Screenshot 识别截图
func (s *Service) Screenshot(ctx context.Context, shot *uia.ScreenshotResult) (string, error) {
	img, err := shot.Image()
	if err != nil {
		return "", err
	}
	return s.Text(ctx, img, image.Rectangle{})
}

// ScreenshotRegion 识别截图中的矩形区域，用于元素范围内的识别
func (s *Service) ScreenshotRegion(ctx context.Context, shot *uia.ScreenshotResult, r uia.Rect) (string, error) {
	if r.Empty() {
		return "", fmt.Errorf("识别区域为空: %s", r)
	}
	img, err := shot.Image()
	if err != nil {
		return "", err
	}
	return s.Text(ctx, img, image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
}

// FindText 查找包含 target 的文本区域中心（不区分大小写），未找到返回 nil
func (s *Service) FindText(ctx context.Context, img image.Image, target string) (*Point, error) {
	if target == "" {
		return nil, nil
	}
	results, err := s.Recognize(ctx, img, image.Rectangle{})
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(target)
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Text), want) {
			p := r.Position
			return &p, nil
		}
	}
	return nil, nil
}

// Close 释放识别器
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recognizer == nil {
		return nil
	}
	err := s.recognizer.Close()
	s.recognizer = nil
	return err
}

// JoinText 按行拼接：中心 Y 相近的区域归为一行，行内按 X 排序
func JoinText(results []Result) string {
	type line struct {
		y     int
		items []Result
	}
	var lines []*line
	for _, r := range results {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		var target *line
		for _, l := range lines {
			if abs(l.y-r.Position.Y) <= lineTolerance(r) {
				target = l
				break
			}
		}
		if target == nil {
			target = &line{y: r.Position.Y}
			lines = append(lines, target)
		}
		target.items = append(target.items, r)
	}

	sort.SliceStable(lines, func(a, b int) bool { return lines[a].y < lines[b].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		items := l.items
		sort.SliceStable(items, func(a, b int) bool { return items[a].Position.X < items[b].Position.X })
		words := make([]string, len(items))
		for i, it := range items {
			words[i] = it.Text
		}
		out = append(out, strings.Join(words, " "))
	}
	return strings.Join(out, "\n")
}

// lineTolerance 取文字框高度的一半，没有框时取 8 像素
func lineTolerance(r Result) int {
	if len(r.Box) == 4 {
		if h := abs(r.Box[1].Y-r.Box[0].Y) / 2; h > 0 {
			return h
		}
	}
	return 8
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func loadImageFromFile(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("打开图像文件失败: %s, %v", filename, err)
		return nil, fmt.Errorf("打开图像文件失败: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		logger.Error("解码图像失败: %s, %v", filename, err)
		return nil, fmt.Errorf("解码图像失败: %w", err)
	}
	return img, nil
}
