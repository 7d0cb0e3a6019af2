package ocr

import (
	"fmt"
	"image"
	"sync"
	"time"

	goocr "github.com/getcharzp/go-ocr"

	"github.com/zoeyai/uiauto/internal/logger"
)

// Recognizer 文字识别后端
type Recognizer interface {
	Recognize(img image.Image) ([]Result, error)
	Close() error
}

// PaddleRecognizer 基于 PaddleOCR ONNX 模型的识别器
//
// 底层引擎不是并发安全的，识别调用串行执行。
type PaddleRecognizer struct {
	mu     sync.Mutex
	engine goocr.Engine
}

// NewPaddleRecognizer 加载模型创建识别器
func NewPaddleRecognizer(cfg Config) (*PaddleRecognizer, error) {
	engine, err := goocr.NewPaddleOcrEngine(goocr.Config{
		OnnxRuntimeLibPath: cfg.OnnxRuntimeLibPath,
		DetModelPath:       cfg.DetModelPath,
		RecModelPath:       cfg.RecModelPath,
		DictPath:           cfg.DictPath,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 OCR 引擎失败: %w", err)
	}
	logger.Info("OCR 引擎初始化成功")
	return &PaddleRecognizer{engine: engine}, nil
}

// Recognize 识别图像中的所有文本区域
func (r *PaddleRecognizer) Recognize(img image.Image) ([]Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return nil, fmt.Errorf("OCR 引擎已关闭")
	}

	start := time.Now()
	raw, err := r.engine.RunOCR(img)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		logger.LogEvent("OCR", false, elapsed, "识别失败")
		return nil, fmt.Errorf("OCR 识别失败: %w", err)
	}

	results := make([]Result, 0, len(raw))
	for _, rr := range raw {
		results = append(results, convertResult(rr))
	}
	logger.LogEvent("OCR", true, elapsed, fmt.Sprintf("识别到 %d 个文本", len(results)))
	return results, nil
}

// Close 释放模型
func (r *PaddleRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine != nil {
		r.engine.Destroy()
		r.engine = nil
	}
	return nil
}

// convertResult Box 为 [x1, y1, x2, y2]
func convertResult(rr goocr.RecResult) Result {
	box := rr.Box
	return Result{
		Text:       rr.Text,
		Confidence: float64(rr.Score),
		Position:   Point{X: (box[0] + box[2]) / 2, Y: (box[1] + box[3]) / 2},
		Box: []Point{
			{X: box[0], Y: box[1]},
			{X: box[0], Y: box[3]},
			{X: box[2], Y: box[3]},
			{X: box[2], Y: box[1]},
		},
	}
}
