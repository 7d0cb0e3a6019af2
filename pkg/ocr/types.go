package ocr

import (
	"os"
	"path/filepath"
	"runtime"
)

// Point 二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Result 单个文本区域的识别结果
type Result struct {
	// Text 识别的文字内容
	Text string `json:"text"`
	// Confidence 识别置信度 (0-1)
	Confidence float64 `json:"confidence"`
	// Position 文字中心位置
	Position Point `json:"position"`
	// Box 文字边界框四个角点
	Box []Point `json:"box,omitempty"`
}

// Config OCR 模型配置
type Config struct {
	// OnnxRuntimeLibPath ONNX Runtime 动态库路径
	OnnxRuntimeLibPath string
	// DetModelPath 检测模型路径
	DetModelPath string
	// RecModelPath 识别模型路径
	RecModelPath string
	// DictPath 字典文件路径
	DictPath string
	// MinConfidence 低于该置信度的结果被丢弃
	MinConfidence float64
}

// DefaultConfig 在可执行文件目录和工作目录下查找模型
func DefaultConfig() Config {
	return Config{
		OnnxRuntimeLibPath: findFirst(onnxRuntimeCandidates()),
		DetModelPath:       findFirst(modelCandidates("det.onnx")),
		RecModelPath:       findFirst(modelCandidates("rec.onnx")),
		DictPath:           findFirst(modelCandidates("dict.txt")),
	}
}

// Available 模型和运行库文件是否都存在
func (c Config) Available() bool {
	return fileExists(c.OnnxRuntimeLibPath) &&
		fileExists(c.DetModelPath) &&
		fileExists(c.RecModelPath) &&
		fileExists(c.DictPath)
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	return filepath.Dir(execPath)
}

func onnxRuntimeCandidates() []string {
	execDir := executableDir()
	switch runtime.GOOS {
	case "darwin":
		return []string{
			filepath.Join(execDir, "..", "Frameworks", "libonnxruntime.dylib"),
			filepath.Join(execDir, "libonnxruntime.dylib"),
			filepath.Join("models", "lib", "onnxruntime_"+runtime.GOARCH+".dylib"),
		}
	case "windows":
		return []string{
			filepath.Join(execDir, "onnxruntime.dll"),
			filepath.Join("models", "lib", "onnxruntime.dll"),
		}
	default:
		return []string{
			filepath.Join(execDir, "libonnxruntime.so"),
			filepath.Join("models", "lib", "onnxruntime_"+runtime.GOARCH+".so"),
		}
	}
}

func modelCandidates(filename string) []string {
	execDir := executableDir()
	return []string{
		filepath.Join(execDir, "..", "Resources", "models", "paddle_weights", filename),
		filepath.Join(execDir, "models", "paddle_weights", filename),
		filepath.Join("models", "paddle_weights", filename),
	}
}

// findFirst 返回第一个存在的路径，都不存在时返回最后一个候选
func findFirst(paths []string) string {
	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return paths[len(paths)-1]
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
