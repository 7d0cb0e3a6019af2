package recorder

import "github.com/zoeyai/uiauto/pkg/config"

const (
	// DefaultMouseMoveSampleRate 每 N 个移动事件转发一个
	DefaultMouseMoveSampleRate = 10
	// DefaultMaxHierarchyDepth 层级路径最多向上查询的层数
	DefaultMaxHierarchyDepth = 32
)

// Config 录制配置
type Config struct {
	RecordKeyboard bool
	RecordMouse    bool
	// CaptureUIElements 鼠标按下/抬起时关联元素快照，并检测前台窗口切换
	CaptureUIElements   bool
	MouseMoveSampleRate int
	MaxHierarchyDepth   int
}

// DefaultConfig 默认全部开启
func DefaultConfig() Config {
	return Config{
		RecordKeyboard:      true,
		RecordMouse:         true,
		CaptureUIElements:   true,
		MouseMoveSampleRate: DefaultMouseMoveSampleRate,
		MaxHierarchyDepth:   DefaultMaxHierarchyDepth,
	}
}

// FromConfig 由配置文件中的 recorder 段构造
func FromConfig(c config.RecorderConfig) Config {
	return Config{
		RecordKeyboard:      c.RecordKeyboard,
		RecordMouse:         c.RecordMouse,
		CaptureUIElements:   c.CaptureUIElements,
		MouseMoveSampleRate: c.MouseMoveSampleRate,
		MaxHierarchyDepth:   c.MaxHierarchyDepth,
	}.normalize()
}

func (c Config) normalize() Config {
	if c.MouseMoveSampleRate <= 0 {
		c.MouseMoveSampleRate = DefaultMouseMoveSampleRate
	}
	if c.MaxHierarchyDepth <= 0 {
		c.MaxHierarchyDepth = DefaultMaxHierarchyDepth
	}
	return c
}
