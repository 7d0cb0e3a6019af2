// Package uia 基于操作系统无障碍树的 UI 自动化引擎
//
// 每个平台一个后端实现（Windows UI Automation、macOS AX、Linux AT-SPI），
// 上层通过 Selector/Locator 在实时变化的元素树中查找元素。
package uia

import (
	"fmt"
	"time"
)

// Rect 矩形区域（屏幕坐标）
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center 返回矩形中心点
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains 判断点是否落在矩形内
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty 宽或高为零
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

const (
	// DefaultTimeout 默认定位超时
	DefaultTimeout = 3 * time.Second
	// DefaultPollInterval 默认轮询间隔
	DefaultPollInterval = 200 * time.Millisecond
	// MaxWalkDepth 遍历深度上限，防止异常的循环树
	MaxWalkDepth = 256
)

// Option 配置选项函数类型
type Option func(*Options)

// Options 定位配置
type Options struct {
	// Timeout 等待超时时间；First 使用，All 仅在显式设置时重试
	Timeout time.Duration
	// PollInterval 两次遍历之间的间隔
	PollInterval time.Duration
	// explicitTimeout 是否显式设置过超时
	explicitTimeout bool
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// ApplyOptions 应用配置选项
func ApplyOptions(base *Options, opts ...Option) *Options {
	o := DefaultOptions()
	if base != nil {
		*o = *base
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// WithTimeout 设置超时时间
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
		o.explicitTimeout = true
	}
}

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}
