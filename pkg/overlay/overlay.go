// Package overlay 屏幕叠加层：元素高亮与提示弹窗
//
// Overlay 只维护要显示的内容和开关状态，绘制交给 Renderer。
package overlay

import (
	"errors"
	"sync"
	"time"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// ErrDisabled 叠加层未开启
var ErrDisabled = errors.New("叠加层未开启")

// DefaultFrameInterval 动画重绘间隔
const DefaultFrameInterval = 50 * time.Millisecond

// Highlight 一个高亮区域
type Highlight struct {
	Bounds uia.Rect
	Style  HighlightStyle
	Effect Effect
}

// Popup 提示弹窗
type Popup struct {
	Message string
	Style   PopupStyle
	Expires time.Time
}

// Frame 一帧要绘制的内容
type Frame struct {
	Highlights []Highlight
	Popups     []Popup
	// Elapsed 距当前高亮开始的时间，用于计算动画
	Elapsed time.Duration
}

// Empty 没有任何内容
func (f Frame) Empty() bool {
	return len(f.Highlights) == 0 && len(f.Popups) == 0
}

// Renderer 绘制后端
type Renderer interface {
	Render(Frame) error
	Clear() error
	Close() error
}

// Option 叠加层选项
type Option func(*Overlay)

// WithFrameInterval 设置动画重绘间隔
func WithFrameInterval(d time.Duration) Option {
	return func(o *Overlay) {
		if d > 0 {
			o.frameInterval = d
		}
	}
}

// WithClock 替换时钟，测试使用
func WithClock(now func() time.Time) Option {
	return func(o *Overlay) {
		o.now = now
	}
}

// Overlay 叠加层
//
// 所有方法并发安全；开启后后台 goroutine 按帧间隔重绘动画并清理过期弹窗。
type Overlay struct {
	mu            sync.Mutex
	renderer      Renderer
	enabled       bool
	highlights    []Highlight
	popups        []Popup
	epoch         time.Time
	frameInterval time.Duration
	now           func() time.Time

	stop chan struct{}
	done chan struct{}
}

// New 创建叠加层，初始为关闭状态
func New(renderer Renderer, opts ...Option) *Overlay {
	o := &Overlay{
		renderer:      renderer,
		frameInterval: DefaultFrameInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start 开启叠加层，重复调用无副作用
func (o *Overlay) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enabled {
		return nil
	}
	o.enabled = true
	o.epoch = o.now()
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.loop(o.stop, o.done)
	logger.Debug("叠加层已开启")
	return nil
}

// Stop 关闭叠加层并清空内容
func (o *Overlay) Stop() error {
	o.mu.Lock()
	if !o.enabled {
		o.mu.Unlock()
		return nil
	}
	o.enabled = false
	o.highlights = nil
	o.popups = nil
	stop, done := o.stop, o.done
	o.stop, o.done = nil, nil
	o.mu.Unlock()

	close(stop)
	<-done
	logger.Debug("叠加层已关闭")
	return o.renderer.Clear()
}

// Toggle 切换开关，返回切换后的状态
func (o *Overlay) Toggle() (bool, error) {
	if o.IsEnabled() {
		return false, o.Stop()
	}
	return true, o.Start()
}

// IsEnabled 是否开启
func (o *Overlay) IsEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// HighlightElements 高亮元素，替换之前的高亮
// 读取不到边界或边界为空的元素被跳过；style/effect 为空时使用默认值
func (o *Overlay) HighlightElements(elements []*uia.Element, style *HighlightStyle, effect *Effect) (int, error) {
	st := DefaultHighlightStyle()
	if style != nil {
		st = *style
	}
	ef := Static()
	if effect != nil {
		ef = *effect
	}

	highlights := make([]Highlight, 0, len(elements))
	for _, el := range elements {
		if el == nil {
			continue
		}
		r, err := el.Bounds()
		if err != nil || r.Empty() {
			logger.Debug("跳过无边界的元素 %s: %v", el, err)
			continue
		}
		highlights = append(highlights, Highlight{Bounds: r, Style: st, Effect: ef})
	}

	o.mu.Lock()
	if !o.enabled {
		o.mu.Unlock()
		return 0, ErrDisabled
	}
	o.highlights = highlights
	o.epoch = o.now()
	o.mu.Unlock()
	return len(highlights), o.Refresh()
}

// ShowPopup 显示提示，duration 后自动消失
func (o *Overlay) ShowPopup(message string, duration time.Duration, style *PopupStyle) error {
	st := Info()
	if style != nil {
		st = *style
	}

	o.mu.Lock()
	if !o.enabled {
		o.mu.Unlock()
		return ErrDisabled
	}
	o.popups = append(o.popups, Popup{Message: message, Style: st, Expires: o.now().Add(duration)})
	o.mu.Unlock()
	return o.Refresh()
}

// Clear 清除所有高亮和弹窗
func (o *Overlay) Clear() error {
	o.mu.Lock()
	if !o.enabled {
		o.mu.Unlock()
		return ErrDisabled
	}
	o.highlights = nil
	o.popups = nil
	o.mu.Unlock()
	return o.renderer.Clear()
}

// Refresh 清理过期弹窗并重绘当前帧
func (o *Overlay) Refresh() error {
	o.mu.Lock()
	if !o.enabled {
		o.mu.Unlock()
		return ErrDisabled
	}
	frame := o.frameLocked()
	o.mu.Unlock()

	if frame.Empty() {
		return o.renderer.Clear()
	}
	return o.renderer.Render(frame)
}

// Frame 当前帧内容
func (o *Overlay) Frame() Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frameLocked()
}

func (o *Overlay) frameLocked() Frame {
	now := o.now()
	live := o.popups[:0]
	for _, p := range o.popups {
		if now.Before(p.Expires) {
			live = append(live, p)
		}
	}
	o.popups = live

	return Frame{
		Highlights: append([]Highlight(nil), o.highlights...),
		Popups:     append([]Popup(nil), o.popups...),
		Elapsed:    now.Sub(o.epoch),
	}
}

// needsRedraw 存在动画或弹窗时需要定时重绘
func (o *Overlay) needsRedraw() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.popups) > 0 {
		return true
	}
	for _, h := range o.highlights {
		if h.Effect.Animated() {
			return true
		}
	}
	return false
}

func (o *Overlay) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(o.frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !o.needsRedraw() {
				continue
			}
			if err := o.Refresh(); err != nil && !errors.Is(err, ErrDisabled) {
				logger.Warn("叠加层重绘失败: %v", err)
			}
		}
	}
}

// Close 关闭叠加层并释放绘制后端
func (o *Overlay) Close() error {
	if err := o.Stop(); err != nil {
		logger.Warn("清除叠加层失败: %v", err)
	}
	return o.renderer.Close()
}
