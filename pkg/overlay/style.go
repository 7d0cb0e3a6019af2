package overlay

import (
	"image/color"
	"math"
	"time"
)

// Corner 徽标所在角
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Border 边框
type Border struct {
	Thickness int
	Color     color.RGBA
}

// Fill 半透明填充
type Fill struct {
	Color   color.RGBA
	Opacity float64
}

// Badge 角标文字
type Badge struct {
	Text   string
	Corner Corner
}

// HighlightStyle 高亮样式，字段为空表示不绘制该部分
type HighlightStyle struct {
	Border *Border
	Fill   *Fill
	Badge  *Badge
}

var (
	Red    = color.RGBA{R: 0xff, A: 0xff}
	Green  = color.RGBA{R: 0x2e, G: 0xa0, B: 0x43, A: 0xff}
	Blue   = color.RGBA{R: 0x1e, G: 0x6f, B: 0xd9, A: 0xff}
	Orange = color.RGBA{R: 0xf0, G: 0x8c, B: 0x00, A: 0xff}
	White  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black  = color.RGBA{A: 0xff}
)

// DefaultHighlightStyle 2 像素红色边框
func DefaultHighlightStyle() HighlightStyle {
	return HighlightStyle{Border: &Border{Thickness: 2, Color: Red}}
}

// EffectKind 动画类型
type EffectKind int

const (
	EffectStatic EffectKind = iota
	EffectPulsing
	EffectBlinking
)

// Effect 高亮动画
type Effect struct {
	Kind EffectKind
	// From/To 脉冲的不透明度范围
	From, To float64
	// Period 脉冲周期或闪烁间隔
	Period time.Duration
}

// Static 不变
func Static() Effect { return Effect{Kind: EffectStatic} }

// Pulsing 不透明度在 from 和 to 之间往复，周期 1 秒
func Pulsing(from, to float64) Effect {
	return Effect{Kind: EffectPulsing, From: from, To: to, Period: time.Second}
}

// Blinking 每隔 interval 显示/隐藏一次
func Blinking(interval time.Duration) Effect {
	return Effect{Kind: EffectBlinking, Period: interval}
}

// Animated 是否需要逐帧重绘
func (e Effect) Animated() bool {
	return e.Kind != EffectStatic && e.Period > 0
}

// Opacity 动画开始 elapsed 之后的不透明度系数，范围 [0, 1]
func (e Effect) Opacity(elapsed time.Duration) float64 {
	if !e.Animated() {
		return 1
	}
	switch e.Kind {
	case EffectPulsing:
		phase := float64(elapsed%e.Period) / float64(e.Period)
		// 0→1→0 的三角波
		tri := 1 - math.Abs(2*phase-1)
		return clamp01(e.From + (e.To-e.From)*tri)
	case EffectBlinking:
		if (elapsed/e.Period)%2 == 0 {
			return 1
		}
		return 0
	}
	return 1
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// PopupKind 弹窗类型
type PopupKind int

const (
	PopupInfo PopupKind = iota
	PopupSuccess
	PopupWarning
	PopupError
	PopupCustom
)

// PopupStyle 弹窗样式，Custom 使用 Background/Foreground
type PopupStyle struct {
	Kind       PopupKind
	Background color.RGBA
	Foreground color.RGBA
}

func Info() PopupStyle    { return PopupStyle{Kind: PopupInfo} }
func Success() PopupStyle { return PopupStyle{Kind: PopupSuccess} }
func Warning() PopupStyle { return PopupStyle{Kind: PopupWarning} }
func Error() PopupStyle   { return PopupStyle{Kind: PopupError} }

// Custom 自定义配色
func Custom(bg, fg color.RGBA) PopupStyle {
	return PopupStyle{Kind: PopupCustom, Background: bg, Foreground: fg}
}

// Colors 背景色与文字色
func (s PopupStyle) Colors() (bg, fg color.RGBA) {
	switch s.Kind {
	case PopupSuccess:
		return Green, White
	case PopupWarning:
		return Orange, Black
	case PopupError:
		return Red, White
	case PopupCustom:
		return s.Background, s.Foreground
	default:
		return Blue, White
	}
}
