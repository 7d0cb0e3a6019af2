package overlay

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	defaultFontSize = 14
	popupPadding    = 8
	popupMargin     = 16
	popupMaxWidth   = 420
	badgePadding    = 3
)

// CanvasOption 画布选项
type CanvasOption func(*CanvasRenderer)

// WithFont 使用指定 TrueType 字体，显示中文时需要
func WithFont(ttf []byte) CanvasOption {
	return func(r *CanvasRenderer) {
		r.fontData = ttf
	}
}

// WithFontSize 字号（点）
func WithFontSize(size float64) CanvasOption {
	return func(r *CanvasRenderer) {
		if size > 0 {
			r.fontSize = size
		}
	}
}

// WithPresenter 每帧绘制完成后调用，把画布交给窗口或文件
func WithPresenter(present func(*image.RGBA) error) CanvasOption {
	return func(r *CanvasRenderer) {
		r.present = present
	}
}

// CanvasRenderer 把帧绘制到覆盖整个屏幕的透明 RGBA 画布上
type CanvasRenderer struct {
	mu       sync.Mutex
	canvas   *image.RGBA
	fontData []byte
	fontSize float64
	font     *truetype.Font
	face     font.Face
	present  func(*image.RGBA) error
}

// NewCanvasRenderer 创建 width x height 的画布，坐标与屏幕坐标一致
func NewCanvasRenderer(width, height int, opts ...CanvasOption) (*CanvasRenderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %dx%d", width, height)
	}
	r := &CanvasRenderer{
		canvas:   image.NewRGBA(image.Rect(0, 0, width, height)),
		fontData: goregular.TTF,
		fontSize: defaultFontSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	f, err := freetype.ParseFont(r.fontData)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	r.font = f
	r.face = truetype.NewFace(f, &truetype.Options{Size: r.fontSize, DPI: 72, Hinting: font.HintingFull})
	return r, nil
}

// Render 绘制一帧
func (r *CanvasRenderer) Render(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()
	for _, h := range frame.Highlights {
		alpha := h.Effect.Opacity(frame.Elapsed)
		if alpha <= 0 {
			continue
		}
		if err := r.drawHighlight(h, alpha); err != nil {
			return err
		}
	}
	if err := r.drawPopups(frame.Popups); err != nil {
		return err
	}
	return r.presentLocked()
}

// Clear 清空画布
func (r *CanvasRenderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
	return r.presentLocked()
}

// Close 释放字体
func (r *CanvasRenderer) Close() error {
	return r.face.Close()
}

// Snapshot 当前画布的副本
func (r *CanvasRenderer) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := image.NewRGBA(r.canvas.Bounds())
	copy(out.Pix, r.canvas.Pix)
	return out
}

func (r *CanvasRenderer) clearLocked() {
	clear(r.canvas.Pix)
}

func (r *CanvasRenderer) presentLocked() error {
	if r.present == nil {
		return nil
	}
	return r.present(r.canvas)
}

func withAlpha(c color.RGBA, alpha float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(float64(c.A) * clamp01(alpha))}
}

func (r *CanvasRenderer) fillRect(rect image.Rectangle, c color.Color) {
	draw.Draw(r.canvas, rect.Intersect(r.canvas.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func (r *CanvasRenderer) drawHighlight(h Highlight, alpha float64) error {
	b := h.Bounds
	rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)

	if f := h.Style.Fill; f != nil {
		r.fillRect(rect, withAlpha(f.Color, f.Opacity*alpha))
	}
	if br := h.Style.Border; br != nil && br.Thickness > 0 {
		c := withAlpha(br.Color, alpha)
		t := br.Thickness
		r.fillRect(image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+t), c)
		r.fillRect(image.Rect(rect.Min.X, rect.Max.Y-t, rect.Max.X, rect.Max.Y), c)
		r.fillRect(image.Rect(rect.Min.X, rect.Min.Y+t, rect.Min.X+t, rect.Max.Y-t), c)
		r.fillRect(image.Rect(rect.Max.X-t, rect.Min.Y+t, rect.Max.X, rect.Max.Y-t), c)
	}
	if bg := h.Style.Badge; bg != nil && bg.Text != "" {
		return r.drawBadge(rect, *bg, h.Style, alpha)
	}
	return nil
}

func (r *CanvasRenderer) drawBadge(rect image.Rectangle, badge Badge, style HighlightStyle, alpha float64) error {
	bgColor := Red
	if style.Border != nil {
		bgColor = style.Border.Color
	}
	w := r.textWidth(badge.Text) + 2*badgePadding
	h := r.lineHeight() + 2*badgePadding

	var origin image.Point
	switch badge.Corner {
	case TopRight:
		origin = image.Pt(rect.Max.X-w, rect.Min.Y-h)
	case BottomLeft:
		origin = image.Pt(rect.Min.X, rect.Max.Y)
	case BottomRight:
		origin = image.Pt(rect.Max.X-w, rect.Max.Y)
	default:
		origin = image.Pt(rect.Min.X, rect.Min.Y-h)
	}
	// 超出画布顶部时放到元素内侧
	if origin.Y < 0 {
		origin.Y = rect.Min.Y
	}
	box := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
	r.fillRect(box, withAlpha(bgColor, alpha))
	return r.drawText(badge.Text, box.Min.Add(image.Pt(badgePadding, badgePadding)), withAlpha(White, alpha))
}

// drawPopups 弹窗自右下角向上堆叠，最新的在最下方
func (r *CanvasRenderer) drawPopups(popups []Popup) error {
	bounds := r.canvas.Bounds()
	bottom := bounds.Max.Y - popupMargin
	for i := len(popups) - 1; i >= 0; i-- {
		p := popups[i]
		bg, fg := p.Style.Colors()

		w := min(r.textWidth(p.Message)+2*popupPadding, popupMaxWidth)
		h := r.lineHeight() + 2*popupPadding
		box := image.Rect(bounds.Max.X-popupMargin-w, bottom-h, bounds.Max.X-popupMargin, bottom)
		if box.Min.Y < bounds.Min.Y {
			break
		}
		r.fillRect(box, withAlpha(bg, 0.92))
		if err := r.drawText(p.Message, box.Min.Add(image.Pt(popupPadding, popupPadding)), fg); err != nil {
			return err
		}
		bottom = box.Min.Y - popupPadding
	}
	return nil
}

func (r *CanvasRenderer) lineHeight() int {
	return r.face.Metrics().Height.Ceil()
}

func (r *CanvasRenderer) textWidth(text string) int {
	return font.MeasureString(r.face, text).Ceil()
}

// drawText topLeft 为文字框左上角
func (r *CanvasRenderer) drawText(text string, topLeft image.Point, c color.Color) error {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(r.font)
	ctx.SetFontSize(r.fontSize)
	ctx.SetClip(r.canvas.Bounds())
	ctx.SetDst(r.canvas)
	ctx.SetSrc(image.NewUniform(c))
	ctx.SetHinting(font.HintingFull)

	baseline := fixed.Point26_6{
		X: fixed.I(topLeft.X),
		Y: fixed.I(topLeft.Y) + r.face.Metrics().Ascent,
	}
	if _, err := ctx.DrawString(text, baseline); err != nil {
		return fmt.Errorf("绘制文字失败: %w", err)
	}
	return nil
}
