package desktop

import (
	"errors"
	"time"

	"github.com/zoeyai/uiauto/pkg/overlay"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// 可视化调用不影响自动化结果：叠加层不存在或未开启时只记录警告

// overlayReady 叠加层可用时返回 true
func (d *Desktop) overlayReady(op string) bool {
	if d.overlay == nil {
		d.log.Warn("%s: 未配置叠加层，忽略", op)
		return false
	}
	if !d.overlay.IsEnabled() {
		d.log.Warn("%s: 叠加层未开启，忽略", op)
		return false
	}
	return true
}

func (d *Desktop) warnOverlay(op string, err error) {
	if err != nil && !errors.Is(err, overlay.ErrDisabled) {
		d.log.Warn("%s 失败: %v", op, err)
	}
}

// StartVisualization 开启叠加层
func (d *Desktop) StartVisualization() {
	defer d.timed("StartVisualization")()
	if d.overlay == nil {
		d.log.Warn("StartVisualization: 未配置叠加层，忽略")
		return
	}
	d.warnOverlay("StartVisualization", d.overlay.Start())
}

// StopVisualization 关闭叠加层
func (d *Desktop) StopVisualization() {
	defer d.timed("StopVisualization")()
	if d.overlay == nil {
		d.log.Warn("StopVisualization: 未配置叠加层，忽略")
		return
	}
	d.warnOverlay("StopVisualization", d.overlay.Stop())
}

// ToggleVisualization 切换叠加层，返回切换后的状态
func (d *Desktop) ToggleVisualization() bool {
	defer d.timed("ToggleVisualization")()
	if d.overlay == nil {
		d.log.Warn("ToggleVisualization: 未配置叠加层，忽略")
		return false
	}
	on, err := d.overlay.Toggle()
	d.warnOverlay("ToggleVisualization", err)
	return on
}

// VisualizationEnabled 叠加层是否开启
func (d *Desktop) VisualizationEnabled() bool {
	return d.overlay != nil && d.overlay.IsEnabled()
}

// HighlightElements 高亮元素，返回实际高亮的数量
func (d *Desktop) HighlightElements(elements []*uia.Element, style *overlay.HighlightStyle, effect *overlay.Effect) int {
	defer d.timed("HighlightElements")()
	if !d.overlayReady("HighlightElements") {
		return 0
	}
	n, err := d.overlay.HighlightElements(elements, style, effect)
	d.warnOverlay("HighlightElements", err)
	return n
}

// ShowPopup 显示提示弹窗
func (d *Desktop) ShowPopup(message string, duration time.Duration, style *overlay.PopupStyle) {
	defer d.timed("ShowPopup")()
	if !d.overlayReady("ShowPopup") {
		return
	}
	d.warnOverlay("ShowPopup", d.overlay.ShowPopup(message, duration, style))
}

// ClearVisualizations 清除高亮和弹窗
func (d *Desktop) ClearVisualizations() {
	defer d.timed("ClearVisualizations")()
	if !d.overlayReady("ClearVisualizations") {
		return
	}
	d.warnOverlay("ClearVisualizations", d.overlay.Clear())
}
