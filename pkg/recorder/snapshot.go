package recorder

import (
	"github.com/zoeyai/uiauto/pkg/uia"
)

// Snapshot 读取坐标处元素的属性快照，失败时返回 nil
//
// 在钩子线程上调用：只做一次点查询、一次向上的父节点遍历和一次按进程查窗口。
func Snapshot(engine *uia.Engine, x, y, maxDepth int) *UIElement {
	if engine == nil {
		return nil
	}
	el, ok := engine.ElementAtPoint(x, y)
	if !ok {
		return nil
	}
	defer el.Release()

	a := el.Attributes()
	snap := &UIElement{
		Name:             a.Name,
		AutomationID:     a.AutomationID,
		ClassName:        a.ClassName,
		ControlType:      a.Role,
		ProcessID:        a.ProcessID,
		BoundingRect:     a.Bounds,
		IsEnabled:        a.IsEnabled,
		HasKeyboardFocus: a.IsFocused,
		HierarchyPath:    el.HierarchyPath(maxDepth),
		Value:            a.Value,
	}
	if a.ProcessID > 0 {
		if info, err := engine.WindowOwner(a.ProcessID); err == nil {
			snap.WindowTitle = info.Title
			snap.ApplicationName = info.AppName
		}
	}
	return snap
}
