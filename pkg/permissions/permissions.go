// Package permissions 系统隐私权限检查
//
// macOS 上无障碍树读取、截屏和全局输入监听分别受辅助功能、屏幕录制和输入监控权限控制，
// 其它平台不需要授权，检查总是通过。
package permissions

import (
	"fmt"
	"strings"

	"github.com/zoeyai/uiauto/pkg/uia"
)

// Need 需要的权限集合
type Need int

const (
	Accessibility Need = 1 << iota
	ScreenRecording
	InputMonitoring
)

// Status 权限状态
type Status struct {
	Accessibility   bool `json:"accessibility"`
	ScreenRecording bool `json:"screen_recording"`
	InputMonitoring bool `json:"input_monitoring"`
}

// Granted 是否满足 need 中的所有权限
func (s Status) Granted(need Need) bool {
	return len(s.missing(need)) == 0
}

type missingItem struct {
	name string
	path string
	use  string
}

func (s Status) missing(need Need) []missingItem {
	var out []missingItem
	if need&Accessibility != 0 && !s.Accessibility {
		out = append(out, missingItem{"辅助功能", "隐私与安全性 > 辅助功能", "读取界面元素、控制鼠标键盘"})
	}
	if need&ScreenRecording != 0 && !s.ScreenRecording {
		out = append(out, missingItem{"屏幕录制", "隐私与安全性 > 屏幕录制", "截屏和文字识别"})
	}
	if need&InputMonitoring != 0 && !s.InputMonitoring {
		out = append(out, missingItem{"输入监控", "隐私与安全性 > 输入监控", "录制键盘鼠标事件"})
	}
	return out
}

// Instructions 缺失权限的授权说明，全部满足时返回空串
func (s Status) Instructions(need Need) string {
	missing := s.missing(need)
	if len(missing) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("需要授权以下权限才能正常工作:\n\n")
	for i, m := range missing {
		fmt.Fprintf(&b, "%d. %s权限 (用于%s)\n   系统设置 > %s\n\n", i+1, m.name, m.use, m.path)
	}
	b.WriteString("授权后需要重启应用才能生效。")
	return b.String()
}

// Require 检查权限，缺失时返回 InitializationError
func Require(need Need) error {
	status := Check()
	missing := status.missing(need)
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, m := range missing {
		names[i] = m.name
	}
	return uia.InitializationError(fmt.Errorf("%s", status.Instructions(need)), "未授予%s权限", strings.Join(names, "、"))
}
