package permissions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zoeyai/uiauto/pkg/uia"
)

func TestStatusGranted(t *testing.T) {
	s := Status{Accessibility: true, ScreenRecording: false, InputMonitoring: true}
	assert.True(t, s.Granted(Accessibility|InputMonitoring))
	assert.False(t, s.Granted(ScreenRecording))
	assert.True(t, s.Granted(0))
}

func TestInstructions(t *testing.T) {
	s := Status{Accessibility: true}
	msg := s.Instructions(Accessibility | ScreenRecording | InputMonitoring)
	assert.Contains(t, msg, "1. 屏幕录制权限")
	assert.Contains(t, msg, "2. 输入监控权限")
	assert.NotContains(t, msg, "辅助功能权限")

	assert.Empty(t, Status{Accessibility: true}.Instructions(Accessibility))
}

func TestRequire(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("跳过测试：macOS 上结果取决于系统授权")
	}
	assert.NoError(t, Require(Accessibility|ScreenRecording|InputMonitoring))
	assert.True(t, Check().Granted(Accessibility))
}

func TestRequireErrorKind(t *testing.T) {
	status := Check()
	if status.Granted(Accessibility | ScreenRecording | InputMonitoring) {
		t.Skip("跳过测试：权限已全部授予")
	}
	err := Require(Accessibility | ScreenRecording | InputMonitoring)
	assert.ErrorIs(t, err, uia.ErrInitialization)
}
