package uia_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zoeyai/uiauto/pkg/uia"
)

func TestAutomationErrorKinds(t *testing.T) {
	cause := errors.New("E_ACCESSDENIED")

	tests := []struct {
		err      error
		sentinel error
		kind     uia.ErrorKind
	}{
		{uia.NotFoundf("未找到 %s", "x"), uia.ErrNotFound, uia.KindNotFound},
		{uia.Timeoutf("name=x", "超时"), uia.ErrTimeout, uia.KindTimeout},
		{uia.InvalidSelectorf("bad", "无效"), uia.ErrInvalidSelector, uia.KindInvalidSelector},
		{uia.PlatformNotSupportedf("不支持"), uia.ErrPlatformNotSupported, uia.KindPlatformNotSupported},
		{uia.InitializationError(cause, "初始化"), uia.ErrInitialization, uia.KindInitialization},
		{uia.InternalError(cause, "内部"), uia.ErrInternal, uia.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.kind, uia.KindOf(tt.err))

			wrapped := fmt.Errorf("外层: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel, "包装后仍可识别分类")
			assert.Equal(t, tt.kind, uia.KindOf(wrapped))
		})
	}

	assert.NotErrorIs(t, uia.NotFoundf("x"), uia.ErrTimeout)
	assert.Equal(t, uia.ErrorKind(0), uia.KindOf(cause))
}

func TestAutomationErrorMessage(t *testing.T) {
	err := uia.Timeoutf("role=button", "等待元素超时 (%v)", 3*time.Second)
	assert.Equal(t, "等待元素超时 (3s) [selector: role=button]", err.Error())

	cause := errors.New("拒绝访问")
	err = uia.InternalError(cause, "获取子元素失败")
	assert.Equal(t, "获取子元素失败: 拒绝访问", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRectHelpers(t *testing.T) {
	r := uia.Rect{X: 10, Y: 20, Width: 100, Height: 50}

	x, y := r.Center()
	assert.Equal(t, 60, x)
	assert.Equal(t, 45, y)
	assert.True(t, r.Contains(10, 20))
	assert.False(t, r.Contains(110, 20), "右边界不包含")
	assert.False(t, r.Empty())
	assert.True(t, uia.Rect{Width: 10}.Empty())
	assert.Equal(t, "(10,20 100x50)", r.String())
}

func TestApplyOptions(t *testing.T) {
	o := uia.ApplyOptions(nil)
	assert.Equal(t, uia.DefaultTimeout, o.Timeout)
	assert.Equal(t, uia.DefaultPollInterval, o.PollInterval)

	base := &uia.Options{Timeout: time.Second, PollInterval: 50 * time.Millisecond}
	o = uia.ApplyOptions(base, uia.WithTimeout(2*time.Second))
	assert.Equal(t, 2*time.Second, o.Timeout)
	assert.Equal(t, 50*time.Millisecond, o.PollInterval)
	assert.Equal(t, time.Second, base.Timeout, "不修改基础配置")

	o = uia.ApplyOptions(nil, uia.WithPollInterval(-1))
	assert.Equal(t, uia.DefaultPollInterval, o.PollInterval, "非法轮询间隔回退默认值")
}
