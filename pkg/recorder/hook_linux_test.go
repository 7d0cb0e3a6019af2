//go:build linux

package recorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/uia"
)

type nopSink struct{}

func (nopSink) Key(RawKey)     {}
func (nopSink) Mouse(RawMouse) {}

func TestLinuxHookWithoutRecordExtension(t *testing.T) {
	orig := checkRecordExtension
	t.Cleanup(func() { checkRecordExtension = orig })
	checkRecordExtension = func() error { return errors.New("cannot open display") }

	src := newPlatformHookSource()
	err := src.Install(nopSink{}, true, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, uia.ErrInitialization)
	assert.Contains(t, err.Error(), "RECORD")
	assert.False(t, gohookActive.Load(), "安装失败后应释放全局监听")

	err = src.Install(nopSink{}, true, true)
	assert.ErrorIs(t, err, uia.ErrInitialization)
	assert.NotErrorIs(t, err, ErrAlreadyStarted, "失败的安装不应留下已启动状态")
	assert.NoError(t, src.Uninstall(), "未安装时卸载为空操作")
}
