package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/config"
	"github.com/zoeyai/uiauto/pkg/recorder"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "--config", writeConfig(t, ""), "permissions"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无效的输出格式")
}

func TestRootLoadsConfigFile(t *testing.T) {
	opts := &rootOptions{configFile: writeConfig(t, "recorder:\n  mouse_move_sample_rate: 3\nstream:\n  listen_addr: 127.0.0.1:6000\n"), format: "text"}
	require.NoError(t, opts.load())
	assert.Equal(t, 3, opts.cfg.Recorder.MouseMoveSampleRate)
	assert.Equal(t, "127.0.0.1:6000", opts.cfg.Stream.ListenAddr)
	assert.True(t, opts.cfg.Recorder.RecordKeyboard, "未配置的字段应保留默认值")
}

func TestRecordFlagsOverrideConfig(t *testing.T) {
	opts := &rootOptions{cfg: config.DefaultConfig()}
	f := &recordFlags{noMouse: true, noElements: true, sampleRate: 4}
	c := f.config(opts)
	assert.True(t, c.RecordKeyboard)
	assert.False(t, c.RecordMouse)
	assert.False(t, c.CaptureUIElements)
	assert.Equal(t, 4, c.MouseMoveSampleRate)
	assert.Equal(t, recorder.DefaultMaxHierarchyDepth, c.MaxHierarchyDepth)
}

func TestPrinter(t *testing.T) {
	ev := recorder.WorkflowEvent{
		ID:       "e1",
		Type:     recorder.EventKeyboard,
		Time:     time.Date(2026, 1, 2, 9, 30, 15, 250_000_000, time.Local),
		Keyboard: &recorder.KeyboardEvent{KeyCode: 65, Down: true},
	}

	var text bytes.Buffer
	require.NoError(t, printer(&text, "text")(ev))
	assert.True(t, strings.HasPrefix(text.String(), "09:30:15.250 keyboard 65 down"), "实际输出: %s", text.String())

	var js bytes.Buffer
	require.NoError(t, printer(&js, "json")(ev))
	assert.Contains(t, js.String(), `"key_code":65`)
	assert.True(t, strings.HasSuffix(js.String(), "\n"), "json 格式应每行一个事件")
}
