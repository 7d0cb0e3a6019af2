package process

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellCommand(t *testing.T) {
	cmd, err := ShellCommand("echo win", "echo unix")
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, "echo win", cmd)
	} else {
		assert.Equal(t, "echo unix", cmd)
	}

	_, err = ShellCommand("", "")
	assert.Error(t, err, "未提供命令时应返回错误")
}

func TestRunCommand(t *testing.T) {
	out, err := RunCommand(context.Background(), "echo hello", "echo hello")
	require.NoError(t, err, "执行命令失败")
	assert.Equal(t, 0, out.ExitStatus)
	assert.Equal(t, "hello", strings.TrimSpace(out.Stdout))
}

func TestRunCommandExitStatus(t *testing.T) {
	out, err := RunCommand(context.Background(), "exit 3", "exit 3")
	require.NoError(t, err, "非零退出码不应视为错误")
	assert.Equal(t, 3, out.ExitStatus)
}

func TestRunCommandStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("仅在 Unix 上测试 stderr 重定向")
	}
	out, err := RunCommand(context.Background(), "", "echo oops 1>&2")
	require.NoError(t, err)
	assert.Equal(t, "oops", strings.TrimSpace(out.Stderr))
	assert.Empty(t, out.Stdout)
}

func TestRunCommandCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows 上 sleep 命令不可用")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := RunCommand(ctx, "", "sleep 5")
	assert.Error(t, err, "超时后应返回错误")
}

func TestCurrentProcess(t *testing.T) {
	pid := os.Getpid()
	assert.True(t, IsProcessRunning(pid))

	name, err := Name(pid)
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.False(t, strings.HasSuffix(name, ".exe"))

	info, err := GetProcessByPID(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, info.PID)
}
