package uia_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/process"
	"github.com/zoeyai/uiauto/pkg/uia"
)

func appNames(t *testing.T, apps []*uia.Element) []string {
	t.Helper()
	names := make([]string, len(apps))
	for i, a := range apps {
		names[i], _ = a.Name()
	}
	return names
}

func TestApplicationsFiltersBackground(t *testing.T) {
	f := newFixture(t)
	apps, err := f.engine.Applications()
	require.NoError(t, err)
	assert.Equal(t, []string{"Notepad", "Calculator"}, appNames(t, apps))

	f = newFixture(t, func(c *uia.Config) { c.UseBackgroundApps = true })
	apps, err = f.engine.Applications()
	require.NoError(t, err)
	assert.Equal(t, []string{"Notepad", "Calculator", "Daemon"}, appNames(t, apps))
}

func TestApplicationByName(t *testing.T) {
	f := newFixture(t)

	app, err := f.engine.ApplicationByName("notepad")
	require.NoError(t, err)
	assert.Same(t, f.notepad, app.Node())

	app, err = f.engine.ApplicationByName("calc")
	require.NoError(t, err)
	assert.Same(t, f.calc, app.Node(), "名称包含匹配")

	_, err = f.engine.ApplicationByName("nope")
	assert.ErrorIs(t, err, uia.ErrNotFound)
}

func TestElementAtPoint(t *testing.T) {
	f := newFixture(t)

	el, ok := f.engine.ElementAtPoint(20, 20)
	require.True(t, ok)
	assert.Same(t, f.notepadOK, el.Node(), "返回最深层元素")

	_, ok = f.engine.ElementAtPoint(5000, 5000)
	assert.False(t, ok)
}

func TestFocusedElement(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.FocusedElement()
	assert.ErrorIs(t, err, uia.ErrNotFound)

	require.NoError(t, f.editor.SetFocus())
	el, err := f.engine.FocusedElement()
	require.NoError(t, err)
	assert.Equal(t, "15", el.ID())
}

func TestOpenApplication(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.OpenApplication("notepad"))
	calls := f.actions.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "OpenApplication(notepad)", calls[0].String())
	assert.Equal(t, "ActivateApplication(notepad)", calls[1].String())

	f = newFixture(t, func(c *uia.Config) { c.ActivateApp = false })
	require.NoError(t, f.engine.OpenApplication("notepad"))
	assert.Empty(t, f.actions.CallsTo("ActivateApplication"))
}

func TestActionErrorsAreClassified(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.actions.Errors["OpenURL"] = boom

	err := f.engine.OpenURL("https://example.com", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, uia.ErrInternal)
	assert.ErrorIs(t, err, boom, "保留原始错误")

	_, err = f.engine.CaptureMonitorByName(context.Background(), "display-9")
	assert.ErrorIs(t, err, uia.ErrNotFound, "已分类的错误保持原分类")
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t)
	f.actions.Output = &process.CommandOutput{ExitStatus: 2, Stdout: "out", Stderr: "err"}

	out, err := f.engine.RunCommand(context.Background(), "dir", "ls")
	require.NoError(t, err)
	assert.Equal(t, 2, out.ExitStatus)
	assert.Equal(t, "out", out.Stdout)
	assert.Equal(t, "RunCommand(dir, ls)", f.actions.Calls()[0].String())
}

func TestCaptureScreen(t *testing.T) {
	f := newFixture(t)

	shot, err := f.engine.CaptureScreen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, shot.Width)
	assert.Equal(t, 4, shot.Height)

	shot, err = f.engine.CaptureMonitorByName(context.Background(), "display-0")
	require.NoError(t, err)
	assert.NotNil(t, shot)
}

func TestFindWindowByCriteria(t *testing.T) {
	f := newFixture(t)

	w, err := f.engine.FindWindowByCriteria(context.Background(), "calc", 200*time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, f.calcWin, w.Node())

	start := time.Now()
	_, err = f.engine.FindWindowByCriteria(context.Background(), "zzz", 100*time.Millisecond)
	assert.ErrorIs(t, err, uia.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestIsBrowser(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"chrome.exe", true},
		{"Google Chrome", true},
		{"msedge", true},
		{"Firefox", true},
		{"notepad.exe", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uia.IsBrowser(tt.name), tt.name)
	}
}

func TestActivateBrowserWindowByTitle(t *testing.T) {
	f := newFixture(t)
	f.actions.Windows = []uia.WindowInfo{
		{PID: 11, Title: "GitHub notes", AppName: "notepad"},
		{PID: 10, Title: "GitHub - Google Chrome", AppName: "chrome"},
	}

	require.NoError(t, f.engine.ActivateBrowserWindowByTitle("github"))
	calls := f.actions.CallsTo("ActivateWindow")
	require.Len(t, calls, 1)
	assert.Equal(t, []any{10}, calls[0].Args)

	err := f.engine.ActivateBrowserWindowByTitle("gitlab")
	assert.ErrorIs(t, err, uia.ErrNotFound)
}

func TestWindowOwnerAndForeground(t *testing.T) {
	f := newFixture(t)

	info, err := f.engine.WindowOwner(200)
	require.NoError(t, err)
	assert.Equal(t, "Calculator", info.AppName)
	assert.Equal(t, "Calculator", info.Title)
	assert.Equal(t, 200, info.PID)

	_, err = f.engine.WindowOwner(999)
	assert.ErrorIs(t, err, uia.ErrNotFound)

	require.NoError(t, f.editor.SetFocus())
	fg, err := f.engine.ForegroundWindow()
	require.NoError(t, err)
	assert.Equal(t, "Untitled - Notepad", fg.Title)
}

func TestCurrentBrowserWindow(t *testing.T) {
	f := newFixture(t)
	f.backend.Foreground = &uia.WindowInfo{PID: 200, Title: "Calculator", AppName: "notepad"}

	_, err := f.engine.CurrentBrowserWindow(context.Background())
	assert.ErrorIs(t, err, uia.ErrNotFound, "前台不是浏览器")

	f.backend.Foreground.AppName = "chrome"
	w, err := f.engine.CurrentBrowserWindow(context.Background())
	require.NoError(t, err)
	assert.Same(t, f.calcWin, w.Node())
}

func TestEngineClose(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "memory", f.engine.Name())
	require.NoError(t, f.engine.Close())
	assert.Equal(t, 1, f.backend.Closed())
}
