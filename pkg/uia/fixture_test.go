package uia_test

import (
	"testing"
	"time"

	"github.com/zoeyai/uiauto/pkg/uia"
	"github.com/zoeyai/uiauto/pkg/uia/uiatest"
)

// desktopFixture 测试用桌面：
//
//	desktop
//	├── Notepad (100)
//	│   └── window "Untitled - Notepad"
//	│       ├── button "OK"
//	│       └── edit #15 "Text Editor"
//	├── Calculator (200)
//	│   └── window "Calculator"
//	│       ├── button "OK"
//	│       └── button "Cancel"
//	└── Daemon (300)
type desktopFixture struct {
	engine  *uia.Engine
	backend *uiatest.Backend
	actions *uiatest.Actions

	root       *uiatest.Node
	notepad    *uiatest.Node
	notepadWin *uiatest.Node
	notepadOK  *uiatest.Node
	editor     *uiatest.Node
	calc       *uiatest.Node
	calcWin    *uiatest.Node
	calcOK     *uiatest.Node
	calcCancel *uiatest.Node
}

func newFixture(t *testing.T, mutate ...func(*uia.Config)) *desktopFixture {
	t.Helper()

	f := &desktopFixture{}
	f.notepadOK = uiatest.Button("OK", uia.Rect{X: 10, Y: 10, Width: 80, Height: 30})
	f.editor = uiatest.NewNode(uiatest.Props{
		Role:         uia.RoleEdit,
		Name:         "Text Editor",
		AutomationID: "15",
		ClassName:    "Edit",
		Value:        "hello",
		Bounds:       uia.Rect{X: 0, Y: 50, Width: 800, Height: 550},
		Enabled:      true,
	})
	f.notepadWin = uiatest.Window("Untitled - Notepad", uia.Rect{Width: 800, Height: 600}, f.notepadOK, f.editor)
	f.notepad = uiatest.App("Notepad", 100, f.notepadWin)

	f.calcOK = uiatest.Button("OK", uia.Rect{X: 910, Y: 10, Width: 50, Height: 30})
	f.calcCancel = uiatest.Button("Cancel", uia.Rect{X: 970, Y: 10, Width: 50, Height: 30})
	f.calcWin = uiatest.Window("Calculator", uia.Rect{X: 900, Width: 300, Height: 400}, f.calcOK, f.calcCancel)
	f.calc = uiatest.App("Calculator", 200, f.calcWin)

	f.root = uiatest.Desktop(f.notepad, f.calc, uiatest.App("Daemon", 300))

	cfg := uia.DefaultConfig()
	cfg.Locator.Timeout = 300 * time.Millisecond
	cfg.Locator.PollInterval = 20 * time.Millisecond
	for _, m := range mutate {
		m(&cfg)
	}
	f.engine, f.backend, f.actions = uiatest.NewEngine(f.root, cfg)
	return f
}

func pidOf(t *testing.T, e *uia.Element) int {
	t.Helper()
	pid, err := e.ProcessID()
	if err != nil {
		t.Fatalf("读取 PID 失败: %v", err)
	}
	return pid
}
