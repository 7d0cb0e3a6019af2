package uia_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/uia"
	"github.com/zoeyai/uiauto/pkg/uia/uiatest"
)

func TestLocatorFirstPreOrder(t *testing.T) {
	f := newFixture(t)

	el, err := f.engine.Locator("role=button AND name=OK").First()
	require.NoError(t, err)
	assert.Equal(t, 100, pidOf(t, el), "先序遍历应先命中 Notepad 中的按钮")
	assert.Same(t, f.notepadOK, el.Node())
}

func TestLocatorChain(t *testing.T) {
	f := newFixture(t)

	el, err := f.engine.Locator("role=window AND name=Calculator >> name=OK").First()
	require.NoError(t, err)
	assert.Same(t, f.calcOK, el.Node())

	loc := f.engine.Locator("role=window AND name=Calculator").Locator("role=button")
	assert.Equal(t, "role=window AND name=Calculator >> role=button", loc.Selector())
	all, err := loc.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLocatorTimeout(t *testing.T) {
	f := newFixture(t)

	const timeout, poll = 150 * time.Millisecond, 50 * time.Millisecond
	start := time.Now()
	_, err := f.engine.Locator("name=Missing").First(uia.WithTimeout(timeout), uia.WithPollInterval(poll))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, uia.ErrTimeout)
	assert.Contains(t, err.Error(), "name=Missing", "超时错误应包含选择器")
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+poll, "超时后最多再等一个轮询间隔")
}

// singleButtonTree desktop > app > window > button "OK"
func singleButtonTree(t *testing.T) (*uia.Engine, *uiatest.Node) {
	t.Helper()
	ok := uiatest.Button("OK", uia.Rect{X: 10, Y: 10, Width: 80, Height: 30})
	root := uiatest.Desktop(uiatest.App("Dialog", 400,
		uiatest.Window("Confirm", uia.Rect{Width: 300, Height: 200}, ok)))
	cfg := uia.DefaultConfig()
	cfg.Locator.PollInterval = 100 * time.Millisecond
	engine, _, _ := uiatest.NewEngine(root, cfg)
	return engine, ok
}

func TestLocatorQuotedEndToEnd(t *testing.T) {
	engine, ok := singleButtonTree(t)

	el, err := engine.Locator(`role=button AND name="OK"`).First(uia.WithTimeout(2 * time.Second))
	require.NoError(t, err)
	assert.Same(t, ok, el.Node())

	const timeout = time.Second
	start := time.Now()
	_, err = engine.Locator(`role=button AND name="Cancel"`).First(uia.WithTimeout(timeout))
	elapsed := time.Since(start)
	assert.ErrorIs(t, err, uia.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+100*time.Millisecond, "超时后最多再等一个轮询间隔")
}

func TestLocatorAllIdempotent(t *testing.T) {
	f := newFixture(t)
	loc := f.engine.Locator("role=button")

	first, err := loc.All()
	require.NoError(t, err)
	second, err := loc.All()
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Same(t, first[i].Node(), second[i].Node(), "树未变化时两次结果的顺序应一致")
	}
}

// TestLocatorChainNestedParents 父级匹配互相嵌套时结果不重复且保持先序
//
//	window
//	└── group "outer"
//	    ├── group "inner"
//	    │   └── button "A"
//	    └── button "B"
//	button "C"
func TestLocatorChainNestedParents(t *testing.T) {
	a := uiatest.Button("A", uia.Rect{Width: 10, Height: 10})
	b := uiatest.Button("B", uia.Rect{Width: 10, Height: 10})
	c := uiatest.Button("C", uia.Rect{Width: 10, Height: 10})
	inner := uiatest.NewNode(uiatest.Props{Role: "group", Name: "inner", Enabled: true}, a)
	outer := uiatest.NewNode(uiatest.Props{Role: "group", Name: "outer", Enabled: true}, inner, b)
	root := uiatest.Desktop(uiatest.App("Form", 500,
		uiatest.Window("Form", uia.Rect{Width: 400, Height: 300}, outer, c)))
	engine, _, _ := uiatest.NewEngine(root, uia.DefaultConfig())

	found, err := engine.Locator("role=group >> role=button").All()
	require.NoError(t, err)
	require.Len(t, found, 2, "内层分组中的按钮只应出现一次")
	assert.Same(t, a, found[0].Node())
	assert.Same(t, b, found[1].Node())

	el, err := engine.Locator("role=group >> role=button").First()
	require.NoError(t, err)
	assert.Same(t, a, el.Node())

	groups, err := engine.Locator("role=window >> role=group").All()
	require.NoError(t, err)
	require.Len(t, groups, 2, "末级仍返回所有匹配，包括嵌套的")
	assert.Same(t, outer, groups[0].Node())
	assert.Same(t, inner, groups[1].Node())
}

func TestLocatorZeroTimeoutSinglePass(t *testing.T) {
	f := newFixture(t)

	el, err := f.engine.Locator("name=Cancel").First(uia.WithTimeout(0))
	require.NoError(t, err)
	assert.Same(t, f.calcCancel, el.Node())

	_, err = f.engine.Locator("name=Missing").First(uia.WithTimeout(0))
	assert.ErrorIs(t, err, uia.ErrTimeout)
}

// TestLocatorWaitsForLateElement 元素在等待期间出现
func TestLocatorWaitsForLateElement(t *testing.T) {
	f := newFixture(t)

	go func() {
		time.Sleep(80 * time.Millisecond)
		f.calcWin.Add(uiatest.Button("Apply", uia.Rect{X: 1030, Y: 10, Width: 50, Height: 30}))
	}()

	el, err := f.engine.Locator("name=Apply").First(uia.WithTimeout(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 200, pidOf(t, el), "新节点继承应用 PID")
}

func TestLocatorAll(t *testing.T) {
	f := newFixture(t)

	buttons, err := f.engine.Locator("role=button").All()
	require.NoError(t, err)
	require.Len(t, buttons, 3)
	assert.Same(t, f.notepadOK, buttons[0].Node())
	assert.Same(t, f.calcOK, buttons[1].Node())
	assert.Same(t, f.calcCancel, buttons[2].Node())
}

func TestLocatorAllNoRetryByDefault(t *testing.T) {
	f := newFixture(t, func(c *uia.Config) { c.Locator.Timeout = 5 * time.Second })

	start := time.Now()
	found, err := f.engine.Locator("name=Missing").All()
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Less(t, time.Since(start), time.Second, "未显式指定超时时 All 只遍历一次")
}

func TestLocatorAllRetriesWithExplicitTimeout(t *testing.T) {
	f := newFixture(t)

	start := time.Now()
	found, err := f.engine.Locator("name=Missing").All(uia.WithTimeout(120 * time.Millisecond))
	require.NoError(t, err, "All 超时后返回空结果而不是错误")
	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}

func TestLocatorInvalidSelector(t *testing.T) {
	f := newFixture(t)

	rootCalls, childCalls := f.backend.RootCalls(), f.root.ChildrenCalls()
	loc := f.engine.Locator("role=button AND")
	require.Error(t, loc.Err())

	_, err := loc.First()
	assert.ErrorIs(t, err, uia.ErrInvalidSelector)
	_, err = loc.All()
	assert.ErrorIs(t, err, uia.ErrInvalidSelector)

	_, err = f.engine.Locator("role=button").Locator("oops").First()
	assert.ErrorIs(t, err, uia.ErrInvalidSelector, "子定位器解析错误同样返回")

	_, err = f.engine.Locator(`role=button AND name="OK`).First(uia.WithTimeout(time.Second))
	assert.ErrorIs(t, err, uia.ErrInvalidSelector, "未闭合的引号")
	assert.Equal(t, rootCalls, f.backend.RootCalls(), "解析失败时不应访问元素树")
	assert.Equal(t, childCalls, f.root.ChildrenCalls(), "解析失败时不应访问元素树")
}

func TestLocatorWithinExcludesScope(t *testing.T) {
	f := newFixture(t)
	win := uia.NewElement(f.calcWin, f.engine)

	found, err := win.Locator("role=window").All()
	require.NoError(t, err)
	assert.Empty(t, found, "范围元素本身不参与匹配")

	el, err := win.Locator("name=OK").First()
	require.NoError(t, err)
	assert.Same(t, f.calcOK, el.Node(), "只在范围子树内查找")
}

func TestLocatorSkipsStaleBranch(t *testing.T) {
	f := newFixture(t)
	f.notepadWin.SetStale(true)

	el, err := f.engine.Locator("name=OK").First()
	require.NoError(t, err)
	assert.Same(t, f.calcOK, el.Node(), "失效分支被跳过")
}

func TestLocatorEmptySelectorMatchesNothing(t *testing.T) {
	f := newFixture(t)

	found, err := uia.NewSelectorLocator(f.engine, uia.NewSelector()).All()
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLocatorRootFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.RootErr = uiatest.ErrStale

	role, err := f.engine.Root().Role()
	require.NoError(t, err)
	assert.Equal(t, uia.RoleDesktop, role, "根节点获取失败时返回空桌面")

	_, err = f.engine.Locator("name=OK").First(uia.WithTimeout(50 * time.Millisecond))
	assert.ErrorIs(t, err, uia.ErrTimeout)
}

func TestLocatorWithOptionsDoesNotMutate(t *testing.T) {
	f := newFixture(t)

	base := f.engine.Locator("name=Missing")
	fast := base.WithOptions(uia.WithTimeout(10 * time.Millisecond))

	start := time.Now()
	_, err := fast.First()
	assert.ErrorIs(t, err, uia.ErrTimeout)
	assert.Less(t, time.Since(start), 250*time.Millisecond)

	start = time.Now()
	_, err = base.First()
	assert.ErrorIs(t, err, uia.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond, "原定位器保持引擎默认超时")
}
