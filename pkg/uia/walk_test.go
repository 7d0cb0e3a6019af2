package uia_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zoeyai/uiauto/pkg/uia"
)

func names(seq func(func(uia.Node) bool)) []string {
	var out []string
	for n := range seq {
		name, _ := n.Name()
		out = append(out, name)
	}
	return out
}

func TestWalkPreOrder(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{
		"",
		"Notepad", "Untitled - Notepad", "OK", "Text Editor",
		"Calculator", "Calculator", "OK", "Cancel",
		"Daemon",
	}, names(uia.Walk(f.root, 0)))

	assert.Equal(t, []string{"Untitled - Notepad", "OK", "Text Editor"}, names(uia.Descendants(f.notepad, 0)), "Descendants 不包含起点")
}

func TestWalkMaxDepth(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"", "Notepad", "Calculator", "Daemon"}, names(uia.Walk(f.root, 1)))
}

func TestWalkStopsEarly(t *testing.T) {
	f := newFixture(t)

	visited := 0
	for range uia.Walk(f.root, 0) {
		visited++
		if visited == 3 {
			break
		}
	}
	assert.Equal(t, 3, visited)
}

func TestWalkSkipsFailingBranch(t *testing.T) {
	f := newFixture(t)
	f.notepadWin.FailChildren(errors.New("RPC 调用失败"))

	assert.Equal(t, []string{
		"",
		"Notepad", "Untitled - Notepad",
		"Calculator", "Calculator", "OK", "Cancel",
		"Daemon",
	}, names(uia.Walk(f.root, 0)))
}

func TestWalkNilRoot(t *testing.T) {
	assert.Empty(t, names(uia.Walk(nil, 0)))
}

func TestOutermostSkipsNestedMatches(t *testing.T) {
	f := newFixture(t)
	named := func(want string) func(uia.Node) bool {
		return func(n uia.Node) bool {
			name, _ := n.Name()
			return name == want
		}
	}

	got := uia.Outermost(f.root, 0, named("Calculator"))
	assert.Len(t, got, 1, "窗口与应用同名时只保留应用")
	assert.Same(t, f.calc, got[0])

	isButton := func(n uia.Node) bool {
		role, _ := n.Role()
		return role == uia.RoleButton
	}
	assert.Equal(t, []string{"OK", "OK", "Cancel"}, names(slices.Values(uia.Outermost(f.root, 0, isButton))))

	got = uia.Outermost(f.calc, 0, named("Calculator"))
	assert.Len(t, got, 1, "起点本身不参与匹配")
	assert.Same(t, f.calcWin, got[0])
}
