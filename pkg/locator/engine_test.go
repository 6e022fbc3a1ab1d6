package locator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/locator/fake"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
)

// tree 测试用的窗口树
//
//	desktop
//	├── w1 Notepad (1234)
//	│   ├── e0 Edit
//	│   └── panel Panel
//	│       └── e1 Edit
//	└── w2 Other (99)
//	    └── e2 Edit
type tree struct {
	desktop, w1, w2, e0, e1, e2, panel *fake.Node
}

func newTree() *tree {
	t := &tree{
		desktop: fake.Desktop(),
		w1:      fake.New(locator.KindTopLevel, "ClassName", "Notepad", "ProcessId", "1234", "Text", "无标题"),
		w2:      fake.New(locator.KindTopLevel, "ClassName", "Other", "ProcessId", "99"),
		e0:      fake.New(locator.KindElement, "ClassName", "Edit", "ProcessId", "1234", "ControlId", "100"),
		panel:   fake.New(locator.KindElement, "ClassName", "Panel", "ProcessId", "1234"),
		e1:      fake.New(locator.KindElement, "ClassName", "Edit", "ProcessId", "1234", "ControlId", "101"),
		e2:      fake.New(locator.KindElement, "ClassName", "Edit", "ProcessId", "99"),
	}
	t.panel.Add(t.e1)
	t.w1.Add(t.e0, t.panel)
	t.w2.Add(t.e2)
	t.desktop.Add(t.w1, t.w2)
	return t
}

func search(t *testing.T, root locator.Node, path string) []locator.Node {
	t.Helper()
	nodes, err := locator.NewEngine().Search(root, qpath.MustParse(path))
	require.NoError(t, err)
	return nodes
}

func assertNodes(t *testing.T, want []*fake.Node, got []locator.Node) {
	t.Helper()
	require.Len(t, got, len(want), "结果数量: %v", got)
	for i := range want {
		assert.True(t, locator.Equal(want[i], got[i]), "第 %d 个结果应为 %s, 实际 %s",
			i, locator.Describe(want[i]), locator.Describe(got[i]))
	}
}

func TestSearchScenarioInstanceFilter(t *testing.T) {
	tr := newTree()
	got := search(t, tr.desktop, `/ClassName="Edit" && ProcessId="1234"/Instance="0"`)
	assertNodes(t, []*fake.Node{tr.e0}, got)
}

func TestSearchConjunction(t *testing.T) {
	tr := newTree()

	assertNodes(t, []*fake.Node{tr.e0, tr.e1, tr.e2}, search(t, tr.desktop, `/ClassName="Edit"`))
	assertNodes(t, []*fake.Node{tr.e0, tr.e1}, search(t, tr.desktop, `/ClassName="Edit" && ProcessId="1234"`))
	assertNodes(t, []*fake.Node{tr.e1}, search(t, tr.desktop, `/ClassName="Edit" && ControlId="0x65"`))
	assert.Empty(t, search(t, tr.desktop, `/ClassName="Edit" && NoSuchProperty="x"`))
}

func TestSearchDeterministic(t *testing.T) {
	tr := newTree()
	p := qpath.MustParse(`/ProcessId~="."`)
	e := locator.NewEngine()

	first, err := e.Search(tr.desktop, p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Search(tr.desktop, p)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.True(t, locator.Equal(first[j], again[j]))
		}
	}
}

func TestSearchInstanceSubset(t *testing.T) {
	tr := newTree()
	all := search(t, tr.desktop, `/ClassName="Edit"`)
	require.Len(t, all, 3)

	for k := -3; k < 3; k++ {
		got := search(t, tr.desktop, fmt.Sprintf(`/ClassName="Edit" && Instance="%d"`, k))
		require.Len(t, got, 1, "Instance=%d", k)
		idx := k
		if idx < 0 {
			idx += len(all)
		}
		assert.True(t, locator.Equal(all[idx], got[0]), "Instance=%d", k)
	}

	assert.Empty(t, search(t, tr.desktop, `/ClassName="Edit" && Instance="3"`))
	assert.Empty(t, search(t, tr.desktop, `/ClassName="Edit" && Instance="-4"`))
}

func TestSearchMaxDepth(t *testing.T) {
	tr := newTree()
	assertNodes(t, []*fake.Node{tr.e0, tr.e2}, search(t, tr.desktop, `/ClassName="Edit" && MaxDepth="2"`))
	assert.Empty(t, search(t, tr.desktop, `/ClassName="Edit" && MaxDepth="1"`))
}

func TestSearchMultiSegment(t *testing.T) {
	tr := newTree()

	assertNodes(t, []*fake.Node{tr.e0, tr.e1}, search(t, tr.desktop, `/ClassName="Notepad"/ClassName="Edit"`))
	assertNodes(t, []*fake.Node{tr.e1}, search(t, tr.desktop, `/ClassName="Panel"/ClassName="Edit"`))

	// 工作集 [w1 e0 panel e1]，e1 从 w1 和 panel 下都能找到，只保留一次
	assertNodes(t, []*fake.Node{tr.e0, tr.e1}, search(t, tr.desktop, `/ProcessId="1234"/ClassName="Edit"`))

	// Instance 对每个根分别计数
	assertNodes(t, []*fake.Node{tr.e0, tr.e2},
		search(t, tr.desktop, `/ClassName~="^(Notepad|Other)$"/ClassName="Edit" && Instance="0"`))
}

func TestSearchNoMatchReportsSegment(t *testing.T) {
	tr := newTree()
	nodes, matched, err := locator.NewEngine().SearchPartial(tr.desktop,
		qpath.MustParse(`/ClassName="Notepad"/ClassName="Missing"/ClassName="Edit"`))
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Equal(t, 1, matched)
}

func TestSearchSkipsInvalidChild(t *testing.T) {
	tr := newTree()
	tr.e0.Kill()
	assertNodes(t, []*fake.Node{tr.e1, tr.e2}, search(t, tr.desktop, `/ClassName="Edit"`))

	tr.e0.Revive()
	tr.panel.FailChildren(fake.ErrEnumerate)
	assertNodes(t, []*fake.Node{tr.e0, tr.e2}, search(t, tr.desktop, `/ClassName="Edit"`))
}

func TestSearchRootInvalid(t *testing.T) {
	tr := newTree()
	p := qpath.MustParse(`/ClassName="Edit"`)

	tr.w1.Kill()
	_, err := locator.NewEngine().Search(tr.w1, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, locator.ErrRootInvalid))

	var rie *locator.RootInvalidError
	assert.True(t, errors.As(err, &rie))

	tr.w1.Revive()
	tr.w1.FailChildren(fake.ErrEnumerate)
	_, err = locator.NewEngine().Search(tr.w1, p)
	assert.True(t, errors.Is(err, locator.ErrRootInvalid))
	assert.True(t, errors.Is(err, fake.ErrEnumerate))

	_, err = locator.NewEngine().Search(nil, p)
	assert.True(t, errors.Is(err, locator.ErrRootInvalid))
}

func TestSearchTopLevelFence(t *testing.T) {
	tr := newTree()
	popup := fake.New(locator.KindTopLevel, "ClassName", "Popup")
	popup.Add(fake.New(locator.KindElement, "ClassName", "Edit"))
	tr.w1.Add(popup)

	// 从窗口内部出发时不进入其他顶层窗口
	assertNodes(t, []*fake.Node{tr.e0, tr.e1}, search(t, tr.w1, `/ClassName="Edit"`))
	assert.Empty(t, search(t, tr.desktop, `/ClassName="Popup"`))

	// 桌面的直接子节点不受限制
	assertNodes(t, []*fake.Node{tr.w2}, search(t, tr.desktop, `/ClassName="Other"`))
}

func TestSearchNilPath(t *testing.T) {
	tr := newTree()
	nodes, err := locator.NewEngine().Search(tr.w1, nil)
	require.NoError(t, err)
	assertNodes(t, []*fake.Node{tr.w1}, nodes)
}

func TestSearchBridge(t *testing.T) {
	tr := newTree()
	uiaRoot := fake.NewBackend("uia", locator.KindElement, "ControlType", "Window")
	ok := fake.NewBackend("uia", locator.KindElement, "Name", "OK", "ControlType", "Button")
	cancel := fake.NewBackend("uia", locator.KindElement, "Name", "Cancel", "ControlType", "Button")
	uiaRoot.Add(ok, cancel)

	e := locator.NewEngine(locator.WithBridge("UIA", func(n locator.Node) ([]locator.Node, error) {
		if locator.Equal(n, tr.w1) {
			return []locator.Node{uiaRoot}, nil
		}
		return nil, errors.New("没有 UIA 树")
	}))

	nodes, err := e.Search(tr.desktop, qpath.MustParse(`/ClassName="Notepad"/UIType="UIA"/Name="OK"`))
	require.NoError(t, err)
	assertNodes(t, []*fake.Node{ok}, nodes)

	nodes, err = e.Search(tr.desktop, qpath.MustParse(`/ProcessId~="."/uitype="uia" && ControlType="Button"`))
	require.NoError(t, err)
	assertNodes(t, []*fake.Node{ok, cancel}, nodes)

	_, err = locator.NewEngine().Search(tr.desktop, qpath.MustParse(`/ClassName="Notepad"/UIType="UIA"`))
	assert.True(t, errors.Is(err, locator.ErrNoBridge))
}

func TestUnknownUITypeIsParseError(t *testing.T) {
	tr := newTree()
	in := `/ClassName="Notepad"/ Name="x" && UIType="Nope"`

	_, matched, err := locator.NewEngine().SearchPartial(tr.desktop, qpath.MustParse(in))
	var pe *qpath.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, in, pe.Input)
	assert.Equal(t, 34, pe.Pos, "应指向 UIType 条件")
	assert.Equal(t, 1, matched)
	assert.ErrorIs(t, err, locator.ErrNoBridge)
	assert.Contains(t, err.Error(), "Nope")
}

func TestWalk(t *testing.T) {
	tr := newTree()

	depths := map[string]int{}
	err := locator.Walk(tr.desktop, 0, func(n locator.Node, depth int) error {
		depths[n.Handle()] = depth
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, depths, 7)
	assert.Equal(t, 3, depths[tr.e1.Handle()])

	count := 0
	err = locator.Walk(tr.desktop, 1, func(n locator.Node, depth int) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stop := errors.New("stop")
	err = locator.Walk(tr.desktop, 0, func(n locator.Node, depth int) error {
		if locator.Equal(n, tr.panel) {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestMatches(t *testing.T) {
	n := fake.New(locator.KindElement, "ClassName", "Button", "Text", "确定", "Enabled", "True")

	tests := []struct {
		in string
		ok bool
	}{
		{`ClassName="Button"`, true},
		{`classname="Button" && Text~="^确"`, true},
		{`Enabled="true"`, true},
		{`ClassName="Button" && Text="取消"`, false},
		{`AutomationId="ok"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			preds := qpath.MustParse(tt.in).Segments[0].Predicates
			assert.Equal(t, tt.ok, locator.Matches(n, preds))
		})
	}
	assert.True(t, locator.Matches(n, nil), "没有条件时总是满足")
}
