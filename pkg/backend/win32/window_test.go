package win32

import (
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
)

type fakeWin struct {
	parent    uintptr
	class     string
	text      string
	pid       int
	ctrlID    int
	style     uint32
	hidden    bool
	disabled  bool
	rect      locator.Rect
	destroyed bool
}

// fakeAPI 内存中的窗口表，顺序由 order 决定
type fakeAPI struct {
	wins      map[uintptr]*fakeWin
	order     []uintptr
	activated []uintptr
	focused   []uintptr
}

const fakeDesktop = 0x10010

func newFakeAPI() *fakeAPI {
	return &fakeAPI{wins: map[uintptr]*fakeWin{}}
}

func (f *fakeAPI) add(hwnd uintptr, w *fakeWin) {
	f.wins[hwnd] = w
	f.order = append(f.order, hwnd)
}

func (f *fakeAPI) desktop() uintptr { return fakeDesktop }

func (f *fakeAPI) topLevel() ([]uintptr, error) {
	return f.children(fakeDesktop)
}

func (f *fakeAPI) children(hwnd uintptr) ([]uintptr, error) {
	var out []uintptr
	for _, h := range f.order {
		if w := f.wins[h]; !w.destroyed && w.parent == hwnd {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeAPI) parent(hwnd uintptr) uintptr {
	if w, ok := f.wins[hwnd]; ok {
		return w.parent
	}
	return 0
}

func (f *fakeAPI) isWindow(hwnd uintptr) bool {
	w, ok := f.wins[hwnd]
	return ok && !w.destroyed
}

func (f *fakeAPI) className(hwnd uintptr) string { return f.wins[hwnd].class }
func (f *fakeAPI) text(hwnd uintptr) string      { return f.wins[hwnd].text }
func (f *fakeAPI) threadProcessID(hwnd uintptr) (int, int) {
	return 7, f.wins[hwnd].pid
}
func (f *fakeAPI) controlID(hwnd uintptr) int { return f.wins[hwnd].ctrlID }
func (f *fakeAPI) style(hwnd uintptr) (uint32, uint32) {
	return f.wins[hwnd].style, 0
}
func (f *fakeAPI) visible(hwnd uintptr) bool { return !f.wins[hwnd].hidden }
func (f *fakeAPI) enabled(hwnd uintptr) bool { return !f.wins[hwnd].disabled }
func (f *fakeAPI) rect(hwnd uintptr) (locator.Rect, bool) {
	return f.wins[hwnd].rect, true
}
func (f *fakeAPI) activate(hwnd uintptr) error {
	f.activated = append(f.activated, hwnd)
	return nil
}
func (f *fakeAPI) focus(hwnd uintptr) error {
	if !f.isWindow(hwnd) {
		return errors.New("invalid")
	}
	f.focused = append(f.focused, hwnd)
	return nil
}

// withFake 替换平台实现，测试结束后恢复
func withFake(t *testing.T) *fakeAPI {
	t.Helper()
	f := newFakeAPI()
	old := sys
	sys = f
	t.Cleanup(func() { sys = old })
	return f
}

func notepad(f *fakeAPI) {
	f.add(0x100, &fakeWin{parent: fakeDesktop, class: "Notepad", text: "无标题 - 记事本", pid: 1234,
		rect: locator.Rect{Left: 10, Top: 20, Width: 300, Height: 200}})
	f.add(0x101, &fakeWin{parent: 0x100, class: "Edit", pid: 1234, ctrlID: 15, style: 0x50200104})
	f.add(0x102, &fakeWin{parent: 0x100, class: "msctls_statusbar32", pid: 1234, hidden: true})
	f.add(0x200, &fakeWin{parent: fakeDesktop, class: "Edit", pid: 99})
	f.add(0x103, &fakeWin{parent: 0x101, class: "Edit", pid: 1234, disabled: true})
}

func TestWindowKindAndParent(t *testing.T) {
	f := withFake(t)
	notepad(f)

	d := Desktop()
	assert.Equal(t, locator.KindDesktop, d.Kind())
	assert.True(t, d.Valid())
	assert.Equal(t, locator.KindTopLevel, FromHandle(0x100).Kind())
	assert.Equal(t, locator.KindElement, FromHandle(0x101).Kind())

	p, err := FromHandle(0x100).Parent()
	require.NoError(t, err)
	assert.True(t, locator.Equal(d, p))

	p, err = d.Parent()
	require.NoError(t, err)
	assert.Nil(t, p)

	top, err := FromHandle(0x103).TopLevel()
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x100), top.HWnd())
}

func TestWindowChildrenDirectOnly(t *testing.T) {
	f := withFake(t)
	notepad(f)

	children, err := FromHandle(0x100).Children()
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "0x101", children[0].Handle())
	assert.Equal(t, "0x102", children[1].Handle())

	tops, err := Desktop().Children()
	require.NoError(t, err)
	assert.Len(t, tops, 2)
}

func TestWindowProperties(t *testing.T) {
	f := withFake(t)
	notepad(f)
	w := FromHandle(0x101)

	tests := []struct {
		name string
		want string
	}{
		{"ClassName", "Edit"},
		{"classname", "Edit"},
		{"ProcessId", "1234"},
		{"ThreadId", "7"},
		{"ControlId", "15"},
		{"Style", "0x50200104"},
		{"ExStyle", "0x00000000"},
		{"Visible", "true"},
		{"Enabled", "true"},
		{"HWnd", strconv.Itoa(0x101)},
	}
	for _, tt := range tests {
		got, ok := w.Property(tt.name)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	v, ok := FromHandle(0x100).Property("Caption")
	assert.True(t, ok)
	assert.Equal(t, "无标题 - 记事本", v)

	v, _ = FromHandle(0x100).Property("Width")
	assert.Equal(t, "300", v)
	v, _ = FromHandle(0x100).Property("BoundingRect")
	assert.Equal(t, "(10,20,300,200)", v)

	_, ok = w.Property("NoSuchThing")
	assert.False(t, ok)

	f.wins[0x101].destroyed = true
	_, ok = w.Property("ClassName")
	assert.False(t, ok, "失效窗口不应返回属性")
	_, err := w.Children()
	assert.ErrorIs(t, err, locator.ErrNodeInvalid)
}

func TestWindowProcessName(t *testing.T) {
	f := withFake(t)
	f.add(0x300, &fakeWin{parent: fakeDesktop, class: "Self", pid: os.Getpid()})

	name, ok := FromHandle(0x300).Property("ProcessName")
	require.True(t, ok)
	assert.NotEmpty(t, name)
	t.Logf("ProcessName=%s", name)
}

func TestWindowSearch(t *testing.T) {
	f := withFake(t)
	notepad(f)
	e := locator.NewEngine()

	nodes, err := e.Search(Desktop(), qpath.MustParse(`/ClassName="Edit" && ProcessId="1234"/Instance="0"`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "0x101", nodes[0].Handle())

	nodes, err = e.Search(Desktop(), qpath.MustParse(`/ClassName="Notepad"/Visible="False"`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "0x102", nodes[0].Handle())

	nodes, err = e.Search(Desktop(), qpath.MustParse(`/ClassName="Edit" && Enabled="0"`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "0x103", nodes[0].Handle())

	nodes, err = e.Search(Desktop(), qpath.MustParse(`/ClassName="Edit" && ControlId="0xF"`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestWindowSetFocus(t *testing.T) {
	f := withFake(t)
	notepad(f)

	require.NoError(t, FromHandle(0x101).SetFocus())
	assert.Equal(t, []uintptr{0x100}, f.activated)
	assert.Equal(t, []uintptr{0x101}, f.focused)

	require.NoError(t, FromHandle(0x100).SetFocus())
	assert.Equal(t, []uintptr{0x100, 0x100}, f.activated)
	assert.Len(t, f.focused, 1, "顶层窗口只需要激活")
}
