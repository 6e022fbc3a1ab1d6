package webframe

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/devtools/devtoolstest"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/locator/fake"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// fakeBrowser 帧树 F0 -> F1(login) -> F2(captcha)，F0/F1 在 Runtime.enable 时就有上下文
type fakeBrowser struct {
	*devtoolstest.Server

	mu   sync.Mutex
	tree *devtools.FrameTree
}

func newFakeBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	fb := &fakeBrowser{Server: devtoolstest.New(t)}
	fb.tree = &devtools.FrameTree{
		Frame: devtools.Frame{ID: "F0", LoaderID: "L0", URL: "https://example.com/",
			SecurityOrigin: "https://example.com", MimeType: "text/html"},
		ChildFrames: []*devtools.FrameTree{{
			Frame: devtools.Frame{ID: "F1", ParentID: "F0", LoaderID: "L1", Name: "login",
				URL: "https://example.com/login"},
			ChildFrames: []*devtools.FrameTree{{
				Frame: devtools.Frame{ID: "F2", ParentID: "F1", LoaderID: "L2", Name: "captcha", URL: "about:blank"},
			}},
		}},
	}
	fb.AddPage("A", "示例首页", "https://example.com/")

	fb.Handle(devtools.MethodGetFrameTree, func(json.RawMessage) (any, *devtools.Error) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		data, _ := json.Marshal(devtools.GetFrameTreeResult{FrameTree: fb.tree})
		return json.RawMessage(data), nil
	})
	fb.Handle(devtools.MethodRuntimeEnable, func(json.RawMessage) (any, *devtools.Error) {
		fb.contextCreated("F0", 1)
		fb.contextCreated("F1", 2)
		return struct{}{}, nil
	})
	fb.Handle(devtools.MethodEvaluate, evalEcho)
	return fb
}

func (fb *fakeBrowser) contextCreated(frame string, id int) {
	fb.Emit(devtools.EventContextCreated, map[string]any{
		"context": map[string]any{
			"id": id, "origin": "https://example.com", "name": "",
			"auxData": map[string]any{"frameId": frame, "isDefault": true},
		},
	})
}

// evalEcho 返回 {"ctx": contextId, "expr": expression}
func evalEcho(raw json.RawMessage) (any, *devtools.Error) {
	var p devtools.EvaluateParams
	_ = json.Unmarshal(raw, &p)
	if p.Expression == "throw" {
		return map[string]any{
			"result": map[string]any{"type": "object"},
			"exceptionDetails": map[string]any{
				"text":      "Uncaught",
				"exception": map[string]any{"type": "object", "description": "Error: boom"},
			},
		}, nil
	}
	return map[string]any{
		"result": map[string]any{
			"type":  "object",
			"value": map[string]any{"ctx": p.ContextID, "expr": p.Expression},
		},
	}, nil
}

type echo struct {
	Ctx  runtime.ExecutionContextID `json:"ctx"`
	Expr string                     `json:"expr"`
}

func fastPolicy() Option {
	return WithPolicy(retry.New(retry.WithTimeout(2*time.Second), retry.WithInterval(20*time.Millisecond)))
}

func attach(t *testing.T, fb *fakeBrowser) *Page {
	t.Helper()
	b := NewBrowser(fb.URL, fastPolicy())
	t.Cleanup(func() { b.Close() })
	p, err := b.Attach(context.Background(), devtools.PageFilter{})
	require.NoError(t, err)
	return p
}

func decode(t *testing.T, raw json.RawMessage) echo {
	t.Helper()
	var e echo
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

func TestFrameTree(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)
	ctx := context.Background()

	top, err := p.Top(ctx)
	require.NoError(t, err)
	assert.Equal(t, "F0", top.Handle())
	assert.Equal(t, Backend, top.Backend())
	assert.True(t, top.Valid())

	for name, want := range map[string]string{
		"Url":            "https://example.com/",
		"securityorigin": "https://example.com",
		"MimeType":       "text/html",
		"Id":             "F0",
	} {
		got, ok := top.Property(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	children, err := top.Children()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "F1", children[0].Handle())

	nodes, err := locator.NewEngine().Search(top, qpath.MustParse(`/Name="captcha"`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "F2", nodes[0].Handle())

	parent, err := nodes[0].Parent()
	require.NoError(t, err)
	assert.Equal(t, "F1", parent.Handle())

	none, err := top.Parent()
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFrameByPathCache(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)
	ctx := context.Background()

	f, err := p.FrameByPath(ctx, "login", "captcha")
	require.NoError(t, err)
	assert.Equal(t, "F2", f.Handle())
	assert.Equal(t, 1, p.Frames().Len())

	before := fb.CountCalls(devtools.MethodGetFrameTree)
	again, err := p.FrameByPath(ctx, "login", "captcha")
	require.NoError(t, err)
	assert.True(t, locator.Equal(f, again))
	assert.Equal(t, before, fb.CountCalls(devtools.MethodGetFrameTree), "命中缓存时不应重新获取帧树")

	_, err = p.FrameByPath(ctx, "login", "nope")
	assert.ErrorIs(t, err, ErrFrameNotFound)

	// 帧导航后旧节点失效，缓存被清除
	fb.mu.Lock()
	fb.tree.ChildFrames[0].ChildFrames[0].Frame.LoaderID = "L2b"
	fb.mu.Unlock()
	fb.Emit(devtools.EventFrameNavigated, map[string]any{
		"frame": map[string]any{"id": "F2", "parentId": "F1", "loaderId": "L2b", "name": "captcha", "url": "https://captcha.example/"},
	})
	assert.Eventually(t, func() bool { return p.Frames().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, f.Valid())

	fresh, err := p.FrameByPath(ctx, "login", "captcha")
	require.NoError(t, err)
	assert.True(t, fresh.Valid())
	assert.Equal(t, "L2b", fresh.Descriptor().LoaderID)
}

func TestEvalUsesFrameContext(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)

	out, err := p.EvalPath(context.Background(), "document.title", "login")
	require.NoError(t, err)
	e := decode(t, out)
	assert.EqualValues(t, 2, e.Ctx)
	assert.Equal(t, "document.title", e.Expr)
}

func TestEvalWaitsForContext(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)
	ctx := context.Background()

	f, err := p.FrameByPath(ctx, "login", "captcha")
	require.NoError(t, err)
	_, ok := p.Contexts().Get("F2")
	require.False(t, ok)

	go func() {
		time.Sleep(100 * time.Millisecond)
		fb.contextCreated("F2", 3)
	}()

	out, err := f.Eval(ctx, "1+1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, decode(t, out).Ctx)
}

func TestEvalContextDestroyed(t *testing.T) {
	fb := newFakeBrowser(t)
	var once sync.Once
	fb.Handle(devtools.MethodEvaluate, func(raw json.RawMessage) (any, *devtools.Error) {
		var p devtools.EvaluateParams
		_ = json.Unmarshal(raw, &p)
		if p.ContextID == 2 {
			// 页面重新加载：旧上下文销毁，新上下文随后创建
			once.Do(func() { fb.contextCreated("F1", 5) })
			return nil, &devtools.Error{Code: devtools.CodeServerError, Message: "Cannot find context with specified id"}
		}
		return evalEcho(raw)
	})
	p := attach(t, fb)

	out, err := p.EvalPath(context.Background(), "location.href", "login")
	require.NoError(t, err)
	assert.EqualValues(t, 5, decode(t, out).Ctx)
	assert.Equal(t, 2, fb.CountCalls(devtools.MethodEvaluate))
}

func TestEvalException(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)

	_, err := p.EvalPath(context.Background(), "throw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error: boom")
	assert.Equal(t, 1, fb.CountCalls(devtools.MethodEvaluate), "脚本异常不应重试")
}

func TestFrameDetached(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)
	ctx := context.Background()

	login, err := p.FrameByPath(ctx, "login")
	require.NoError(t, err)

	fb.Emit(devtools.EventFrameDetached, map[string]any{"frameId": "F1"})
	assert.Eventually(t, func() bool { return !login.Valid() }, 2*time.Second, 10*time.Millisecond)

	_, ok := p.Contexts().Get("F1")
	assert.False(t, ok)
	_, err = login.Children()
	assert.ErrorIs(t, err, locator.ErrNodeInvalid)
	_, err = login.Eval(ctx, "1")
	assert.ErrorIs(t, err, locator.ErrNodeInvalid)
}

func TestSessionEndInvalidates(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)

	top, err := p.Top(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, p.Contexts().Len())

	fb.DropConnections()
	assert.Eventually(t, func() bool { return p.Contexts().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, top.Valid())
	assert.True(t, p.Closed())
}

func TestContextsCleared(t *testing.T) {
	fb := newFakeBrowser(t)
	p := attach(t, fb)
	require.Equal(t, 2, p.Contexts().Len())

	fb.Emit(devtools.EventContextsCleared, struct{}{})
	assert.Eventually(t, func() bool { return p.Contexts().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBrowserBridge(t *testing.T) {
	fb := newFakeBrowser(t)
	fb.AddPage("B", "登录", "https://example.com/login")

	b := NewBrowser(fb.URL, fastPolicy())
	t.Cleanup(func() { b.Close() })

	desktop := fake.Desktop()
	win := fake.New(locator.KindTopLevel, "ClassName", "Chrome_WidgetWin_1", "Text", "登录 - Google Chrome")
	desktop.Add(win)

	roots, err := b.Bridge(win)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "B", roots[0].(*Frame).Page().Info().ID)

	e := locator.NewEngine(locator.WithBridge("Web", b.Bridge))
	nodes, err := e.Search(desktop, qpath.MustParse(`/ClassName="Chrome_WidgetWin_1"/UIType="Web" && Name="login"`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "F1", nodes[0].Handle())

	_, err = b.Bridge(fake.New(locator.KindTopLevel, "Text", "记事本"))
	assert.ErrorIs(t, err, devtools.ErrPageNotFound)
}

func TestWaitForPage(t *testing.T) {
	fb := newFakeBrowser(t)
	fb.AddPage("B", "登录", "https://example.com/login")
	b := NewBrowser(fb.URL)

	go func() {
		time.Sleep(100 * time.Millisecond)
		fb.AddPage("C", "新页面", "https://example.com/new")
	}()
	info, err := b.WaitForPage(context.Background(), devtools.PageFilter{URL: "/new$"}, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "C", info.ID)
}

func TestCaches(t *testing.T) {
	c := NewContextCache()
	c.Set("F0", 1)
	c.Set("F1", 2)
	c.DeleteContext(2)
	_, ok := c.Get("F1")
	assert.False(t, ok)
	c.DeleteFrame("F0")
	assert.Equal(t, 0, c.Len())

	fc := NewFrameCache()
	fc.Set("/a", devtools.Frame{ID: "F1"})
	fc.Set("/b", devtools.Frame{ID: "F1"})
	fc.Set("/c", devtools.Frame{ID: "F2"})
	fc.DeleteFrame("F1")
	assert.Equal(t, 1, fc.Len())
	fc.Clear()
	assert.Equal(t, 0, fc.Len())
}
