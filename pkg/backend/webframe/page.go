// Package webframe 把浏览器页面的帧树作为定位后端，帧信息来自远程调试协议
package webframe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// ErrFrameNotFound 帧路径不存在
var ErrFrameNotFound = errors.New("找不到帧")

// callTimeout 单条协议命令的超时
const callTimeout = 10 * time.Second

// Page 已连接的页面，持有会话和两级缓存
type Page struct {
	info     devtools.Page
	sess     *devtools.Session
	contexts *ContextCache
	frames   *FrameCache
	policy   retry.Policy
	log      *logger.Logger

	mu      sync.RWMutex
	loaders map[cdp.FrameID]string
}

// Option 页面配置选项
type Option func(*Page)

// WithPolicy 设置求值的重试策略
func WithPolicy(p retry.Policy) Option {
	return func(pg *Page) {
		pg.policy = p
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.Logger) Option {
	return func(pg *Page) {
		pg.log = l
	}
}

// Attach 连接页面，开启 Page/Runtime 域并订阅帧和上下文事件
func Attach(ctx context.Context, info devtools.Page, opts ...Option) (*Page, error) {
	p := &Page{
		info:     info,
		contexts: NewContextCache(),
		frames:   NewFrameCache(),
		policy:   retry.DefaultPolicy,
		log:      logger.Named("webframe"),
		loaders:  make(map[cdp.FrameID]string),
	}
	for _, opt := range opts {
		opt(p)
	}

	sess, err := devtools.Dial(ctx, info.WebSocketDebuggerURL, devtools.WithLogger(p.log))
	if err != nil {
		return nil, err
	}
	p.sess = sess
	p.subscribe()

	go func() {
		<-sess.Done()
		p.invalidateAll()
	}()

	// Runtime.enable 会为已有的帧补发 executionContextCreated
	for _, method := range []string{devtools.MethodPageEnable, devtools.MethodRuntimeEnable} {
		if err := sess.Call(ctx, method, nil, nil); err != nil {
			sess.Close()
			return nil, fmt.Errorf("%s: %w", method, err)
		}
	}
	if _, err := p.tree(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	p.log.Info("已连接页面 %s (%s)", info.Title, info.URL)
	return p, nil
}

func (p *Page) subscribe() {
	p.sess.On(devtools.EventContextCreated, func(raw json.RawMessage) {
		var ev devtools.ContextCreatedParams
		if err := json.Unmarshal(raw, &ev); err != nil {
			p.log.Warn("解析 %s 失败: %v", devtools.EventContextCreated, err)
			return
		}
		if ev.Context.AuxData.IsDefault && ev.Context.AuxData.FrameID != "" {
			p.contexts.Set(ev.Context.AuxData.FrameID, ev.Context.ID)
		}
	})
	p.sess.On(devtools.EventContextDestroyed, func(raw json.RawMessage) {
		var ev devtools.ContextDestroyedParams
		if err := json.Unmarshal(raw, &ev); err == nil {
			p.contexts.DeleteContext(ev.ExecutionContextID)
		}
	})
	p.sess.On(devtools.EventContextsCleared, func(json.RawMessage) {
		p.contexts.Clear()
	})
	p.sess.On(devtools.EventFrameNavigated, func(raw json.RawMessage) {
		var ev devtools.FrameNavigatedParams
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		p.mu.Lock()
		p.loaders[ev.Frame.ID] = ev.Frame.LoaderID
		p.mu.Unlock()
		p.frames.DeleteFrame(ev.Frame.ID)
		p.log.Debug("帧 %s 已导航到 %s", ev.Frame.ID, ev.Frame.URL)
	})
	p.sess.On(devtools.EventFrameDetached, func(raw json.RawMessage) {
		var ev devtools.FrameDetachedParams
		if err := json.Unmarshal(raw, &ev); err != nil {
			return
		}
		p.mu.Lock()
		delete(p.loaders, ev.FrameID)
		p.mu.Unlock()
		p.frames.DeleteFrame(ev.FrameID)
		p.contexts.DeleteFrame(ev.FrameID)
		p.log.Debug("帧 %s 已移除", ev.FrameID)
	})
}

// invalidateAll 会话结束后清空全部缓存
func (p *Page) invalidateAll() {
	p.mu.Lock()
	clear(p.loaders)
	p.mu.Unlock()
	p.frames.Clear()
	p.contexts.Clear()
	p.log.Info("页面 %s 的调试会话已结束", p.info.ID)
}

// Info 页面信息
func (p *Page) Info() devtools.Page { return p.info }

// Session 调试会话
func (p *Page) Session() *devtools.Session { return p.sess }

// Contexts 执行上下文缓存
func (p *Page) Contexts() *ContextCache { return p.contexts }

// Frames 帧路径缓存
func (p *Page) Frames() *FrameCache { return p.frames }

// Closed 会话是否已结束
func (p *Page) Closed() bool { return p.sess.Closed() }

// Close 断开页面
func (p *Page) Close() error { return p.sess.Close() }

// alive 帧仍在且没有导航到别的文档
func (p *Page) alive(f devtools.Frame) bool {
	if p.sess.Closed() {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	loader, ok := p.loaders[f.ID]
	return ok && loader == f.LoaderID
}

// tree 获取帧树并刷新各帧的当前文档
func (p *Page) tree(ctx context.Context) (*devtools.FrameTree, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var res devtools.GetFrameTreeResult
	if err := p.sess.Call(ctx, devtools.MethodGetFrameTree, nil, &res); err != nil {
		return nil, fmt.Errorf("获取帧树失败: %w", err)
	}
	if res.FrameTree == nil {
		return nil, fmt.Errorf("获取帧树失败: 结果为空")
	}

	p.mu.Lock()
	clear(p.loaders)
	var walk func(t *devtools.FrameTree)
	walk = func(t *devtools.FrameTree) {
		p.loaders[t.Frame.ID] = t.Frame.LoaderID
		for _, c := range t.ChildFrames {
			walk(c)
		}
	}
	walk(res.FrameTree)
	p.mu.Unlock()
	return res.FrameTree, nil
}

// subtree 在帧树中查找指定帧
func subtree(t *devtools.FrameTree, id cdp.FrameID) *devtools.FrameTree {
	if t.Frame.ID == id {
		return t
	}
	for _, c := range t.ChildFrames {
		if s := subtree(c, id); s != nil {
			return s
		}
	}
	return nil
}

// Top 页面的顶层帧
func (p *Page) Top(ctx context.Context) (*Frame, error) {
	t, err := p.tree(ctx)
	if err != nil {
		return nil, err
	}
	return p.node(t.Frame), nil
}

// FrameByPath 按帧名（或帧 ID）逐级查找子帧，空路径表示顶层帧
//
// 结果按路径缓存，帧导航或移除后缓存失效。
func (p *Page) FrameByPath(ctx context.Context, path ...string) (*Frame, error) {
	key := "/" + strings.Join(path, "/")
	if f, ok := p.frames.Get(key); ok {
		if p.alive(f) {
			return p.node(f), nil
		}
		p.frames.Delete(key)
	}

	t, err := p.tree(ctx)
	if err != nil {
		return nil, err
	}
	cur := t
	for i, name := range path {
		var next *devtools.FrameTree
		for _, c := range cur.ChildFrames {
			if c.Frame.Name == name || string(c.Frame.ID) == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrFrameNotFound, "/"+strings.Join(path[:i+1], "/"))
		}
		cur = next
	}
	p.frames.Set(key, cur.Frame)
	return p.node(cur.Frame), nil
}

// EvalPath 在指定路径的帧中执行脚本
func (p *Page) EvalPath(ctx context.Context, script string, path ...string) (json.RawMessage, error) {
	f, err := p.FrameByPath(ctx, path...)
	if err != nil {
		return nil, err
	}
	return f.Eval(ctx, script)
}

func (p *Page) node(f devtools.Frame) *Frame {
	return &Frame{page: p, desc: f}
}

// evaluate 执行一次求值；上下文未知或已销毁时返回暂时性错误
func (p *Page) evaluate(ctx context.Context, f devtools.Frame, script string) (json.RawMessage, error) {
	if !p.alive(f) {
		return nil, locator.ErrNodeInvalid
	}
	id, ok := p.contexts.Get(f.ID)
	if !ok {
		return nil, retry.Transient(fmt.Errorf("帧 %s: %w", f.ID, devtools.ErrContextNotFound))
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	var res devtools.EvaluateResult
	err := p.sess.Call(callCtx, devtools.MethodEvaluate, devtools.EvaluateParams{
		Expression:    script,
		ContextID:     id,
		ReturnByValue: true,
		AwaitPromise:  true,
	}, &res)

	var perr *devtools.Error
	switch {
	case errors.As(err, &perr) && perr.Code == devtools.CodeServerError:
		p.contexts.DeleteContext(id)
		return nil, retry.Transient(fmt.Errorf("帧 %s: %w: %v", f.ID, devtools.ErrContextNotFound, perr))
	case err != nil:
		return nil, err
	case res.ExceptionDetails != nil:
		msg := res.ExceptionDetails.Text
		if ex := res.ExceptionDetails.Exception; ex != nil && ex.Description != "" {
			msg = ex.Description
		}
		return nil, fmt.Errorf("脚本异常: %s", msg)
	}
	if len(res.Result.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return res.Result.Value, nil
}
