package webframe

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// Backend 后端名
const Backend = "web"

// Frame 页面中的一个帧
//
// 子帧和父帧每次都从浏览器重新获取；帧导航到新文档后旧节点失效。
type Frame struct {
	page *Page
	desc devtools.Frame
}

// Page 所属页面
func (f *Frame) Page() *Page { return f.page }

// Descriptor 帧描述
func (f *Frame) Descriptor() devtools.Frame { return f.desc }

func (f *Frame) Backend() string    { return Backend }
func (f *Frame) Handle() string     { return string(f.desc.ID) }
func (f *Frame) Kind() locator.Kind { return locator.KindElement }

func (f *Frame) Valid() bool {
	return f.page.alive(f.desc)
}

func (f *Frame) Children() ([]locator.Node, error) {
	if !f.Valid() {
		return nil, locator.ErrNodeInvalid
	}
	t, err := f.page.tree(context.Background())
	if err != nil {
		return nil, err
	}
	self := subtree(t, f.desc.ID)
	if self == nil {
		return nil, locator.ErrNodeInvalid
	}
	out := make([]locator.Node, len(self.ChildFrames))
	for i, c := range self.ChildFrames {
		out[i] = f.page.node(c.Frame)
	}
	return out, nil
}

func (f *Frame) Parent() (locator.Node, error) {
	if !f.Valid() {
		return nil, locator.ErrNodeInvalid
	}
	if f.desc.ParentID == "" {
		return nil, nil
	}
	t, err := f.page.tree(context.Background())
	if err != nil {
		return nil, err
	}
	parent := subtree(t, f.desc.ParentID)
	if parent == nil {
		return nil, locator.ErrNodeInvalid
	}
	return f.page.node(parent.Frame), nil
}

// Property 帧属性，属性名不区分大小写
func (f *Frame) Property(name string) (string, bool) {
	d := f.desc
	switch strings.ToLower(name) {
	case "id":
		return string(d.ID), true
	case "parentid":
		return string(d.ParentID), true
	case "name":
		return d.Name, true
	case "url":
		return d.URL, true
	case "securityorigin":
		return d.SecurityOrigin, true
	case "mimetype":
		return d.MimeType, true
	case "loaderid":
		return d.LoaderID, true
	}
	return "", false
}

// Eval 在帧的默认执行上下文中执行脚本，返回 JSON 形式的结果
//
// 上下文尚未创建或刚被销毁时按页面的重试策略等待。
func (f *Frame) Eval(ctx context.Context, script string) (json.RawMessage, error) {
	return retry.DoNamed(ctx, "Eval "+string(f.desc.ID), f.page.policy, func() (json.RawMessage, error) {
		return f.page.evaluate(ctx, f.desc, script)
	}, nil)
}
