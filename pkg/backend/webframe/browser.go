package webframe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// Browser 一个开启了远程调试的浏览器，按需连接其中的页面
type Browser struct {
	endpoint string
	opts     []Option
	log      *logger.Logger

	mu    sync.Mutex
	pages map[string]*Page
}

// NewBrowser 创建浏览器，endpoint 形如 http://127.0.0.1:9222
func NewBrowser(endpoint string, opts ...Option) *Browser {
	return &Browser{
		endpoint: endpoint,
		opts:     opts,
		log:      logger.Named("webframe"),
		pages:    make(map[string]*Page),
	}
}

// Endpoint 调试地址
func (b *Browser) Endpoint() string { return b.endpoint }

// Pages 列出页面
func (b *Browser) Pages(ctx context.Context) ([]devtools.Page, error) {
	return devtools.ListPages(ctx, b.endpoint)
}

// Attach 连接符合条件的页面，已连接且会话仍有效的页面直接复用
func (b *Browser) Attach(ctx context.Context, f devtools.PageFilter) (*Page, error) {
	pages, err := b.Pages(ctx)
	if err != nil {
		return nil, err
	}
	info, err := devtools.FindPage(pages, f)
	if err != nil {
		return nil, err
	}
	return b.attach(ctx, info)
}

func (b *Browser) attach(ctx context.Context, info devtools.Page) (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pages[info.ID]; ok {
		if !p.Closed() {
			return p, nil
		}
		delete(b.pages, info.ID)
	}
	p, err := Attach(ctx, info, b.opts...)
	if err != nil {
		return nil, err
	}
	b.pages[info.ID] = p
	return p, nil
}

// Bridge 把浏览器窗口映射为其中页面的顶层帧，供 UIType="Web" 使用
//
// 窗口标题以页面标题开头的页面视为显示在该窗口中；浏览器只有一个页面时直接使用它。
func (b *Browser) Bridge(n locator.Node) ([]locator.Node, error) {
	caption, _ := n.Property("Text")

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	pages, err := b.Pages(ctx)
	if err != nil {
		return nil, err
	}
	var shown []devtools.Page
	if len(pages) == 1 {
		shown = pages
	} else {
		for _, p := range pages {
			if p.Title != "" && strings.HasPrefix(caption, p.Title) {
				shown = append(shown, p)
			}
		}
	}
	if len(shown) == 0 {
		return nil, fmt.Errorf("%w: 窗口标题 %q", devtools.ErrPageNotFound, caption)
	}

	var (
		out  []locator.Node
		errs []error
	)
	for _, info := range shown {
		p, err := b.attach(ctx, info)
		if err == nil {
			var top *Frame
			if top, err = p.Top(ctx); err == nil {
				out = append(out, top)
				continue
			}
		}
		b.log.Debug("页面 %s 无法连接: %v", info.ID, err)
		errs = append(errs, err)
	}
	if len(out) == 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Close 断开所有页面
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for id, p := range b.pages {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(b.pages, id)
	}
	return errors.Join(errs...)
}

// WaitForPage 等待符合条件的页面出现（例如刚启动的浏览器）
func (b *Browser) WaitForPage(ctx context.Context, f devtools.PageFilter, timeout time.Duration) (devtools.Page, error) {
	p := retry.New(retry.WithTimeout(timeout), retry.WithInterval(200*time.Millisecond))
	return retry.DoNamed(ctx, "等待页面", p, func() (devtools.Page, error) {
		pages, err := b.Pages(ctx)
		if err != nil {
			return devtools.Page{}, retry.Transient(err)
		}
		info, err := devtools.FindPage(pages, f)
		if err != nil {
			return devtools.Page{}, retry.Transient(err)
		}
		return info, nil
	}, nil)
}
