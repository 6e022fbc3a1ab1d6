// Package browser 启动带远程调试端口的 Chrome
package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chromedp/chromedp"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/backend/webframe"
	"github.com/zoeyai/zoeylocator/pkg/devtools"
)

// Options 启动选项
type Options struct {
	Port        int    // 远程调试端口
	Headless    bool   // 无界面模式
	ExecPath    string // 浏览器路径，空表示自动查找
	UserDataDir string // 用户数据目录，空表示临时目录
}

// Option 启动选项函数
type Option func(*Options)

// DefaultOptions 默认选项
func DefaultOptions() *Options {
	return &Options{Port: devtools.DefaultPort}
}

// WithPort 设置调试端口
func WithPort(port int) Option {
	return func(o *Options) {
		o.Port = port
	}
}

// WithHeadless 设置无界面模式
func WithHeadless(headless bool) Option {
	return func(o *Options) {
		o.Headless = headless
	}
}

// WithExecPath 设置浏览器路径
func WithExecPath(path string) Option {
	return func(o *Options) {
		o.ExecPath = path
	}
}

// WithUserDataDir 设置用户数据目录
func WithUserDataDir(dir string) Option {
	return func(o *Options) {
		o.UserDataDir = dir
	}
}

// ApplyOptions 应用选项
func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// allocatorOptions 转换为 chromedp 的启动参数
func (o *Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(o.Port)),
		chromedp.Flag("remote-allow-origins", "*"),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.UserDataDir))
	}
	return opts
}

// Chrome 已启动的浏览器
type Chrome struct {
	ctx      context.Context
	cancel   context.CancelFunc
	endpoint string
}

// Launch 启动浏览器并打开 url
func Launch(ctx context.Context, url string, opts ...Option) (*Chrome, error) {
	o := ApplyOptions(opts...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, o.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		cancel()
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	c := &Chrome{ctx: browserCtx, cancel: cancel, endpoint: devtools.Endpoint(o.Port)}
	logger.Named("browser").Info("浏览器已启动，调试地址 %s", c.endpoint)
	return c, nil
}

// Endpoint HTTP 调试地址
func (c *Chrome) Endpoint() string { return c.endpoint }

// Context chromedp 上下文，可直接用于 chromedp.Run
func (c *Chrome) Context() context.Context { return c.ctx }

// Browser 以定位后端的方式访问该浏览器
func (c *Chrome) Browser(opts ...webframe.Option) *webframe.Browser {
	return webframe.NewBrowser(c.endpoint, opts...)
}

// Close 关闭浏览器
func (c *Chrome) Close() {
	c.cancel()
}
