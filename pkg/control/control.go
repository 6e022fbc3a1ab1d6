// Package control 提供按 QPath 延迟定位、失效后自动重新定位的控件对象
package control

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/auto/input"
	"github.com/zoeyai/zoeylocator/pkg/backend"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// State 控件的绑定状态
type State int

const (
	// Unresolved 尚未定位
	Unresolved State = iota
	// Bound 已绑定到后端对象
	Bound
	// Expired 绑定的后端对象已失效，下次访问时重新定位
	Expired
)

func (s State) String() string {
	switch s {
	case Bound:
		return "bound"
	case Expired:
		return "expired"
	default:
		return "unresolved"
	}
}

// Input 鼠标键盘输入
type Input interface {
	Move(x, y int) error
	Click(x, y int, button string, double bool) error
	Drag(fromX, fromY, toX, toY int) error
	Scroll(x, y, amount int) error
	TypeText(text string) error
	KeyTap(key string, modifiers ...string) error
}

type options struct {
	policy  retry.Policy
	engine  *locator.Engine
	input   Input
	desktop func() locator.Node
	log     *logger.Logger
}

// Option 控件配置选项
type Option func(*options)

// WithPolicy 设置定位的重试策略
func WithPolicy(p retry.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTimeout 设置定位超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.policy.Timeout = d
	}
}

// WithInterval 设置定位重试间隔
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.policy.Interval = d
	}
}

// WithEngine 设置查找引擎
func WithEngine(e *locator.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithInput 设置输入后端
func WithInput(in Input) Option {
	return func(o *options) {
		o.input = in
	}
}

// WithDesktop 设置没有父控件时的查找起点
func WithDesktop(f func() locator.Node) Option {
	return func(o *options) {
		o.desktop = f
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func defaultOptions() options {
	return options{
		policy:  backend.DefaultPolicy(),
		input:   input.Default(),
		desktop: backend.Desktop,
		log:     logger.Named("control"),
	}
}

// searchEngine 未指定引擎时使用按配置创建的共享引擎
func (o *options) searchEngine() *locator.Engine {
	if o.engine != nil {
		return o.engine
	}
	return backend.DefaultEngine()
}

// Control 控件
//
// 首次访问时按 root + path 定位并绑定；绑定对象失效后下次访问会重新定位。
// 可以在多个 goroutine 中并发使用。
type Control struct {
	root  *Control
	path  *qpath.Path
	fixed bool
	opts  options

	mu    sync.Mutex
	state State
	node  locator.Node
}

// New 创建控件，root 为 nil 时从桌面开始查找，path 为 nil 时控件就是 root 本身
//
// 未显式指定的选项从 root 继承。
func New(root *Control, path *qpath.Path, opts ...Option) *Control {
	o := defaultOptions()
	if root != nil {
		o = root.opts
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Control{root: root, path: path, opts: o}
}

// Find 解析路径字符串并创建控件，路径语法错误时返回 *qpath.ParseError
func Find(root *Control, path string, opts ...Option) (*Control, error) {
	p, err := qpath.Parse(path)
	if err != nil {
		return nil, err
	}
	return New(root, p, opts...), nil
}

// MustFind 同 Find，语法错误时 panic
func MustFind(root *Control, path string, opts ...Option) *Control {
	c, err := Find(root, path, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Wrap 用已有的后端对象创建控件，对象失效后无法重新定位
func Wrap(n locator.Node, opts ...Option) *Control {
	c := New(nil, nil, opts...)
	c.fixed = true
	c.node = n
	c.state = Bound
	return c
}

// Root 返回父控件
func (c *Control) Root() *Control {
	return c.root
}

// Path 返回定位路径
func (c *Control) Path() *qpath.Path {
	return c.path
}

// String 返回从桌面开始的完整路径
func (c *Control) String() string {
	if c.fixed {
		c.mu.Lock()
		n := c.node
		c.mu.Unlock()
		return locator.Describe(n)
	}
	s := c.path.String()
	if c.root != nil {
		s = c.root.String() + s
	}
	if s == "" {
		return "/"
	}
	return s
}

// prefixString 返回失败段之前（含失败段）的完整路径
func (c *Control) prefixString(matched int) string {
	s := c.path.Prefix(matched + 1).String()
	if c.root != nil {
		s = c.root.String() + s
	}
	return s
}

// State 返回当前绑定状态，已绑定的对象会被重新校验
func (c *Control) State() State {
	c.bound()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset 丢弃绑定，下次访问时重新定位
func (c *Control) Reset() {
	if c.fixed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Unresolved
	c.node = nil
}

// bound 返回仍然有效的绑定对象，失效时转为 Expired
func (c *Control) bound() (locator.Node, bool) {
	c.mu.Lock()
	n, st := c.node, c.state
	c.mu.Unlock()
	if st != Bound || n == nil {
		return nil, false
	}
	if n.Valid() {
		return n, true
	}

	desc := c.describe(n)
	c.mu.Lock()
	if c.state == Bound && locator.Equal(c.node, n) {
		c.state = Expired
		c.opts.log.Info("控件已失效，将重新定位: %s", desc)
	}
	c.mu.Unlock()
	return nil, false
}

func (c *Control) describe(n locator.Node) string {
	if c.fixed {
		return locator.Describe(n)
	}
	return c.String()
}

func (c *Control) bind(n locator.Node) {
	desc := c.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Bound {
		c.opts.log.Debug("绑定 %s -> %s", desc, locator.Describe(n))
	}
	c.node = n
	c.state = Bound
}

// resolveOnce 单次定位，不等待
//
// 没有匹配或根对象失效返回可重试错误；多个匹配返回 *AmbiguousError；
// UIType 不受支持返回 *qpath.ParseError，不重试。
func (c *Control) resolveOnce() (locator.Node, error) {
	if n, ok := c.bound(); ok {
		return n, nil
	}
	if c.fixed {
		return nil, ErrExpired
	}

	rootNode, err := c.rootNode()
	if err != nil {
		return nil, err
	}
	if c.path == nil {
		c.bind(rootNode)
		return rootNode, nil
	}

	nodes, matched, err := c.opts.searchEngine().SearchPartial(rootNode, c.path)
	if err != nil {
		if errors.Is(err, locator.ErrRootInvalid) {
			return nil, retry.Transient(err)
		}
		return nil, err
	}

	switch len(nodes) {
	case 0:
		return nil, retry.Transient(&missError{failedAt: c.prefixString(matched)})
	case 1:
		c.bind(nodes[0])
		return nodes[0], nil
	default:
		return nil, &AmbiguousError{Path: c.String(), Count: len(nodes), Nodes: nodes}
	}
}

func (c *Control) rootNode() (locator.Node, error) {
	if c.root != nil {
		return c.root.resolveOnce()
	}
	if c.opts.desktop == nil {
		return nil, retry.Transient(locator.ErrRootInvalid)
	}
	d := c.opts.desktop()
	if d == nil {
		return nil, retry.Transient(locator.ErrRootInvalid)
	}
	return d, nil
}

// Resolve 定位控件，超时未找到返回 *NotFoundError，匹配多个返回 *AmbiguousError
func (c *Control) Resolve() (locator.Node, error) {
	return c.ResolveContext(context.Background())
}

// ResolveContext 同 Resolve，ctx 取消时停止等待
func (c *Control) ResolveContext(ctx context.Context) (locator.Node, error) {
	return c.resolveWith(ctx, c.opts.policy)
}

func (c *Control) resolveWith(ctx context.Context, p retry.Policy) (locator.Node, error) {
	if n, ok := c.bound(); ok {
		return n, nil
	}

	start := time.Now()
	n, err := retry.DoNamed(ctx, "resolve", p, c.resolveOnce, nil)
	if err != nil {
		var te *retry.TimeoutError
		if errors.As(err, &te) {
			failedAt := c.String()
			var miss *missError
			if errors.As(te.Err, &miss) {
				failedAt = miss.failedAt
			}
			err = &NotFoundError{Path: c.String(), FailedAt: failedAt, Err: te}
		}
		c.opts.log.LogSearch(c.String(), false, time.Since(start), ambiguousCount(err))
		return nil, err
	}

	c.opts.log.LogSearch(c.String(), true, time.Since(start), 1)
	return n, nil
}

func ambiguousCount(err error) int {
	var ae *AmbiguousError
	if errors.As(err, &ae) {
		return ae.Count
	}
	return 0
}

// Exists 单次检查控件是否唯一存在，不等待、不返回错误
func (c *Control) Exists() bool {
	_, err := c.resolveOnce()
	return err == nil
}

// Node 返回绑定的后端对象（必要时定位）
func (c *Control) Node() (locator.Node, error) {
	return c.Resolve()
}

// Equal 判断两个控件是否绑定到同一后端对象
func (c *Control) Equal(o *Control) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	a, err := c.Resolve()
	if err != nil {
		return false
	}
	b, err := o.Resolve()
	if err != nil {
		return false
	}
	return locator.Equal(a, b)
}

// Parent 返回父对象对应的控件
func (c *Control) Parent() (*Control, error) {
	n, err := c.Resolve()
	if err != nil {
		return nil, err
	}
	p, err := n.Parent()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return c.wrap(p), nil
}

// Children 返回直接子对象对应的控件
func (c *Control) Children() ([]*Control, error) {
	n, err := c.Resolve()
	if err != nil {
		return nil, err
	}
	nodes, err := n.Children()
	if err != nil {
		return nil, err
	}
	out := make([]*Control, 0, len(nodes))
	for _, child := range nodes {
		if child.Valid() {
			out = append(out, c.wrap(child))
		}
	}
	return out, nil
}

func (c *Control) wrap(n locator.Node) *Control {
	w := &Control{fixed: true, opts: c.opts, node: n, state: Bound}
	return w
}
