package locator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
)

// Bridge 把一个后端对象映射为另一个后端中的根对象（UIType 段使用）
type Bridge func(n Node) ([]Node, error)

// Engine 控件查找引擎
//
// Search 只做一次遍历，不重试、不等待，重试策略由上层决定。
type Engine struct {
	mu      sync.RWMutex
	bridges map[string]Bridge
	log     *logger.Logger
}

// Option 引擎配置选项
type Option func(*Engine)

// WithBridge 注册 UIType 桥接
func WithBridge(uiType string, b Bridge) Option {
	return func(e *Engine) {
		e.bridges[strings.ToLower(uiType)] = b
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine 创建查找引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		bridges: make(map[string]Bridge),
		log:     logger.Named("locator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterBridge 运行时注册 UIType 桥接
func (e *Engine) RegisterBridge(uiType string, b Bridge) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bridges[strings.ToLower(uiType)] = b
}

func (e *Engine) bridge(uiType string) (Bridge, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.bridges[strings.ToLower(uiType)]
	return b, ok
}

// Search 从 root 出发按路径查找，返回全部匹配对象（按文档顺序，去重）
//
// 没有匹配时返回空切片和 nil 错误。root 失效时返回 *RootInvalidError；
// 路径中的 UIType 没有注册桥接时返回包装了 ErrNoBridge 的 *qpath.ParseError。
func (e *Engine) Search(root Node, p *qpath.Path) ([]Node, error) {
	nodes, _, err := e.SearchPartial(root, p)
	return nodes, err
}

// SearchPartial 同 Search，额外返回成功匹配的段数
//
// 结果为空时 matched 指出第一个没有结果的段之前的段数。
func (e *Engine) SearchPartial(root Node, p *qpath.Path) (nodes []Node, matched int, err error) {
	if root == nil {
		return nil, 0, &RootInvalidError{Root: "<nil>"}
	}
	if !root.Valid() {
		return nil, 0, &RootInvalidError{Root: Describe(root), Err: ErrNodeInvalid}
	}

	if p == nil {
		return []Node{root}, 0, nil
	}

	working := []Node{root}
	for i, seg := range p.Segments {
		if seg.UIType != "" {
			working, err = e.bridgeAll(working, seg.UIType)
			if err != nil {
				return nil, i, p.UITypeError(i, err)
			}
		}

		switch {
		case !seg.IsFilter():
			next := newNodeSet()
			for _, r := range working {
				found, err := e.collect(r, seg, i == 0 && Equal(r, root))
				if err != nil {
					return nil, i, err
				}
				if seg.HasInstance {
					n, ok := pick(found, seg.Instance)
					if !ok {
						continue
					}
					found = []Node{n}
				}
				next.add(found...)
			}
			working = next.list
		case seg.HasInstance:
			if n, ok := pick(working, seg.Instance); ok {
				working = []Node{n}
			} else {
				working = nil
			}
		}

		if len(working) == 0 {
			e.log.Debug("段 %d 没有匹配: %s", i, seg.String())
			return []Node{}, i, nil
		}
	}
	return working, p.Len(), nil
}

// collect 深度优先（先序）收集 r 的后代中满足段条件的对象
func (e *Engine) collect(r Node, seg qpath.Segment, isRoot bool) ([]Node, error) {
	var out []Node

	children, err := r.Children()
	if err != nil {
		if isRoot {
			return nil, &RootInvalidError{Root: Describe(r), Err: err}
		}
		e.log.Debug("跳过无法枚举的节点 %s: %v", Describe(r), err)
		return nil, nil
	}

	var visit func(parent Node, children []Node, depth int)
	visit = func(parent Node, children []Node, depth int) {
		fenced := parent.Kind() != KindDesktop
		for _, c := range children {
			if c == nil {
				continue
			}
			if fenced && c.Kind() == KindTopLevel {
				continue
			}
			if !c.Valid() {
				e.log.Debug("跳过已失效节点 %s", Describe(c))
				continue
			}
			if matchAll(c, seg.Predicates) {
				out = append(out, c)
			}
			if seg.MaxDepth > 0 && depth >= seg.MaxDepth {
				continue
			}
			grand, err := c.Children()
			if err != nil {
				e.log.Debug("跳过无法枚举的节点 %s: %v", Describe(c), err)
				continue
			}
			visit(c, grand, depth+1)
		}
	}
	visit(r, children, 1)
	return out, nil
}

func (e *Engine) bridgeAll(working []Node, uiType string) ([]Node, error) {
	b, ok := e.bridge(uiType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBridge, uiType)
	}

	next := newNodeSet()
	for _, n := range working {
		roots, err := b(n)
		if err != nil {
			e.log.Debug("桥接 %s 失败，跳过 %s: %v", uiType, Describe(n), err)
			continue
		}
		next.add(roots...)
	}
	return next.list, nil
}

// Matches 判断节点是否满足全部条件
func Matches(n Node, preds []qpath.Predicate) bool {
	return matchAll(n, preds)
}

func matchAll(n Node, preds []qpath.Predicate) bool {
	for _, p := range preds {
		v, ok := n.Property(p.Name)
		if !ok || !p.Match(v) {
			return false
		}
	}
	return true
}

// pick 取第 k 个，负数从末尾计
func pick(nodes []Node, k int) (Node, bool) {
	if k < 0 {
		k += len(nodes)
	}
	if k < 0 || k >= len(nodes) {
		return nil, false
	}
	return nodes[k], true
}

// nodeSet 保持首次出现顺序的去重集合
type nodeSet struct {
	seen map[string]struct{}
	list []Node
}

func newNodeSet() *nodeSet {
	return &nodeSet{seen: make(map[string]struct{}), list: []Node{}}
}

func (s *nodeSet) add(nodes ...Node) {
	for _, n := range nodes {
		key := n.Backend() + "\x00" + n.Handle()
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.list = append(s.list, n)
	}
}

// Walk 先序遍历 root 的子树，maxDepth 为 0 时不限深度
//
// fn 返回错误时停止遍历并返回该错误。
func Walk(root Node, maxDepth int, fn func(n Node, depth int) error) error {
	if root == nil || !root.Valid() {
		return &RootInvalidError{Root: Describe(root), Err: ErrNodeInvalid}
	}
	if err := fn(root, 0); err != nil {
		return err
	}

	var visit func(parent Node, depth int) error
	visit = func(parent Node, depth int) error {
		if maxDepth > 0 && depth > maxDepth {
			return nil
		}
		children, err := parent.Children()
		if err != nil {
			return nil
		}
		fenced := parent.Kind() != KindDesktop
		for _, c := range children {
			if c == nil || !c.Valid() || (fenced && c.Kind() == KindTopLevel) {
				continue
			}
			if err := fn(c, depth); err != nil {
				return err
			}
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(root, 1)
}
