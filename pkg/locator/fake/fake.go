// Package fake 提供内存中的节点树，用于测试查找引擎和控件门面
package fake

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

// ErrEnumerate 模拟枚举子节点失败
var ErrEnumerate = errors.New("fake: 枚举失败")

var nextHandle atomic.Int64

// Node 内存节点
type Node struct {
	mu       sync.Mutex
	backend  string
	handle   string
	kind     locator.Kind
	props    map[string]string
	parent   *Node
	children []*Node
	dead     bool
	childErr error

	// ChildrenCalls 统计 Children 被调用的次数
	ChildrenCalls atomic.Int64
	// Invoked 统计 Invoke 被调用的次数
	Invoked atomic.Int64
}

// New 创建 "fake" 后端的节点，props 依次为键值对
func New(kind locator.Kind, props ...string) *Node {
	return NewBackend("fake", kind, props...)
}

// NewBackend 创建指定后端名的节点
func NewBackend(backend string, kind locator.Kind, props ...string) *Node {
	n := &Node{
		backend: backend,
		handle:  strconv.FormatInt(nextHandle.Add(1), 10),
		kind:    kind,
		props:   make(map[string]string),
	}
	for i := 0; i+1 < len(props); i += 2 {
		n.props[strings.ToLower(props[i])] = props[i+1]
	}
	return n
}

// Desktop 创建桌面根节点
func Desktop() *Node {
	return New(locator.KindDesktop, "ClassName", "#32769")
}

// Add 追加子节点并返回 n 以便链式构造
func (n *Node) Add(children ...*Node) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Set 修改属性
func (n *Node) Set(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.props[strings.ToLower(name)] = value
}

// Kill 使节点失效
func (n *Node) Kill() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dead = true
}

// Revive 恢复节点
func (n *Node) Revive() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dead = false
}

// FailChildren 让 Children 返回指定错误，nil 表示恢复
func (n *Node) FailChildren(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.childErr = err
}

// Remove 从父节点摘除并使其失效
func (n *Node) Remove() {
	n.Kill()
	p := n.parent
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
			break
		}
	}
}

func (n *Node) Backend() string    { return n.backend }
func (n *Node) Handle() string     { return n.handle }
func (n *Node) Kind() locator.Kind { return n.kind }

func (n *Node) Children() ([]locator.Node, error) {
	n.ChildrenCalls.Add(1)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dead {
		return nil, locator.ErrNodeInvalid
	}
	if n.childErr != nil {
		return nil, n.childErr
	}
	out := make([]locator.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func (n *Node) Parent() (locator.Node, error) {
	if !n.Valid() {
		return nil, locator.ErrNodeInvalid
	}
	if n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

func (n *Node) Property(name string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.props[strings.ToLower(name)]
	return v, ok
}

func (n *Node) Valid() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.dead
}

// BoundingRect 从 Left/Top/Width/Height 属性读取位置
func (n *Node) BoundingRect() (locator.Rect, error) {
	if !n.Valid() {
		return locator.Rect{}, locator.ErrNodeInvalid
	}
	get := func(k string) int {
		v, _ := n.Property(k)
		i, _ := strconv.Atoi(v)
		return i
	}
	return locator.Rect{Left: get("Left"), Top: get("Top"), Width: get("Width"), Height: get("Height")}, nil
}

// Invoke 记录调用次数
func (n *Node) Invoke() error {
	if !n.Valid() {
		return locator.ErrNodeInvalid
	}
	n.Invoked.Add(1)
	return nil
}

// SetValue 写入 Value 属性
func (n *Node) SetValue(value string) error {
	if !n.Valid() {
		return locator.ErrNodeInvalid
	}
	n.Set("Value", value)
	return nil
}
