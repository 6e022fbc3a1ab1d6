// Package locator 在后端对象树上执行 QPath 查找
package locator

import (
	"errors"
	"fmt"
)

// Kind 节点在窗口层级中的位置
type Kind int

const (
	// KindElement 普通子控件
	KindElement Kind = iota
	// KindTopLevel 顶层窗口
	KindTopLevel
	// KindDesktop 桌面根节点
	KindDesktop
)

func (k Kind) String() string {
	switch k {
	case KindDesktop:
		return "desktop"
	case KindTopLevel:
		return "toplevel"
	default:
		return "element"
	}
}

// Node 后端对象（Win32 窗口、UIA 元素、远程页面帧）的统一接口
type Node interface {
	// Backend 后端名，例如 "win32"、"uia"、"webframe"
	Backend() string
	// Handle 后端内唯一的原生句柄
	Handle() string
	Kind() Kind
	// Children 按后端给定的顺序返回直接子节点
	Children() ([]Node, error)
	// Parent 返回父节点，根节点返回 nil
	Parent() (Node, error)
	// Property 读取属性，属性不存在时 ok 为 false
	Property(name string) (value string, ok bool)
	// Valid 对象是否仍然存活
	Valid() bool
}

// Rect 屏幕矩形
type Rect struct {
	Left, Top, Width, Height int
}

// Center 返回中心点
func (r Rect) Center() (int, int) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Width, r.Height)
}

// Bounded 能给出屏幕位置的节点
type Bounded interface {
	BoundingRect() (Rect, error)
}

// Focuser 能设置输入焦点的节点
type Focuser interface {
	SetFocus() error
}

// Invoker 支持默认动作的节点（例如按钮）
type Invoker interface {
	Invoke() error
}

// ValueSetter 支持直接写入值的节点
type ValueSetter interface {
	SetValue(value string) error
}

// Equal 判断两个节点是否是同一后端对象
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Backend() == b.Backend() && a.Handle() == b.Handle()
}

// Describe 返回节点的简短描述，用于日志
func Describe(n Node) string {
	if n == nil {
		return "<nil>"
	}
	if cls, ok := n.Property("ClassName"); ok {
		return fmt.Sprintf("%s:%s[%s]", n.Backend(), n.Handle(), cls)
	}
	return fmt.Sprintf("%s:%s", n.Backend(), n.Handle())
}

var (
	// ErrNodeInvalid 节点已失效
	ErrNodeInvalid = errors.New("节点已失效")
	// ErrRootInvalid 查找根节点已失效
	ErrRootInvalid = errors.New("查找根节点已失效")
	// ErrNoBridge 没有注册对应 UIType 的桥接
	ErrNoBridge = errors.New("未注册的 UIType")
)

// RootInvalidError 查找起点失效
type RootInvalidError struct {
	Root string
	Err  error
}

func (e *RootInvalidError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("查找根节点 %s 已失效: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("查找根节点 %s 已失效", e.Root)
}

func (e *RootInvalidError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRootInvalid, e.Err}
	}
	return []error{ErrRootInvalid}
}
