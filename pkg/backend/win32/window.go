// Package win32 把原生窗口树暴露为 locator.Node
package win32

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/process"
)

// Backend 后端名
const Backend = "win32"

// api 平台窗口接口，handle 在 Windows 上是 HWND
type api interface {
	desktop() uintptr
	topLevel() ([]uintptr, error)
	children(hwnd uintptr) ([]uintptr, error)
	parent(hwnd uintptr) uintptr
	isWindow(hwnd uintptr) bool
	className(hwnd uintptr) string
	text(hwnd uintptr) string
	threadProcessID(hwnd uintptr) (tid, pid int)
	controlID(hwnd uintptr) int
	style(hwnd uintptr) (style, exStyle uint32)
	visible(hwnd uintptr) bool
	enabled(hwnd uintptr) bool
	rect(hwnd uintptr) (locator.Rect, bool)
	activate(hwnd uintptr) error
	focus(hwnd uintptr) error
}

// sys 当前平台实现
var sys api = newPlatformAPI()

// Window 原生窗口
type Window struct {
	sys  api
	hwnd uintptr
}

// Desktop 返回桌面根节点
func Desktop() locator.Node {
	return &Window{sys: sys, hwnd: sys.desktop()}
}

// FromHandle 用窗口句柄创建节点
func FromHandle(hwnd uintptr) *Window {
	return &Window{sys: sys, hwnd: hwnd}
}

// HWnd 返回窗口句柄
func (w *Window) HWnd() uintptr {
	return w.hwnd
}

func (w *Window) Backend() string { return Backend }

func (w *Window) Handle() string {
	return "0x" + strconv.FormatUint(uint64(w.hwnd), 16)
}

func (w *Window) isDesktop() bool {
	return w.hwnd == w.sys.desktop()
}

func (w *Window) Kind() locator.Kind {
	if w.isDesktop() {
		return locator.KindDesktop
	}
	p := w.sys.parent(w.hwnd)
	if p == 0 || p == w.sys.desktop() {
		return locator.KindTopLevel
	}
	return locator.KindElement
}

func (w *Window) Valid() bool {
	return w.isDesktop() || w.sys.isWindow(w.hwnd)
}

func (w *Window) Children() ([]locator.Node, error) {
	if !w.Valid() {
		return nil, locator.ErrNodeInvalid
	}

	var (
		handles []uintptr
		err     error
	)
	if w.isDesktop() {
		handles, err = w.sys.topLevel()
	} else {
		handles, err = w.sys.children(w.hwnd)
	}
	if err != nil {
		return nil, fmt.Errorf("枚举 %s 的子窗口失败: %w", w.Handle(), err)
	}

	out := make([]locator.Node, 0, len(handles))
	for _, h := range handles {
		out = append(out, &Window{sys: w.sys, hwnd: h})
	}
	return out, nil
}

func (w *Window) Parent() (locator.Node, error) {
	if w.isDesktop() {
		return nil, nil
	}
	if !w.Valid() {
		return nil, locator.ErrNodeInvalid
	}
	p := w.sys.parent(w.hwnd)
	if p == 0 {
		p = w.sys.desktop()
	}
	return &Window{sys: w.sys, hwnd: p}, nil
}

// Property 读取窗口属性，属性名不区分大小写
func (w *Window) Property(name string) (string, bool) {
	if !w.Valid() {
		return "", false
	}

	switch strings.ToLower(name) {
	case "classname":
		return w.sys.className(w.hwnd), true
	case "text", "caption":
		return w.sys.text(w.hwnd), true
	case "processid":
		_, pid := w.sys.threadProcessID(w.hwnd)
		return strconv.Itoa(pid), true
	case "threadid":
		tid, _ := w.sys.threadProcessID(w.hwnd)
		return strconv.Itoa(tid), true
	case "processname":
		_, pid := w.sys.threadProcessID(w.hwnd)
		return process.Name(pid)
	case "controlid":
		return strconv.Itoa(w.sys.controlID(w.hwnd)), true
	case "style":
		s, _ := w.sys.style(w.hwnd)
		return fmt.Sprintf("0x%08X", s), true
	case "exstyle":
		_, ex := w.sys.style(w.hwnd)
		return fmt.Sprintf("0x%08X", ex), true
	case "visible":
		return strconv.FormatBool(w.sys.visible(w.hwnd)), true
	case "enabled":
		return strconv.FormatBool(w.sys.enabled(w.hwnd)), true
	case "hwnd":
		return strconv.FormatUint(uint64(w.hwnd), 10), true
	case "boundingrect", "left", "top", "width", "height":
		r, ok := w.sys.rect(w.hwnd)
		if !ok {
			return "", false
		}
		return rectProperty(r, strings.ToLower(name)), true
	}
	return "", false
}

func rectProperty(r locator.Rect, key string) string {
	switch key {
	case "left":
		return strconv.Itoa(r.Left)
	case "top":
		return strconv.Itoa(r.Top)
	case "width":
		return strconv.Itoa(r.Width)
	case "height":
		return strconv.Itoa(r.Height)
	default:
		return r.String()
	}
}

// BoundingRect 窗口屏幕位置
func (w *Window) BoundingRect() (locator.Rect, error) {
	if !w.Valid() {
		return locator.Rect{}, locator.ErrNodeInvalid
	}
	r, ok := w.sys.rect(w.hwnd)
	if !ok {
		return locator.Rect{}, fmt.Errorf("获取 %s 位置失败", w.Handle())
	}
	return r, nil
}

// TopLevel 返回所在的顶层窗口
func (w *Window) TopLevel() (*Window, error) {
	if w.isDesktop() {
		return nil, fmt.Errorf("桌面没有顶层窗口")
	}
	cur := w.hwnd
	for i := 0; i < 64; i++ {
		if !w.sys.isWindow(cur) {
			return nil, locator.ErrNodeInvalid
		}
		p := w.sys.parent(cur)
		if p == 0 || p == w.sys.desktop() {
			return &Window{sys: w.sys, hwnd: cur}, nil
		}
		cur = p
	}
	return nil, fmt.Errorf("%s 的父窗口链过长", w.Handle())
}

// BringToForeground 把所在顶层窗口切换到前台
func (w *Window) BringToForeground() error {
	top, err := w.TopLevel()
	if err != nil {
		return err
	}
	return w.sys.activate(top.hwnd)
}

// SetFocus 激活顶层窗口并设置输入焦点
func (w *Window) SetFocus() error {
	if err := w.BringToForeground(); err != nil {
		return err
	}
	if w.Kind() == locator.KindTopLevel {
		return nil
	}
	return w.sys.focus(w.hwnd)
}
