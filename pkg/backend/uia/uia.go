// Package uia 通过 Python + pywinauto 子进程读取 UI Automation 元素树
package uia

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/backend/win32"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/python"
)

// ErrUnsupported 当前平台或环境不支持 UI Automation
var ErrUnsupported = errors.New("不支持 UI Automation（需要 Windows + Python + pywinauto）")

// Runner 执行 Python 脚本，*python.Info 满足该接口
type Runner interface {
	Run(ctx context.Context, script string) ([]byte, error)
}

// Client UIA 客户端
type Client struct {
	run      Runner
	maxDepth int
	timeout  time.Duration
	alive    func(hwnd uintptr) bool
	log      *logger.Logger
}

// Option 客户端配置选项
type Option func(*Client)

// WithMaxDepth 设置导出树的最大深度
func WithMaxDepth(d int) Option {
	return func(c *Client) {
		c.maxDepth = d
	}
}

// WithScriptTimeout 设置单次脚本执行超时
func WithScriptTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithAlive 设置窗口存活检查，默认使用 win32
func WithAlive(f func(hwnd uintptr) bool) Option {
	return func(c *Client) {
		c.alive = f
	}
}

// NewClient 创建客户端，run 为 nil 时所有操作返回 ErrUnsupported
func NewClient(run Runner, opts ...Option) *Client {
	c := &Client{
		run:      run,
		maxDepth: 32,
		timeout:  30 * time.Second,
		alive:    func(hwnd uintptr) bool { return win32.FromHandle(hwnd).Valid() },
		log:      logger.Named("uia"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsSupported 是否可用
func (c *Client) IsSupported() bool {
	return c.run != nil
}

// Default 用检测到的 Python 创建客户端，非 Windows 平台返回不可用的客户端
func Default(info *python.Info, opts ...Option) *Client {
	if runtime.GOOS != "windows" || info == nil || !info.Available {
		return NewClient(nil, opts...)
	}
	return NewClient(info, opts...)
}

func (c *Client) exec(script string) ([]byte, error) {
	if !c.IsSupported() {
		return nil, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.run.Run(ctx, script)
}

// Snapshot 导出窗口的元素树
func (c *Client) Snapshot(hwnd uintptr) (*Element, error) {
	start := time.Now()
	out, err := c.exec(buildDumpScript(hwnd, c.maxDepth))
	if err != nil {
		return nil, fmt.Errorf("导出 UIA 树 (hwnd=%d): %w", hwnd, err)
	}
	snap := &snapshot{hwnd: hwnd, client: c, alive: func() bool { return c.alive(hwnd) }}
	root, err := parseTree(out, snap)
	if err != nil {
		return nil, err
	}
	c.log.Debug("导出 UIA 树 hwnd=%d 用时 %s", hwnd, time.Since(start).Round(time.Millisecond))
	return root, nil
}

// Bridge 把带 HWnd 属性的节点映射为其 UIA 根元素，供 UIType="UIA" 使用
func (c *Client) Bridge(n locator.Node) ([]locator.Node, error) {
	v, ok := n.Property("HWnd")
	if !ok {
		return nil, fmt.Errorf("%s 没有 HWnd 属性", locator.Describe(n))
	}
	hwnd, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
	if err != nil || hwnd == 0 {
		return nil, fmt.Errorf("%s 的 HWnd 无效: %q", locator.Describe(n), v)
	}
	root, err := c.Snapshot(uintptr(hwnd))
	if err != nil {
		return nil, err
	}
	return []locator.Node{root}, nil
}

// Invoke 点击窗口中指定自动化 ID 的元素
func (c *Client) Invoke(hwnd uintptr, automationID string) error {
	if _, err := c.exec(buildInvokeScript(hwnd, automationID)); err != nil {
		return fmt.Errorf("点击元素 %s 失败: %w", automationID, err)
	}
	return nil
}

// SetValue 设置窗口中指定自动化 ID 的元素文本
func (c *Client) SetValue(hwnd uintptr, automationID, value string) error {
	if _, err := c.exec(buildSetValueScript(hwnd, automationID, value)); err != nil {
		return fmt.Errorf("设置元素 %s 的值失败: %w", automationID, err)
	}
	return nil
}

const scriptPrelude = `
import json
import sys

try:
    from pywinauto.application import Application
except ImportError:
    print(json.dumps({"error": "pywinauto not installed"}))
    sys.exit(1)

def connect(handle):
    app = Application(backend="uia").connect(handle=handle)
    return app.window(handle=handle)
`

// buildDumpScript 导出整棵元素树
func buildDumpScript(hwnd uintptr, maxDepth int) string {
	return scriptPrelude + fmt.Sprintf(`
def get_rect(elem):
    try:
        r = elem.rectangle()
        return {"x": r.left, "y": r.top, "width": r.width(), "height": r.height()}
    except Exception:
        return {"x": 0, "y": 0, "width": 0, "height": 0}

def dump(elem, depth):
    info = elem.element_info
    node = {
        "automation_id": info.automation_id or "",
        "name": info.name or "",
        "class_name": info.class_name or "",
        "control_type": info.control_type or "",
        "rect": get_rect(elem),
        "is_enabled": bool(info.enabled),
        "is_visible": bool(info.visible),
        "process_id": info.process_id or 0,
        "handle": info.handle or 0,
        "runtime_id": list(info.runtime_id or []),
        "value": "",
        "children": [],
    }
    try:
        if hasattr(elem, "get_value"):
            node["value"] = elem.get_value() or ""
    except Exception:
        pass
    if depth < %d:
        for child in elem.children():
            try:
                node["children"].append(dump(child, depth + 1))
            except Exception:
                pass
    return node

try:
    window = connect(%d)
    print(json.dumps({"root": dump(window.wrapper_object(), 0)}))
except Exception as e:
    print(json.dumps({"error": str(e)}))
`, maxDepth, hwnd)
}

// buildInvokeScript 点击元素
func buildInvokeScript(hwnd uintptr, automationID string) string {
	return scriptPrelude + fmt.Sprintf(`
try:
    elem = connect(%d).child_window(auto_id=%s)
    try:
        elem.invoke()
    except Exception:
        elem.click_input()
    print("ok")
except Exception as e:
    print(json.dumps({"error": str(e)}), file=sys.stderr)
    sys.exit(1)
`, hwnd, pyString(automationID))
}

// buildSetValueScript 写入文本
func buildSetValueScript(hwnd uintptr, automationID, value string) string {
	return scriptPrelude + fmt.Sprintf(`
try:
    elem = connect(%d).child_window(auto_id=%s)
    elem.set_edit_text(%s)
    print("ok")
except Exception as e:
    print(json.dumps({"error": str(e)}), file=sys.stderr)
    sys.exit(1)
`, hwnd, pyString(automationID), pyString(value))
}

// pyString 生成 Python 字符串字面量，strconv.Quote 使用的转义在 Python 中同样合法
func pyString(s string) string {
	return strconv.Quote(s)
}
