package uia

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

// Backend 后端名
const Backend = "uia"

// rectJSON 元素位置
type rectJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// elementJSON 脚本输出的元素
type elementJSON struct {
	AutomationID string         `json:"automation_id"`
	Name         string         `json:"name"`
	ClassName    string         `json:"class_name"`
	ControlType  string         `json:"control_type"`
	Rect         rectJSON       `json:"rect"`
	IsEnabled    bool           `json:"is_enabled"`
	IsVisible    bool           `json:"is_visible"`
	Value        string         `json:"value"`
	ProcessID    int            `json:"process_id"`
	Handle       int64          `json:"handle"`
	RuntimeID    []int64        `json:"runtime_id"`
	Children     []*elementJSON `json:"children"`
}

// dumpJSON 脚本的整体输出
type dumpJSON struct {
	Error string       `json:"error"`
	Root  *elementJSON `json:"root"`
}

// snapshot 一次导出的元素树，所属窗口关闭后整棵树失效
type snapshot struct {
	hwnd   uintptr
	client *Client
	alive  func() bool
}

// Element UI Automation 元素（来自某次快照）
type Element struct {
	info     *elementJSON
	id       string
	parent   *Element
	children []*Element
	snap     *snapshot
}

// ParseTree 解析脚本输出的元素树
func ParseTree(data []byte, hwnd uintptr) (*Element, error) {
	return parseTree(data, &snapshot{hwnd: hwnd, alive: func() bool { return true }})
}

func parseTree(data []byte, snap *snapshot) (*Element, error) {
	var dump dumpJSON
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("解析 UIA 输出失败: %w", err)
	}
	if dump.Error != "" {
		return nil, fmt.Errorf("UIA 脚本错误: %s", dump.Error)
	}
	if dump.Root == nil {
		return nil, fmt.Errorf("UIA 输出中没有根元素")
	}
	return build(dump.Root, nil, strconv.FormatUint(uint64(snap.hwnd), 10), snap), nil
}

func build(info *elementJSON, parent *Element, path string, snap *snapshot) *Element {
	e := &Element{info: info, parent: parent, snap: snap, id: path}
	if len(info.RuntimeID) > 0 {
		parts := make([]string, len(info.RuntimeID))
		for i, v := range info.RuntimeID {
			parts[i] = strconv.FormatInt(v, 10)
		}
		e.id = strings.Join(parts, ".")
	}
	e.children = make([]*Element, len(info.Children))
	for i, c := range info.Children {
		e.children[i] = build(c, e, path+"/"+strconv.Itoa(i), snap)
	}
	return e
}

// WindowHandle 元素树所属的顶层窗口
func (e *Element) WindowHandle() uintptr {
	return e.snap.hwnd
}

// AutomationID 自动化 ID
func (e *Element) AutomationID() string {
	return e.info.AutomationID
}

func (e *Element) Backend() string    { return Backend }
func (e *Element) Handle() string     { return e.id }
func (e *Element) Kind() locator.Kind { return locator.KindElement }

func (e *Element) Valid() bool {
	return e.snap.alive()
}

func (e *Element) Children() ([]locator.Node, error) {
	if !e.Valid() {
		return nil, locator.ErrNodeInvalid
	}
	out := make([]locator.Node, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out, nil
}

func (e *Element) Parent() (locator.Node, error) {
	if !e.Valid() {
		return nil, locator.ErrNodeInvalid
	}
	if e.parent == nil {
		return nil, nil
	}
	return e.parent, nil
}

// Property 读取元素属性，属性名不区分大小写
func (e *Element) Property(name string) (string, bool) {
	i := e.info
	switch strings.ToLower(name) {
	case "name", "text":
		return i.Name, true
	case "automationid":
		return i.AutomationID, true
	case "classname":
		return i.ClassName, true
	case "controltype":
		return i.ControlType, true
	case "enabled":
		return strconv.FormatBool(i.IsEnabled), true
	case "visible":
		return strconv.FormatBool(i.IsVisible), true
	case "value":
		return i.Value, true
	case "processid":
		return strconv.Itoa(i.ProcessID), true
	case "hwnd":
		return strconv.FormatInt(i.Handle, 10), true
	case "boundingrect":
		return e.rect().String(), true
	case "left":
		return strconv.Itoa(i.Rect.X), true
	case "top":
		return strconv.Itoa(i.Rect.Y), true
	case "width":
		return strconv.Itoa(i.Rect.Width), true
	case "height":
		return strconv.Itoa(i.Rect.Height), true
	}
	return "", false
}

func (e *Element) rect() locator.Rect {
	r := e.info.Rect
	return locator.Rect{Left: r.X, Top: r.Y, Width: r.Width, Height: r.Height}
}

// BoundingRect 快照时的屏幕位置
func (e *Element) BoundingRect() (locator.Rect, error) {
	if !e.Valid() {
		return locator.Rect{}, locator.ErrNodeInvalid
	}
	return e.rect(), nil
}

// Invoke 按自动化 ID 点击元素
func (e *Element) Invoke() error {
	if e.snap.client == nil || e.info.AutomationID == "" {
		return fmt.Errorf("元素 %s 没有 AutomationId: %w", e.id, ErrUnsupported)
	}
	return e.snap.client.Invoke(e.snap.hwnd, e.info.AutomationID)
}

// SetValue 按自动化 ID 写入文本
func (e *Element) SetValue(value string) error {
	if e.snap.client == nil || e.info.AutomationID == "" {
		return fmt.Errorf("元素 %s 没有 AutomationId: %w", e.id, ErrUnsupported)
	}
	return e.snap.client.SetValue(e.snap.hwnd, e.info.AutomationID, value)
}
