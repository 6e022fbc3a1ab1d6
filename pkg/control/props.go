package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

// Property 读取属性
func (c *Control) Property(name string) (string, error) {
	n, err := c.Resolve()
	if err != nil {
		return "", err
	}
	v, ok := n.Property(name)
	if !ok {
		if !n.Valid() {
			return "", fmt.Errorf("读取 %s: %w", name, locator.ErrNodeInvalid)
		}
		return "", fmt.Errorf("%s: %w", name, ErrNoProperty)
	}
	return v, nil
}

// Text 控件文本
func (c *Control) Text() (string, error) {
	return c.Property("Text")
}

// ClassName 窗口类名
func (c *Control) ClassName() (string, error) {
	return c.Property("ClassName")
}

// ProcessID 所属进程
func (c *Control) ProcessID() (int, error) {
	return c.intProperty("ProcessId")
}

// Visible 是否可见
func (c *Control) Visible() (bool, error) {
	return c.boolProperty("Visible")
}

// Enabled 是否可用
func (c *Control) Enabled() (bool, error) {
	return c.boolProperty("Enabled")
}

func (c *Control) intProperty(name string) (int, error) {
	v, err := c.Property(name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("属性 %s 不是整数 %q: %w", name, v, err)
	}
	return int(i), nil
}

func (c *Control) boolProperty(name string) (bool, error) {
	v, err := c.Property(name)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("属性 %s 不是布尔值 %q: %w", name, v, err)
	}
	return b, nil
}

// BoundingRect 屏幕位置
func (c *Control) BoundingRect() (locator.Rect, error) {
	n, err := c.Resolve()
	if err != nil {
		return locator.Rect{}, err
	}
	b, ok := n.(locator.Bounded)
	if !ok {
		return locator.Rect{}, fmt.Errorf("BoundingRect (%s): %w", n.Backend(), ErrUnsupported)
	}
	return b.BoundingRect()
}

// Width 宽度
func (c *Control) Width() (int, error) {
	r, err := c.BoundingRect()
	return r.Width, err
}

// Height 高度
func (c *Control) Height() (int, error) {
	r, err := c.BoundingRect()
	return r.Height, err
}
