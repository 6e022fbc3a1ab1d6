package control

import (
	"fmt"

	"github.com/zoeyai/zoeylocator/pkg/auto"
	"github.com/zoeyai/zoeylocator/pkg/locator"
)

// ClickPoint 计算点击位置
//
// 没有偏移时取中心；偏移为负数时从右边或下边往回计算。
func ClickPoint(r locator.Rect, offset *auto.Point) (int, int) {
	if offset == nil {
		return r.Center()
	}
	x := r.Left + offset.X
	if offset.X < 0 {
		x = r.Left + r.Width + offset.X
	}
	y := r.Top + offset.Y
	if offset.Y < 0 {
		y = r.Top + r.Height + offset.Y
	}
	return x, y
}

func (c *Control) point(o *auto.Options) (int, int, error) {
	r, err := c.BoundingRect()
	if err != nil {
		return 0, 0, err
	}
	if o.Grid != nil {
		if err := o.Grid.Validate(); err != nil {
			return 0, 0, err
		}
		cell := o.Grid.Cell(auto.Region{X: r.Left, Y: r.Top, Width: r.Width, Height: r.Height})
		r = locator.Rect{Left: cell.X, Top: cell.Y, Width: cell.Width, Height: cell.Height}
	}
	x, y := ClickPoint(r, o.ClickOffset)
	return x, y, nil
}

// Click 点击控件，默认点击中心
func (c *Control) Click(opts ...auto.Option) error {
	o := auto.ApplyOptions(opts...)
	x, y, err := c.point(o)
	if err != nil {
		return err
	}
	button := "left"
	if o.RightClick {
		button = "right"
	}
	c.opts.log.Debug("点击 %s (%d,%d) %s double=%v", c.String(), x, y, button, o.DoubleClick)
	return c.opts.input.Click(x, y, button, o.DoubleClick)
}

// DoubleClick 双击
func (c *Control) DoubleClick(opts ...auto.Option) error {
	return c.Click(append(opts, auto.WithDoubleClick())...)
}

// RightClick 右键点击
func (c *Control) RightClick(opts ...auto.Option) error {
	return c.Click(append(opts, auto.WithRightClick())...)
}

// Hover 把鼠标移到控件上
func (c *Control) Hover(opts ...auto.Option) error {
	x, y, err := c.point(auto.ApplyOptions(opts...))
	if err != nil {
		return err
	}
	return c.opts.input.Move(x, y)
}

// DragTo 从控件中心拖拽到屏幕坐标
func (c *Control) DragTo(x, y int) error {
	fx, fy, err := c.point(auto.ApplyOptions())
	if err != nil {
		return err
	}
	return c.opts.input.Drag(fx, fy, x, y)
}

// DragOnto 拖拽到另一个控件的中心
func (c *Control) DragOnto(target *Control) error {
	tx, ty, err := target.point(auto.ApplyOptions())
	if err != nil {
		return fmt.Errorf("拖拽目标: %w", err)
	}
	return c.DragTo(tx, ty)
}

// Scroll 在控件上滚动，正数向上
func (c *Control) Scroll(amount int) error {
	x, y, err := c.point(auto.ApplyOptions())
	if err != nil {
		return err
	}
	return c.opts.input.Scroll(x, y, amount)
}

// SetFocus 设置输入焦点，后端不支持时点击控件
func (c *Control) SetFocus() error {
	n, err := c.Resolve()
	if err != nil {
		return err
	}
	if f, ok := n.(locator.Focuser); ok {
		return f.SetFocus()
	}
	return c.Click()
}

// SendKeys 聚焦后输入文本
func (c *Control) SendKeys(text string) error {
	if err := c.SetFocus(); err != nil {
		return err
	}
	return c.opts.input.TypeText(text)
}

// KeyTap 聚焦后按键
func (c *Control) KeyTap(key string, modifiers ...string) error {
	if err := c.SetFocus(); err != nil {
		return err
	}
	return c.opts.input.KeyTap(key, modifiers...)
}

// Invoke 执行默认动作，后端不支持时点击控件
func (c *Control) Invoke() error {
	n, err := c.Resolve()
	if err != nil {
		return err
	}
	if inv, ok := n.(locator.Invoker); ok {
		return inv.Invoke()
	}
	return c.Click()
}

// SetValue 直接写入值
func (c *Control) SetValue(value string) error {
	n, err := c.Resolve()
	if err != nil {
		return err
	}
	vs, ok := n.(locator.ValueSetter)
	if !ok {
		return fmt.Errorf("SetValue (%s): %w", n.Backend(), ErrUnsupported)
	}
	return vs.SetValue(value)
}
