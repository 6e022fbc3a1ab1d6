// Package input 基于 robotgo 的鼠标键盘输入
package input

import (
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/zoeylocator/pkg/auto"
)

// settleDelay 移动鼠标后等待到位的时间
const settleDelay = 50 * time.Millisecond

// Robot robotgo 输入后端，坐标使用 Win32 屏幕坐标
type Robot struct {
	// Smooth 是否平滑移动鼠标
	Smooth bool
}

var defaultRobot = &Robot{}

// Default 返回默认输入后端
func Default() *Robot {
	return defaultRobot
}

// Move 移动鼠标到指定位置
func (r *Robot) Move(x, y int) error {
	ix, iy := auto.NormalizePointForInput(x, y)
	if r.Smooth {
		robotgo.MoveSmooth(ix, iy)
	} else {
		robotgo.Move(ix, iy)
	}
	return nil
}

// Click 移动到指定位置后点击
func (r *Robot) Click(x, y int, button string, double bool) error {
	if err := r.Move(x, y); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	if button == "" {
		button = "left"
	}
	robotgo.Click(button, double)
	return nil
}

// Drag 从起点拖拽到终点
func (r *Robot) Drag(fromX, fromY, toX, toY int) error {
	if err := r.Move(fromX, fromY); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	tx, ty := auto.NormalizePointForInput(toX, toY)
	robotgo.DragSmooth(tx, ty)
	return nil
}

// Scroll 在指定位置滚动，正数向上
func (r *Robot) Scroll(x, y, amount int) error {
	if err := r.Move(x, y); err != nil {
		return err
	}
	switch {
	case amount > 0:
		robotgo.ScrollDir(amount, "up")
	case amount < 0:
		robotgo.ScrollDir(-amount, "down")
	}
	return nil
}

// Position 获取鼠标位置（Win32 坐标）
func (r *Robot) Position() (int, int) {
	x, y := robotgo.Location()
	return auto.NormalizePointForScreen(x, y)
}
