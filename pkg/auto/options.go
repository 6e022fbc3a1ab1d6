// Package auto 提供控件输入操作的共享类型和坐标换算
// 具体的鼠标键盘实现在子包 input 中。
package auto

import "time"

// Option 配置选项函数类型
type Option func(*Options)

// Options 输入操作配置
type Options struct {
	// Timeout 等待类操作的超时时间
	Timeout time.Duration
	// Interval 轮询间隔
	Interval time.Duration
	// ClickOffset 相对控件左上角的偏移，nil 表示中心，负数从右下角计算
	ClickOffset *Point
	// DoubleClick 是否双击
	DoubleClick bool
	// RightClick 是否右键点击
	RightClick bool
	// Grid 只点击控件区域中的某个网格，ClickOffset 相对该格子计算
	Grid *GridPosition
}

// Point 表示二维坐标点
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// DefaultPollInterval 默认轮询间隔
const DefaultPollInterval = 200 * time.Millisecond

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		Timeout:  3 * time.Second,
		Interval: DefaultPollInterval,
	}
}

// ApplyOptions 应用配置选项
func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTimeout 设置超时时间
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithInterval 设置轮询间隔
func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		o.Interval = d
	}
}

// WithClickOffset 设置点击偏移量
func WithClickOffset(x, y int) Option {
	return func(o *Options) {
		o.ClickOffset = &Point{X: x, Y: y}
	}
}

// WithDoubleClick 设置双击
func WithDoubleClick() Option {
	return func(o *Options) {
		o.DoubleClick = true
	}
}

// WithRightClick 设置右键点击
func WithRightClick() Option {
	return func(o *Options) {
		o.RightClick = true
	}
}

// WithGrid 设置点击的网格位置
func WithGrid(g *GridPosition) Option {
	return func(o *Options) {
		o.Grid = g
	}
}
