package control

import (
	"errors"
	"fmt"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

var (
	// ErrExpired 控件已失效且无法重新定位
	ErrExpired = errors.New("控件已失效")
	// ErrNoProperty 后端对象没有该属性
	ErrNoProperty = errors.New("属性不存在")
	// ErrUnsupported 后端对象不支持该操作
	ErrUnsupported = errors.New("后端不支持该操作")
)

// NotFoundError 超时后仍未找到控件
type NotFoundError struct {
	// Path 完整定位路径
	Path string
	// FailedAt 第一个没有结果的路径前缀
	FailedAt string
	// Err 通常是 *retry.TimeoutError
	Err error
}

func (e *NotFoundError) Error() string {
	msg := "控件未找到: " + e.Path
	if e.FailedAt != "" && e.FailedAt != e.Path {
		msg += fmt.Sprintf(" (在 %s 处失败)", e.FailedAt)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// AmbiguousError 路径匹配到多个控件
type AmbiguousError struct {
	Path  string
	Count int
	Nodes []locator.Node
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("找到 %d 个控件: %s", e.Count, e.Path)
}

// missError 单次查找没有结果，是可重试的中间状态
type missError struct {
	failedAt string
}

func (e *missError) Error() string {
	return "没有匹配: " + e.failedAt
}
