// Package retry 提供带超时的轮询重试
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTransient 标记可重试的错误，其余错误会立即返回
	ErrTransient = errors.New("暂时性错误")
	// ErrTimeout 重试超时，*TimeoutError 满足 errors.Is(err, ErrTimeout)
	ErrTimeout = errors.New("重试超时")
)

// transientError 包装一个可重试的错误
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() []error { return []error{ErrTransient, e.err} }

// Transient 把 err 标记为可重试，nil 原样返回
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return &transientError{err: err}
}

// stripTransient 去掉可重试标记，超时后的错误不应再被外层当作可重试
func stripTransient(err error) error {
	if te, ok := err.(*transientError); ok {
		return te.err
	}
	return err
}

// IsTransient 判断错误是否可重试
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Policy 重试策略
type Policy struct {
	// Timeout 总等待时间，0 表示只尝试一次
	Timeout time.Duration
	// Interval 两次尝试之间的间隔
	Interval time.Duration
}

// DefaultPolicy 默认 5 秒超时、0.5 秒间隔
var DefaultPolicy = Policy{Timeout: 5 * time.Second, Interval: 500 * time.Millisecond}

// Option 策略配置选项
type Option func(*Policy)

// WithTimeout 设置超时时间
func WithTimeout(d time.Duration) Option {
	return func(p *Policy) {
		p.Timeout = d
	}
}

// WithInterval 设置重试间隔
func WithInterval(d time.Duration) Option {
	return func(p *Policy) {
		p.Interval = d
	}
}

// New 在默认策略上应用选项
func New(opts ...Option) Policy {
	p := DefaultPolicy
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Once 只尝试一次的策略
func Once() Policy {
	return Policy{}
}

func (p Policy) String() string {
	return fmt.Sprintf("timeout=%s interval=%s", p.Timeout, p.Interval)
}

// TimeoutError 超时仍未成功
type TimeoutError struct {
	Op       string
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
	// Last 最后一次尝试的返回值（最后一次出错时为 nil）
	Last any
	// Err 最后一次尝试的错误
	Err error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: 超时 %s (已用 %s, 尝试 %d 次)", e.Op, e.Timeout, e.Elapsed.Round(time.Millisecond), e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Do 反复执行 op 直到 success 返回 true
//
// 至少执行一次。op 返回非暂时性错误时立即返回该错误；暂时性错误和
// success 为 false 都会在 Interval 后重试，直到超过 Timeout 返回 *TimeoutError。
// success 为 nil 时任何无错误的结果都视为成功。ctx 只在两次尝试之间检查。
func Do[T any](ctx context.Context, p Policy, op func() (T, error), success func(T) bool) (T, error) {
	return DoNamed(ctx, "retry", p, op, success)
}

// DoNamed 同 Do，name 会写入 TimeoutError.Op
func DoNamed[T any](ctx context.Context, name string, p Policy, op func() (T, error), success func(T) bool) (T, error) {
	var zero T
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPolicy.Interval
	}

	start := time.Now()
	attempts := 0
	for {
		attempts++
		v, err := op()
		var last any
		switch {
		case err != nil && !IsTransient(err):
			return zero, err
		case err == nil && (success == nil || success(v)):
			return v, nil
		case err == nil:
			last = v
		}

		elapsed := time.Since(start)
		if elapsed >= p.Timeout {
			return zero, &TimeoutError{
				Op:       name,
				Timeout:  p.Timeout,
				Elapsed:  elapsed,
				Attempts: attempts,
				Last:     last,
				Err:      stripTransient(err),
			}
		}

		wait := min(interval, p.Timeout-elapsed)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
}

// Until 反复执行 cond 直到返回 true
func Until(ctx context.Context, name string, p Policy, cond func() (bool, error)) error {
	_, err := DoNamed(ctx, name, p, cond, func(ok bool) bool { return ok })
	return err
}
