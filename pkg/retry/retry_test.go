package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoZeroTimeoutSingleAttempt(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{Timeout: 0, Interval: time.Second},
		func() (int, error) {
			calls++
			return 0, nil
		},
		func(int) bool { return false })

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 1, te.Attempts)
	assert.Equal(t, 0, te.Last)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestDoElapsedBoundedByTimeout(t *testing.T) {
	p := Policy{Timeout: 300 * time.Millisecond, Interval: 50 * time.Millisecond}

	start := time.Now()
	calls := 0
	_, err := Do(context.Background(), p, func() (string, error) {
		calls++
		return "nope", nil
	}, func(s string) bool { return s == "yes" })
	elapsed := time.Since(start)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "nope", te.Last)
	assert.GreaterOrEqual(t, elapsed, p.Timeout)
	assert.Less(t, elapsed, p.Timeout+p.Interval+100*time.Millisecond)
	assert.GreaterOrEqual(t, calls, 3)
	assert.Equal(t, calls, te.Attempts)
	t.Logf("耗时 %s, 尝试 %d 次", elapsed, calls)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{Timeout: time.Second, Interval: 10 * time.Millisecond},
		func() (int, error) {
			calls++
			if calls < 3 {
				return 0, Transient(errors.New("还没准备好"))
			}
			return calls, nil
		}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestDoTerminalErrorPropagatesImmediately(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), Policy{Timeout: 5 * time.Second, Interval: time.Second},
		func() (int, error) {
			calls++
			return 0, boom
		}, nil)

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDoTransientErrorUntilTimeout(t *testing.T) {
	cause := errors.New("上下文不存在")
	_, err := Do(context.Background(), Policy{Timeout: 60 * time.Millisecond, Interval: 20 * time.Millisecond},
		func() (int, error) { return 0, Transient(cause) }, nil)

	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Nil(t, te.Last)
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsTransient(err), "超时错误不应再被视为可重试")
}

func TestDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{Timeout: 5 * time.Second, Interval: 20 * time.Millisecond},
		func() (int, error) {
			calls++
			if calls == 2 {
				cancel()
			}
			return 0, nil
		}, func(int) bool { return false })

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, calls)
}

func TestTransient(t *testing.T) {
	assert.Nil(t, Transient(nil))

	base := errors.New("x")
	err := Transient(base)
	assert.True(t, IsTransient(err))
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, "x", err.Error())
	assert.Same(t, err, Transient(err), "重复标记应返回同一个错误")
	assert.False(t, IsTransient(base))
}

func TestUntil(t *testing.T) {
	n := 0
	err := Until(context.Background(), "wait", Policy{Timeout: time.Second, Interval: 5 * time.Millisecond},
		func() (bool, error) {
			n++
			return n >= 2, nil
		})
	require.NoError(t, err)

	err = Until(context.Background(), "never", Once(), func() (bool, error) { return false, nil })
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "never", te.Op)
	assert.Contains(t, err.Error(), "never")
}

func TestNewAppliesOptions(t *testing.T) {
	p := New(WithTimeout(time.Second))
	assert.Equal(t, time.Second, p.Timeout)
	assert.Equal(t, DefaultPolicy.Interval, p.Interval)

	p = New(WithInterval(time.Millisecond), WithTimeout(0))
	assert.Equal(t, Policy{Interval: time.Millisecond}, p)
}
