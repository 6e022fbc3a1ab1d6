package control

import (
	"context"
	"time"

	"github.com/zoeyai/zoeylocator/pkg/qpath"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

func (c *Control) policy(timeout time.Duration) retry.Policy {
	p := c.opts.policy
	p.Timeout = timeout
	return p
}

// WaitForExist 等待控件出现，超时返回 *NotFoundError
func (c *Control) WaitForExist(timeout time.Duration) error {
	_, err := c.resolveWith(context.Background(), c.policy(timeout))
	return err
}

// WaitForInvalid 等待控件消失，超时返回 *retry.TimeoutError
//
// 已绑定的控件等待绑定对象失效；未绑定的控件等待路径不再唯一匹配。
func (c *Control) WaitForInvalid(timeout time.Duration) error {
	return retry.Until(context.Background(), "wait invalid "+c.String(), c.policy(timeout), func() (bool, error) {
		c.mu.Lock()
		n, st := c.node, c.state
		c.mu.Unlock()
		if st == Bound && n != nil {
			if n.Valid() {
				return false, nil
			}
			c.bound()
			return true, nil
		}
		return !c.Exists(), nil
	})
}

// WaitForValue 等待属性满足条件，regex 为 true 时按正则匹配
func (c *Control) WaitForValue(name, want string, regex bool, timeout time.Duration) error {
	op := qpath.OpEqual
	if regex {
		op = qpath.OpRegex
	}
	pred, err := qpath.NewPredicate(name, op, want)
	if err != nil {
		return err
	}

	p := c.policy(timeout)
	return retry.Until(context.Background(), "wait "+pred.String()+" "+c.String(), p, func() (bool, error) {
		n, err := c.resolveOnce()
		if err != nil {
			if retry.IsTransient(err) {
				return false, nil
			}
			return false, err
		}
		v, ok := n.Property(name)
		return ok && pred.Match(v), nil
	})
}
