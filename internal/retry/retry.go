package retry

import (
	"context"
	"fmt"
	"time"

	"genai-studio/common"

	"github.com/cenkalti/backoff/v5"
)

// 退避间隔上限，保证 ExponentialBackOff 在正常配置下不会被截断
const maxBackoffInterval = time.Hour

// Policy 重试策略，每次调用重新构造，不保存状态
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	// RetryForbidden 为 true 时权限类错误也会重试
	RetryForbidden bool
	// Sleep 等待退避间隔，为 nil 时使用定时器并响应 ctx 取消
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy 3 次尝试，初始间隔 1s，每次翻倍
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		Multiplier:     2,
		RetryForbidden: true,
	}
}

// Retriable 判断某类错误是否允许重试
func (p Policy) Retriable(kind Kind) bool {
	switch kind {
	case KindRateLimited, KindNotFound:
		return true
	case KindForbidden:
		return p.RetryForbidden
	default:
		return false
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

func (p Policy) schedule() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          p.Multiplier,
		MaxInterval:         max(maxBackoffInterval, p.InitialDelay),
	}
	b.Reset()
	return b
}

// Operation 一次可能失败的远端调用
type Operation[T any] func(ctx context.Context) (T, error)

// Execute 执行 op，遇到可重试错误时按指数退避重试。
// 不可重试的错误原样返回；最后一次尝试仍为可重试错误时，
// 返回同时匹配 ErrRetriesExhausted 和原始错误的错误。
func Execute[T any](ctx context.Context, policy Policy, op Operation[T]) (T, error) {
	var zero T
	p := policy.normalized()
	delays := p.schedule()

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		kind := KindOf(err)
		if !p.Retriable(kind) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			common.WithError(err).WithFields(map[string]interface{}{
				"attempts": attempt,
				"kind":     kind.String(),
			}).Warn("Retry attempts exhausted")
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		delay := delays.NextBackOff()
		common.WithFields(map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": p.MaxAttempts,
			"delay_ms":     delay.Milliseconds(),
			"kind":         kind.String(),
		}).Warn("Retriable error from remote service, retrying")

		if err := p.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	// 循环总会在上面返回，这里只是兜底
	return zero, ErrRetriesExhausted
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
