package util

import (
	"context"
	"time"
)

// Backoff 描述指数退避参数。
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// Retry 最多执行 fn Attempts 次，失败后按指数退避等待，返回最后一次的错误。
// onRetry 在每次失败后、等待前调用，可为 nil。
func Retry(ctx context.Context, b Backoff, fn func(attempt int) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := max(b.Attempts, 1)
	wait := b.Initial
	var err error
	for i := 1; i <= attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = fn(i); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		if onRetry != nil {
			onRetry(i, wait, err)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		if b.Max > 0 && wait > b.Max {
			wait = b.Max
		}
	}
	return err
}
