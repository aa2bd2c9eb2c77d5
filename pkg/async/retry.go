package async

import (
	"context"
	"time"
)

// RetryConfig controls Retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries int
	// InitialDelay is the backoff before the first retry. Each subsequent
	// retry doubles it: delay = InitialDelay * 2^attempt.
	InitialDelay time.Duration
	// AttemptTimeout bounds each individual attempt. Zero disables the
	// per-attempt deadline.
	AttemptTimeout time.Duration
	// TimeoutMessage is attached to per-attempt timeout errors.
	TimeoutMessage string
}

// Retry invokes factory until it succeeds, retrying with exponential backoff.
// The factory is invoked fresh on every attempt; a settled result is never
// reused. After MaxRetries additional attempts the last error is returned.
func Retry[T any](ctx context.Context, cfg RetryConfig, factory func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.InitialDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		var (
			value T
			err   error
		)
		if cfg.AttemptTimeout > 0 {
			value, err = WithTimeout(ctx, cfg.AttemptTimeout, cfg.TimeoutMessage, factory)
		} else {
			value, err = factory(ctx)
		}
		if err == nil {
			return value, nil
		}
		lastErr = err
	}

	return zero, lastErr
}
