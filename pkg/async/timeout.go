package async

import (
	"context"
	"time"
)

// WithTimeout races fn against a timer. On expiry it returns a *TimeoutError
// with the given message. The function is not cancelled on timeout: it may
// still complete later, and its late result is silently discarded.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, message string, fn func(context.Context) (T, error)) (T, error) {
	return Go(ctx, fn).AwaitWithTimeout(timeout, message)
}
