package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[T any] struct {
	value T
	err   error
	done  chan struct{}
}

// Go executes fn asynchronously and returns a Future for its result.
// The goroutine is never forcibly stopped; callers that give up on a Future
// (e.g. via AwaitWithTimeout) can safely abandon it and the goroutine will
// finish on its own.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		// Early exit prevents doing work when context is pre-canceled.
		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.value, f.err = fn(ctx)
	}()

	return f
}

// Await blocks until the computation completes and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.value, f.err
}

// AwaitWithTimeout waits for completion up to the given duration.
// On expiry it returns a *TimeoutError carrying the message; the underlying
// computation keeps running and its eventual result is discarded.
func (f *Future[T]) AwaitWithTimeout(timeout time.Duration, message string) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, newTimeoutError(message, timeout)
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
