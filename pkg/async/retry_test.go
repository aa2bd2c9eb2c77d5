package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mobilekit/pkg/async"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	value, err := async.Retry(context.Background(), async.RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
	}, func(ctx context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, int32(3), calls.Load(), "factory must be invoked fresh per attempt")
}

func TestRetrySurfacesLastError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, err := async.Retry(context.Background(), async.RetryConfig{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		return 0, errors.New("attempt " + string(rune('0'+n)))
	})

	require.Error(t, err)
	assert.Equal(t, "attempt 3", err.Error())
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryExponentialBackoff(t *testing.T) {
	t.Parallel()

	started := time.Now()
	_, err := async.Retry(context.Background(), async.RetryConfig{
		MaxRetries:   3,
		InitialDelay: 20 * time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		return 0, errors.New("always fails")
	})

	require.Error(t, err)
	// Delays: 20 + 40 + 80 = 140ms minimum across three retries.
	assert.GreaterOrEqual(t, time.Since(started), 140*time.Millisecond)
}

func TestRetryPerAttemptTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, err := async.Retry(context.Background(), async.RetryConfig{
		MaxRetries:     1,
		InitialDelay:   5 * time.Millisecond,
		AttemptTimeout: 30 * time.Millisecond,
		TimeoutMessage: "attempt too slow",
	}, func(ctx context.Context) (int, error) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, async.ErrTimeout)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := async.Retry(ctx, async.RetryConfig{
		MaxRetries:   10,
		InitialDelay: 50 * time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load(), "cancel during backoff must stop retries")
}
