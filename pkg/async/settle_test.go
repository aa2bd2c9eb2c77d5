package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mobilekit/pkg/async"
)

func TestAllSettledMixedOutcomes(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("fetch failed")

	results := async.AllSettled(context.Background(), 100*time.Millisecond,
		func(ctx context.Context) (string, error) {
			return "fast", nil
		},
		func(ctx context.Context) (string, error) {
			time.Sleep(500 * time.Millisecond)
			return "slow", nil
		},
		func(ctx context.Context) (string, error) {
			return "", fetchErr
		},
	)

	require.Len(t, results, 3)

	assert.True(t, results[0].OK())
	assert.Equal(t, "fast", results[0].Value)

	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, async.ErrTimeout)

	assert.False(t, results[2].OK())
	assert.ErrorIs(t, results[2].Err, fetchErr)
}

func TestAllSettledRunsConcurrently(t *testing.T) {
	t.Parallel()

	started := time.Now()
	slow := func(ctx context.Context) (int, error) {
		time.Sleep(80 * time.Millisecond)
		return 1, nil
	}

	results := async.AllSettled(context.Background(), time.Second, slow, slow, slow)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.OK())
	}
	assert.Less(t, time.Since(started), 240*time.Millisecond, "tasks must run in parallel")
}

func TestAllSettledEmpty(t *testing.T) {
	t.Parallel()

	results := async.AllSettled[int](context.Background(), time.Second)
	assert.Empty(t, results)
}
