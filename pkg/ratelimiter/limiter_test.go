package ratelimiter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mobilekit/pkg/ratelimiter"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingStore simulates a broken durable backend.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("storage unavailable")
}

func (failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("storage unavailable")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("storage unavailable")
}

var testPolicy = ratelimiter.Policy{
	MaxAttempts:   3,
	Window:        15 * time.Minute,
	BlockDuration: 30 * time.Minute,
	MinDelay:      time.Second,
}

func newTestLimiter(t *testing.T) (*ratelimiter.Limiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	limiter := ratelimiter.New(ratelimiter.NewMemoryStore(), ratelimiter.WithClock(clock.Now))
	return limiter, clock
}

func TestCheckFirstAttemptAllowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, _ := newTestLimiter(t)

	res := limiter.Check(ctx, "a@b.com", testPolicy)
	assert.True(t, res.Allowed)
	assert.Zero(t, res.RetryAfter)
}

func TestLockoutAfterRecordedFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)

	for _i := 0; _i < 3; _i++ {
		clock.Advance(2 * time.Second)
		limiter.RecordFailure(ctx, "a@b.com", testPolicy)
	}

	clock.Advance(2 * time.Second)
	res := limiter.Check(ctx, "a@b.com", testPolicy)
	require.False(t, res.Allowed)
	assert.InDelta(t, 1800, res.RetryAfterSeconds(), 5)
	assert.Contains(t, res.Message, "Too many attempts")
}

func TestLockoutNotExtendedByFurtherAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)

	for _i := 0; _i < 3; _i++ {
		clock.Advance(2 * time.Second)
		limiter.RecordFailure(ctx, "a@b.com", testPolicy)
	}

	// Trip the lockout.
	clock.Advance(2 * time.Second)
	first := limiter.Check(ctx, "a@b.com", testPolicy)
	require.False(t, first.Allowed)

	// Hammering while locked out only reports shrinking remaining time.
	clock.Advance(10 * time.Minute)
	limiter.RecordFailure(ctx, "a@b.com", testPolicy)
	second := limiter.Check(ctx, "a@b.com", testPolicy)
	require.False(t, second.Allowed)
	assert.InDelta(t, 20*60, second.RetryAfterSeconds(), 5)
}

func TestMinDelayBetweenAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)

	first := limiter.Check(ctx, "a@b.com", testPolicy)
	require.True(t, first.Allowed)

	clock.Advance(500 * time.Millisecond)
	second := limiter.Check(ctx, "a@b.com", testPolicy)
	require.False(t, second.Allowed)
	assert.Equal(t, 1, second.RetryAfterSeconds())
	assert.Contains(t, second.Message, "wait a moment")
}

func TestWindowResetsCounter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)

	for _i := 0; _i < 2; _i++ {
		limiter.RecordFailure(ctx, "a@b.com", testPolicy)
		clock.Advance(2 * time.Second)
	}

	// Past the window the identifier starts over.
	clock.Advance(testPolicy.Window + time.Second)
	res := limiter.Check(ctx, "a@b.com", testPolicy)
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Message, "fresh window must not carry an advisory warning")
}

func TestClearResetsIdentifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)

	for _i := 0; _i < 3; _i++ {
		clock.Advance(2 * time.Second)
		limiter.RecordFailure(ctx, "a@b.com", testPolicy)
	}
	clock.Advance(2 * time.Second)
	require.False(t, limiter.Check(ctx, "a@b.com", testPolicy).Allowed)

	limiter.Clear(ctx, "a@b.com")

	clock.Advance(2 * time.Second)
	res := limiter.Check(ctx, "a@b.com", testPolicy)
	assert.True(t, res.Allowed, "cleared identifier behaves as first-ever attempt")
	assert.Empty(t, res.Message)
}

func TestAdvisoryWarningNearLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)
	policy := ratelimiter.Policy{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		BlockDuration: 30 * time.Minute,
		MinDelay:      time.Second,
	}

	var messages []string
	for _i := 0; _i < 5; _i++ {
		clock.Advance(2 * time.Second)
		res := limiter.Check(ctx, "a@b.com", policy)
		require.True(t, res.Allowed)
		messages = append(messages, res.Message)
	}

	assert.Empty(t, messages[0])
	assert.Empty(t, messages[1])
	assert.Contains(t, messages[2], "2 attempts remaining")
	assert.Contains(t, messages[3], "1 attempt remaining")
	assert.Contains(t, messages[4], "last attempt")
}

func TestCheckThenRecordFailureCountsOneAttempt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)
	policy := ratelimiter.Policy{
		MaxAttempts:   2,
		Window:        time.Minute,
		BlockDuration: time.Minute,
	}

	// A full failed cycle is one Check plus one RecordFailure; together they
	// must consume exactly one attempt, so both budgeted attempts reach the
	// caller before the lockout.
	require.True(t, limiter.Check(ctx, "a@b.com", policy).Allowed)
	limiter.RecordFailure(ctx, "a@b.com", policy)

	clock.Advance(2 * time.Second)
	require.True(t, limiter.Check(ctx, "a@b.com", policy).Allowed,
		"second attempt must not be pre-consumed by the first failure")
	limiter.RecordFailure(ctx, "a@b.com", policy)

	clock.Advance(2 * time.Second)
	res := limiter.Check(ctx, "a@b.com", policy)
	require.False(t, res.Allowed)
	assert.InDelta(t, 60, res.RetryAfterSeconds(), 5)
}

func TestRecordFailureWithoutCheckStillCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)
	policy := ratelimiter.Policy{
		MaxAttempts:   2,
		Window:        time.Minute,
		BlockDuration: time.Minute,
	}

	// One reserved attempt, then a failure recorded from another path (no
	// Check of its own): the second failure increments independently.
	require.True(t, limiter.Check(ctx, "a@b.com", policy).Allowed)
	limiter.RecordFailure(ctx, "a@b.com", policy)
	clock.Advance(2 * time.Second)
	limiter.RecordFailure(ctx, "a@b.com", policy)

	clock.Advance(2 * time.Second)
	assert.False(t, limiter.Check(ctx, "a@b.com", policy).Allowed)
}

func TestIdentifierIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter, clock := newTestLimiter(t)

	for _i := 0; _i < 3; _i++ {
		clock.Advance(2 * time.Second)
		limiter.RecordFailure(ctx, "A@B.com", testPolicy)
	}

	clock.Advance(2 * time.Second)
	res := limiter.Check(ctx, "a@b.COM", testPolicy)
	assert.False(t, res.Allowed)
}

func TestBrokenStoreFailsOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	limiter := ratelimiter.New(failingStore{})

	res := limiter.Check(ctx, "a@b.com", testPolicy)
	assert.True(t, res.Allowed, "a broken store must not lock users out")

	// These must not panic or surface errors.
	limiter.RecordFailure(ctx, "a@b.com", testPolicy)
	limiter.Clear(ctx, "a@b.com")
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, testPolicy.Validate())
	assert.ErrorIs(t, ratelimiter.Policy{}.Validate(), ratelimiter.ErrInvalidPolicy)
}

func TestEntrySurvivesLimiterRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	store := ratelimiter.NewMemoryStore()

	first := ratelimiter.New(store, ratelimiter.WithClock(clock.Now))
	for _i := 0; _i < 3; _i++ {
		clock.Advance(2 * time.Second)
		first.RecordFailure(ctx, "a@b.com", testPolicy)
	}

	// A new limiter over the same store sees the accumulated attempts.
	second := ratelimiter.New(store, ratelimiter.WithClock(clock.Now))
	clock.Advance(2 * time.Second)
	res := second.Check(ctx, "a@b.com", testPolicy)
	assert.False(t, res.Allowed)
}
