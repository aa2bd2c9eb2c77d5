package ratelimiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Policy defines the attempt budget for one class of operation.
// Different call sites supply different policies (sign-up is typically
// stricter than sign-in).
type Policy struct {
	// MaxAttempts is the number of attempts permitted within Window before
	// the identifier is locked out.
	MaxAttempts int
	// Window is the sliding window: once this much time passes since the
	// last attempt, the counter resets.
	Window time.Duration
	// BlockDuration is how long an identifier stays locked out after
	// exceeding MaxAttempts.
	BlockDuration time.Duration
	// MinDelay is the minimum spacing between consecutive attempts; faster
	// retries are denied even when the window would otherwise allow them.
	MinDelay time.Duration
}

// Validate reports whether the policy limits are usable.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 || p.Window <= 0 || p.BlockDuration <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Result is the outcome of a rate limit check.
type Result struct {
	// Allowed reports whether the attempt may proceed.
	Allowed bool
	// Message is a human-readable explanation: a wait instruction when
	// denied, or an advisory warning when few attempts remain.
	Message string
	// RetryAfter is how long the caller must wait when denied; zero when
	// allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (r Result) RetryAfterSeconds() int {
	return int((r.RetryAfter + time.Second - 1) / time.Second)
}

// entry is the persisted per-identifier state. Reserved marks an attempt
// counted by Check whose outcome is still pending, so a following
// RecordFailure settles it instead of counting a second attempt.
type entry struct {
	Attempts      int   `json:"attempts"`
	LastAttemptAt int64 `json:"last_attempt_at"`
	BlockedUntil  int64 `json:"blocked_until,omitempty"`
	Reserved      bool  `json:"reserved,omitempty"`
}

const defaultKeyPrefix = "ratelimit:"

// Limiter is a durable, per-identifier sliding-window attempt counter with
// escalating lockout. Entries survive process restarts through the Store.
//
// Store failures never surface to callers: reads that fail are treated as
// "no entry" and writes are best-effort, both logged. A broken store degrades
// to allowing attempts rather than locking users out.
type Limiter struct {
	store     Store
	keyPrefix string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger for degraded-store warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithKeyPrefix overrides the default "ratelimit:" storage key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) {
		if prefix != "" {
			l.keyPrefix = prefix
		}
	}
}

// WithClock injects a time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter backed by the given durable store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:     store,
		keyPrefix: defaultKeyPrefix,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Check decides whether an attempt for identifier may proceed under policy,
// recording the attempt when allowed. Decision order: active lockout, window
// reset, minimum delay, lockout transition, counted attempt. A counted
// attempt is reserved: a RecordFailure that follows settles the same attempt
// rather than counting a second one.
func (l *Limiter) Check(ctx context.Context, identifier string, policy Policy) Result {
	key := l.key(identifier)
	now := l.now().UnixMilli()

	e := l.load(ctx, key)
	if e == nil {
		l.save(ctx, key, &entry{Attempts: 1, LastAttemptAt: now, Reserved: true})
		return Result{Allowed: true}
	}

	// Active lockout: deny with remaining time, without extending the block.
	if e.BlockedUntil > 0 && now < e.BlockedUntil {
		remaining := millis(e.BlockedUntil - now)
		return Result{
			Message:    fmt.Sprintf("Too many attempts. Try again in %s.", formatWait(remaining)),
			RetryAfter: remaining,
		}
	}

	// Sliding window elapsed: start over with a fresh single attempt.
	if now-e.LastAttemptAt > policy.Window.Milliseconds() {
		l.save(ctx, key, &entry{Attempts: 1, LastAttemptAt: now, Reserved: true})
		return Result{Allowed: true}
	}

	// Rapid-fire protection inside the window.
	if policy.MinDelay > 0 && now-e.LastAttemptAt < policy.MinDelay.Milliseconds() {
		remaining := millis(policy.MinDelay.Milliseconds() - (now - e.LastAttemptAt))
		return Result{
			Message:    "Please wait a moment before trying again.",
			RetryAfter: remaining,
		}
	}

	// Budget exhausted: transition into lockout exactly once per crossing.
	if e.Attempts >= policy.MaxAttempts {
		e.BlockedUntil = now + policy.BlockDuration.Milliseconds()
		e.LastAttemptAt = now
		l.save(ctx, key, e)
		return Result{
			Message:    fmt.Sprintf("Too many attempts. Try again in %s.", formatWait(policy.BlockDuration)),
			RetryAfter: policy.BlockDuration,
		}
	}

	e.Attempts++
	e.LastAttemptAt = now
	e.BlockedUntil = 0
	e.Reserved = true
	l.save(ctx, key, e)

	res := Result{Allowed: true}
	switch remaining := policy.MaxAttempts - e.Attempts; {
	case remaining == 0:
		res.Message = "This is your last attempt before a temporary lockout."
	case remaining == 1:
		res.Message = "1 attempt remaining before temporary lockout."
	case remaining == 2:
		res.Message = "2 attempts remaining before temporary lockout."
	}
	return res
}

// RecordFailure counts an attributable authentication failure against the
// identifier, with the same window and lockout rules as Check. Call it only
// for credential failures, never for transport errors. When the failure
// follows a counted Check it settles that attempt's reservation — one failed
// sign-in counts once, not twice. The independent increment remains for
// callers that record failures without a preceding Check.
func (l *Limiter) RecordFailure(ctx context.Context, identifier string, policy Policy) {
	key := l.key(identifier)
	now := l.now().UnixMilli()

	e := l.load(ctx, key)
	switch {
	case e == nil:
		e = &entry{Attempts: 1, LastAttemptAt: now}
	case e.BlockedUntil > 0 && now < e.BlockedUntil:
		// Lockouts are not extended by attempts made while locked out.
		return
	case now-e.LastAttemptAt > policy.Window.Milliseconds():
		e = &entry{Attempts: 1, LastAttemptAt: now}
	case e.Reserved:
		// Check already counted this attempt; settle the bookkeeping only.
		e.Reserved = false
		e.LastAttemptAt = now
	default:
		e.Attempts++
		e.LastAttemptAt = now
	}

	if e.Attempts >= policy.MaxAttempts {
		e.BlockedUntil = now + policy.BlockDuration.Milliseconds()
	}

	l.save(ctx, key, e)
}

// Clear removes the identifier's entry. Call it after a successful
// authenticated action so earlier failures stop counting.
func (l *Limiter) Clear(ctx context.Context, identifier string) {
	key := l.key(identifier)
	if err := l.store.Delete(ctx, key); err != nil {
		l.logger.WarnContext(ctx, "rate limit entry delete failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

// key normalizes the identifier: entries are keyed case-insensitively.
func (l *Limiter) key(identifier string) string {
	return l.keyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) load(ctx context.Context, key string) *entry {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.logger.WarnContext(ctx, "rate limit entry read failed, treating as no entry",
				slog.String("key", key), slog.Any("error", err))
		}
		return nil
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		l.logger.WarnContext(ctx, "rate limit entry corrupted, treating as no entry",
			slog.String("key", key), slog.Any("error", err))
		return nil
	}
	return &e
}

func (l *Limiter) save(ctx context.Context, key string, e *entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := l.store.Set(ctx, key, string(raw)); err != nil {
		l.logger.WarnContext(ctx, "rate limit entry write failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// formatWait renders a duration for user-facing wait messages.
func formatWait(d time.Duration) string {
	if d < time.Minute {
		secs := int((d + time.Second - 1) / time.Second)
		if secs <= 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}

	mins := int((d + time.Minute - 1) / time.Minute)
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
