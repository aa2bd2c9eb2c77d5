// Package ratelimiter provides a durable, per-identifier sliding-window
// attempt counter with escalating lockout, designed to guard
// credential-submitting operations.
//
// Unlike throughput limiters, this package tracks discrete attempts per
// identifier (typically an email address, matched case-insensitively) and
// persists state through a pluggable key-value Store so limits survive
// process restarts.
//
// # Decision Order
//
// Check evaluates rules in a fixed order:
//  1. Active lockout: deny with remaining lockout time (never extends it).
//  2. Window elapsed since the last attempt: reset to a fresh single attempt
//     and allow.
//  3. Less than MinDelay since the last attempt: deny with the remaining
//     delay (rapid-fire protection).
//  4. Attempt budget exhausted: transition into lockout, persist, deny.
//  5. Otherwise count the attempt and allow, with an advisory warning when
//     two or fewer attempts remain.
//
// RecordFailure applies the same window and lockout rules for failures that
// are attributable to bad credentials, so repeated failed checks count even
// when Check itself permitted the attempt. Clear removes an identifier's
// entry after a successful authenticated action.
//
// # Usage
//
//	limiter := ratelimiter.New(ratelimiter.NewRedisStore(rdb))
//
//	policy := ratelimiter.Policy{
//		MaxAttempts:   5,
//		Window:        15 * time.Minute,
//		BlockDuration: 30 * time.Minute,
//		MinDelay:      time.Second,
//	}
//
//	res := limiter.Check(ctx, email, policy)
//	if !res.Allowed {
//		return fmt.Errorf("%s (retry in %ds)", res.Message, res.RetryAfterSeconds())
//	}
//
// # Failure Semantics
//
// Store failures never propagate to callers: failed reads are treated as
// "no entry", failed writes are best-effort, and both are logged. A broken
// store therefore fails open rather than locking users out. This assumes a
// single active writer per identifier, which holds when attempts are
// serialized through a UI.
package ratelimiter
