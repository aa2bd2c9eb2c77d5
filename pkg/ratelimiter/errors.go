package ratelimiter

import "errors"

var (
	// ErrNotFound is returned by a Store when no entry exists for a key.
	ErrNotFound = errors.New("rate limit entry not found")
	// ErrInvalidPolicy is returned when a policy has non-positive limits.
	ErrInvalidPolicy = errors.New("invalid rate limit policy")
)
