package ratelimiter

import "context"

// Store is the durable key-value backend for rate limit entries.
//
// Implementations must be safe for concurrent use. The limiter treats read
// failures as "no entry" and write failures as best-effort, so implementations
// should return errors rather than degrade silently; the limiter decides how
// to degrade.
type Store interface {
	// Get returns the stored value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
