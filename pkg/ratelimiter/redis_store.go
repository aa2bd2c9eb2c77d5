package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultEntryTTL = 48 * time.Hour

// RedisStore implements Store on top of Redis, giving rate limit entries
// durability across process restarts. Entries carry a TTL so abandoned
// identifiers expire on their own.
type RedisStore struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithEntryTTL overrides the default 48h expiry on stored entries.
// The TTL must comfortably exceed the longest policy window plus lockout.
func WithEntryTTL(ttl time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		if ttl > 0 {
			rs.ttl = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb goredis.Cmdable, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{rdb: rdb, ttl: defaultEntryTTL}

	for _, opt := range opts {
		opt(rs)
	}

	return rs
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := rs.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

func (rs *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := rs.rdb.Set(ctx, key, value, rs.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
