package realtime

import (
	"sync"

	"github.com/dmitrymomot/mobilekit/core/cache"
)

// QueryCache is an in-memory cache of query results grouped by category. It
// implements Invalidator, so a Bridge can drop every cached result of a
// category when any record in that category changes.
type QueryCache[V any] struct {
	mu       sync.Mutex
	capacity int
	shards   map[Category]*cache.LRUCache[string, V]
}

// NewQueryCache creates a QueryCache holding up to capacity entries per
// category.
func NewQueryCache[V any](capacity int) *QueryCache[V] {
	if capacity <= 0 {
		capacity = 64
	}
	return &QueryCache[V]{
		capacity: capacity,
		shards:   make(map[Category]*cache.LRUCache[string, V]),
	}
}

// Get returns the cached result for key within category.
func (c *QueryCache[V]) Get(category Category, key string) (V, bool) {
	c.mu.Lock()
	shard, ok := c.shards[category]
	c.mu.Unlock()
	if !ok {
		var zero V
		return zero, false
	}
	return shard.Get(key)
}

// Put caches a query result under category and key.
func (c *QueryCache[V]) Put(category Category, key string, value V) {
	c.mu.Lock()
	shard, ok := c.shards[category]
	if !ok {
		shard = cache.NewLRUCache[string, V](c.capacity)
		c.shards[category] = shard
	}
	c.mu.Unlock()
	shard.Put(key, value)
}

// Invalidate drops every cached result of category.
func (c *QueryCache[V]) Invalidate(category Category) {
	c.mu.Lock()
	shard, ok := c.shards[category]
	c.mu.Unlock()
	if ok {
		shard.Clear()
	}
}

// Len returns the number of cached results in category.
func (c *QueryCache[V]) Len(category Category) int {
	c.mu.Lock()
	shard, ok := c.shards[category]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return shard.Len()
}
