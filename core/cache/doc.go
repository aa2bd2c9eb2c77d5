// Package cache provides a thread-safe, generic LRU cache.
//
// LRUCache evicts the least recently used entry when capacity is reached.
// An optional eviction callback supports resource cleanup:
//
//	c := cache.NewLRUCache[string, []byte](200)
//	c.Put("query:prayers", payload)
//	if data, ok := c.Get("query:prayers"); ok {
//		// cache hit
//	}
//	c.Clear()
//
// All operations are O(1) and safe for concurrent use.
package cache
