package ratelimiter

import (
	"context"
	"sync"
)

// MemoryStore implements Store with a process-local map. Entries do not
// survive restarts, so it is suitable for tests and as a fallback when no
// durable backend is available.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	value, ok := ms.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[key] = value
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

// Len returns the number of stored entries.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.entries)
}
