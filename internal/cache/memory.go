package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache used when Redis is not configured and
// by tests. Entries are swept by a background goroutine.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
}

type memoryItem struct {
	value      []byte
	expiration time.Time
}

// NewMemoryCache creates a new in-process cache
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		items: make(map[string]*memoryItem),
	}

	go mc.cleanupExpired()

	return mc
}

// Get retrieves a value, ErrMiss when absent or expired
func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	item, exists := mc.items[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, ErrMiss
	}

	return item.value, nil
}

// Set stores a value with the given TTL
func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.items[key] = &memoryItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a key
func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.items, key)
	return nil
}

func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		mc.mu.Lock()
		now := time.Now()
		for key, item := range mc.items {
			if now.After(item.expiration) {
				delete(mc.items, key)
			}
		}
		mc.mu.Unlock()
	}
}
