package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local TTL cache on go-cache.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a cache whose entries live for ttl. Expired entries are
// purged every cleanupInterval.
func NewMemory(ttl, cleanupInterval time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{store: gocache.New(ttl, cleanupInterval)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.store.Set(key, value, gocache.DefaultExpiration)
}

// Delete removes a key.
func (m *Memory) Delete(key string) {
	m.store.Delete(key)
}

// Clear removes every entry.
func (m *Memory) Clear() {
	m.store.Flush()
}

// Stats implements StatsReporter.
func (m *Memory) Stats(context.Context) Stats {
	return Stats{Backend: "memory", ItemCount: m.store.ItemCount()}
}
