package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultLRUSize bounds the LRU cache when no size is configured.
const DefaultLRUSize = 1024

// LRU is a size-bounded cache that evicts the least recently used entry.
type LRU struct {
	store *expirable.LRU[string, []byte]
}

// NewLRU creates an LRU cache holding at most size entries for ttl each.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = DefaultLRUSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU{store: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements Cache.
func (l *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	return l.store.Get(key)
}

// Set implements Cache.
func (l *LRU) Set(_ context.Context, key string, value []byte) {
	l.store.Add(key, value)
}

// Stats implements StatsReporter.
func (l *LRU) Stats(context.Context) Stats {
	return Stats{Backend: "lru", ItemCount: l.store.Len()}
}
