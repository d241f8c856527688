// Package cache stores encoded search responses for the HTTP server.
// The search core itself never caches.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Stats describes cache effectiveness.
type Stats struct {
	Backend   string `json:"backend"`
	ItemCount int    `json:"item_count"`
}

// StatsReporter is implemented by caches that can count their entries.
type StatsReporter interface {
	Stats(ctx context.Context) Stats
}

// DefaultTTL is the lifetime of a cached search response.
const DefaultTTL = 5 * time.Minute

// Key derives a stable cache key from the parts of a request that affect its
// response. Parts are lowercased and trimmed first.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
	}
	return "search:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// KeyInt formats an integer request part for Key.
func KeyInt(n int) string {
	return strconv.Itoa(n)
}
