package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentstation/servicemap/pkg/logging"
)

// DefaultRedisPrefix namespaces keys written by Redis.
const DefaultRedisPrefix = "servicemap:"

// Redis shares cached responses between server instances.
// Failures are logged and treated as misses.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a cache on client. Keys are stored under prefix.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Redis cache read failed")
		}
		return nil, false
	}
	return b, true
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Redis cache write failed")
	}
}

// Stats implements StatsReporter. Only keys under the prefix are counted.
func (r *Redis) Stats(ctx context.Context) Stats {
	var n int
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return Stats{Backend: "redis", ItemCount: n}
}
