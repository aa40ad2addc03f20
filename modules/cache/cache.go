// Package cache provides a Redis-backed JSON cache used with the cache-aside pattern.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned by Ping when no Redis client is configured.
var ErrDisabled = errors.New("cache disabled")

// Cache stores JSON values in Redis under a key prefix. A Cache without a
// client is disabled: every Get misses and every write is a no-op.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  stats
}

type stats struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
	errors  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

// New creates a cache. client may be nil to disable caching.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Enabled reports whether the cache is backed by Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value stored under key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.misses.Add(1)
			return false, nil
		}
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.hits.Add(1)
	return true, nil
}

// Set stores a value with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}

	c.stats.sets.Add(1)
	return nil
}

// Delete removes a value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}

	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache delete error: %w", err)
	}

	c.stats.deletes.Add(1)
	return nil
}

// DeletePattern removes every key matching a glob pattern and returns how many were removed.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+pattern, 100).Result()
		if err != nil {
			c.stats.errors.Add(1)
			return deleted, fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.stats.errors.Add(1)
				return deleted, fmt.Errorf("cache delete error: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.stats.deletes.Add(uint64(deleted))
	return deleted, nil
}

// Stats returns the current cache statistics.
func (c *Cache) Stats() StatsSnapshot {
	if c == nil {
		return StatsSnapshot{}
	}
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()
	totalGets := hits + misses

	var hitRate float64
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets) * 100
	}

	return StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      c.stats.sets.Load(),
		Deletes:   c.stats.deletes.Load(),
		Errors:    c.stats.errors.Load(),
		HitRate:   hitRate,
		TotalGets: totalGets,
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	return c.client.Ping(ctx).Err()
}
