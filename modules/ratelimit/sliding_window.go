package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, counts it and records the request
// atomically. It returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_size_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_size_ms)
		redis.call('PEXPIRE', counter_key, window_size_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_after = 0
	if #oldest >= 2 then
		retry_after = oldest[2] + window_size_ms - now
	end
	return {0, 0, retry_after}
`)

// SlidingWindowLimiter counts requests per key in a Redis sorted set of timestamps.
type SlidingWindowLimiter struct {
	client *redis.Client
	config Config
	prefix string
}

// NewSlidingWindowLimiter creates a limiter whose keys live under prefix.
func NewSlidingWindowLimiter(client *redis.Client, config Config, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		config: config,
		prefix: prefix,
	}
}

// Allow records a request for key and reports whether it fits in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	redisKey := l.prefix + key

	raw, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.config.WindowSize).UnixMilli(),
		l.config.RequestsPerWindow,
		l.config.WindowSize.Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("unexpected result length: %d", len(raw))
	}

	values := make([]int64, 3)
	for i := range values {
		v, ok := raw[i].(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected type for result %d: %T", i, raw[i])
		}
		values[i] = v
	}

	res := &Result{
		Allowed:   values[0] == 1,
		Remaining: int(values[1]),
		ResetAt:   now.Add(l.config.WindowSize),
	}
	if !res.Allowed && values[2] > 0 {
		res.RetryAfter = time.Duration(values[2]) * time.Millisecond
	}
	return res, nil
}

// Limit returns the configured requests per window.
func (l *SlidingWindowLimiter) Limit() int {
	return l.config.RequestsPerWindow
}
