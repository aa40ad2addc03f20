// Package ratelimit provides a Redis sliding window rate limiter and its Fiber middleware.
package ratelimit

import (
	"time"

	"github.com/example/task-manager/config"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// FromConfig converts the application settings, falling back to DefaultConfig for unset values.
func FromConfig(cfg config.RateLimitConfig) Config {
	c := DefaultConfig()
	if cfg.Requests > 0 {
		c.RequestsPerWindow = cfg.Requests
	}
	if cfg.Window > 0 {
		c.WindowSize = cfg.Window
	}
	return c
}

// DefaultConfig allows 20 requests per minute, enough for interactive sign-in
// while slowing credential guessing.
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 20,
		WindowSize:        time.Minute,
	}
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // only set when not allowed
}
