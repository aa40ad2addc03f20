package ratelimit

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Limit() int
}

// Middleware applies per-client-IP limits to selected routes.
type Middleware struct {
	limiter Limiter
}

// NewMiddleware creates the middleware. A nil client disables limiting.
func NewMiddleware(client *redis.Client, config Config, keyPrefix string) *Middleware {
	if client == nil {
		return &Middleware{}
	}
	return &Middleware{limiter: NewSlidingWindowLimiter(client, config, keyPrefix)}
}

// Enabled reports whether requests are being limited.
func (m *Middleware) Enabled() bool {
	return m != nil && m.limiter != nil
}

// ByIP limits requests by client IP. scope separates the budgets of different
// routes, so login attempts do not consume the registration budget.
func (m *Middleware) ByIP(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.Enabled() {
			return c.Next()
		}

		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Unable to determine client IP address",
			})
		}

		result, err := m.limiter.Allow(c.UserContext(), scope+":"+ip)
		if err != nil {
			// Fail open
			log.Printf("[ratelimit] Warning: limiter unavailable for %s: %v", scope, err)
			return c.Next()
		}

		setRateLimitHeaders(c, result, m.limiter.Limit())
		if !result.Allowed {
			return sendRateLimitExceeded(c, result)
		}
		return c.Next()
	}
}

func setRateLimitHeaders(c *fiber.Ctx, result *Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":   "too_many_requests",
		"message": fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
	})
}
