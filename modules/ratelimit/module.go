package ratelimit

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module owns the rate limiting middleware as a mono module.
type Module struct {
	client     *redis.Client
	config     Config
	middleware *Middleware
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the module. A nil client disables limiting.
func NewModule(client *redis.Client, config Config) *Module {
	return &Module{
		client:     client,
		config:     config,
		middleware: NewMiddleware(client, config, "ratelimit:"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ratelimit"
}

// Middleware returns the rate limiting middleware.
func (m *Module) Middleware() *Middleware {
	return m.middleware
}

// Start verifies the Redis connection when limiting is enabled.
func (m *Module) Start(ctx context.Context) error {
	if m.client == nil {
		log.Println("[ratelimit] Module started (disabled: REDIS_ADDR not set)")
		return nil
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("[ratelimit] Module started (%d requests per %s)", m.config.RequestsPerWindow, m.config.WindowSize)
	return nil
}

// Stop stops the module. The Redis client is owned and closed by main.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[ratelimit] Module stopped")
	return nil
}

// Health reports the Redis connection state. A disabled limiter is healthy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}
