package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// invalidationTimeout bounds the Redis work done for one task event.
const invalidationTimeout = 3 * time.Second

// Module exposes the shared cache and evicts derived entries when tasks change.
type Module struct {
	cache      *Cache
	invalidate []string
}

var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the cache module. Keys matching any of the invalidate
// patterns are dropped whenever a task is created, updated or deleted.
func NewModule(c *Cache, invalidate ...string) *Module {
	return &Module{
		cache:      c,
		invalidate: invalidate,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Cache returns the cache instance.
func (m *Module) Cache() *Cache {
	return m.cache
}

// RegisterEventConsumers subscribes to task change events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[cache] Registered event consumers: TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

func (m *Module) handleTaskCreated(ctx context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.evict(ctx, "created", event.TaskID)
	return nil
}

func (m *Module) handleTaskUpdated(ctx context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.evict(ctx, string(event.Kind)+" update", event.TaskID)
	return nil
}

func (m *Module) handleTaskDeleted(ctx context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.evict(ctx, "deleted", event.TaskID)
	return nil
}

// evict drops every key matching the invalidation patterns. Failures are
// logged; entries then expire with their TTL.
func (m *Module) evict(ctx context.Context, reason, taskID string) {
	if !m.cache.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, invalidationTimeout)
	defer cancel()

	for _, pattern := range m.invalidate {
		n, err := m.cache.DeletePattern(ctx, pattern)
		if err != nil {
			log.Printf("[cache] Warning: failed to invalidate %s after task %s %s: %v", pattern, taskID, reason, err)
			continue
		}
		if n > 0 {
			log.Printf("[cache] Invalidated %d keys matching %s (task %s %s)", n, pattern, taskID, reason)
		}
	}
}

// Start starts the module.
func (m *Module) Start(ctx context.Context) error {
	if !m.cache.Enabled() {
		log.Println("[cache] Module started (disabled: REDIS_ADDR not set)")
		return nil
	}
	if err := m.cache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("[cache] Module started (prefix: %s, TTL: %s)", m.cache.prefix, m.cache.ttl)
	return nil
}

// Stop stops the module. The Redis client is owned and closed by main.
func (m *Module) Stop(_ context.Context) error {
	s := m.cache.Stats()
	log.Printf("[cache] Module stopped (hits: %d, misses: %d, hit rate: %.1f%%)", s.Hits, s.Misses, s.HitRate)
	return nil
}

// Health reports the Redis connection state. A disabled cache is healthy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if !m.cache.Enabled() {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"stats": m.cache.Stats()},
	}
}
