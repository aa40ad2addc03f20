package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/database"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// TaskModule provides the task lifecycle and dashboard services (core domain).
type TaskModule struct {
	db       *gorm.DB
	dbConfig config.DatabaseConfig
	service  *Service
	authPort auth.AuthPort
	cache    DashboardCache
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule. cache may be nil to disable dashboard caching.
func NewModule(dbConfig config.DatabaseConfig, cache DashboardCache) *TaskModule {
	return &TaskModule{
		dbConfig: dbConfig,
		cache:    cache,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) Dependencies() []string {
	return []string{"auth"}
}

func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authPort = auth.NewAuthAdapter(container)
	}
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task-status", json.Unmarshal, json.Marshal, m.updateTaskStatus,
	); err != nil {
		return fmt.Errorf("failed to register update-task-status service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task-checklist", json.Unmarshal, json.Marshal, m.updateTaskChecklist,
	); err != nil {
		return fmt.Errorf("failed to register update-task-checklist service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "dashboard-global", json.Unmarshal, json.Marshal, m.globalDashboard,
	); err != nil {
		return fmt.Errorf("failed to register dashboard-global service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "dashboard-user", json.Unmarshal, json.Marshal, m.userDashboard,
	); err != nil {
		return fmt.Errorf("failed to register dashboard-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "assignee-summary", json.Unmarshal, json.Marshal, m.assigneeSummary,
	); err != nil {
		return fmt.Errorf("failed to register assignee-summary service: %w", err)
	}

	log.Printf("[task] Registered services: list-tasks, get-task, create-task, update-task, delete-task, " +
		"update-task-status, update-task-checklist, dashboard-global, dashboard-user, assignee-summary")
	return nil
}

func (m *TaskModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("authPort dependency not set")
	}

	db, err := database.Open(m.dbConfig)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewService(repo)
	m.service.SetAssigneeChecker(m.authPort)
	if m.cache != nil {
		m.service.SetDashboardCache(m.cache)
	}
	if m.eventBus != nil {
		m.service.SetEventBus(m.eventBus)
	} else {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}

	log.Printf("[task] Module started (driver: %s, depends on: auth)", m.dbConfig.Driver)
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[task] Error closing database: %v", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.dbConfig.Driver,
		},
	}
}
