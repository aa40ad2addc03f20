package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ExportRequest identifies who asks for a report.
type ExportRequest struct {
	Actor user.Actor `json:"actor"`
}

// ReportModule generates spreadsheets from task and user data.
type ReportModule struct {
	taskPort task.TaskPort
	authPort auth.AuthPort
	service  *Service
}

var _ mono.Module = (*ReportModule)(nil)
var _ mono.ServiceProviderModule = (*ReportModule)(nil)
var _ mono.DependentModule = (*ReportModule)(nil)

// NewModule creates a new ReportModule.
func NewModule() *ReportModule {
	return &ReportModule{}
}

func (m *ReportModule) Name() string {
	return "report"
}

func (m *ReportModule) Dependencies() []string {
	return []string{"task", "auth"}
}

func (m *ReportModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	}
}

func (m *ReportModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "export-tasks", json.Unmarshal, json.Marshal, m.exportTasks,
	); err != nil {
		return fmt.Errorf("failed to register export-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "export-users", json.Unmarshal, json.Marshal, m.exportUsers,
	); err != nil {
		return fmt.Errorf("failed to register export-users service: %w", err)
	}

	log.Printf("[report] Registered services: export-tasks, export-users")
	return nil
}

func (m *ReportModule) exportTasks(ctx context.Context, req ExportRequest, _ *mono.Msg) (File, error) {
	f, err := m.service.ExportTasks(ctx, req.Actor)
	if err != nil {
		return File{}, err
	}
	log.Printf("[report] Exported %s for %s (%d bytes)", f.Filename, req.Actor.ID, len(f.Data))
	return *f, nil
}

func (m *ReportModule) exportUsers(ctx context.Context, req ExportRequest, _ *mono.Msg) (File, error) {
	f, err := m.service.ExportUsers(ctx, req.Actor)
	if err != nil {
		return File{}, err
	}
	log.Printf("[report] Exported %s for %s (%d bytes)", f.Filename, req.Actor.ID, len(f.Data))
	return *f, nil
}

func (m *ReportModule) Start(_ context.Context) error {
	if m.taskPort == nil || m.authPort == nil {
		return fmt.Errorf("task and auth dependencies not set")
	}
	m.service = NewService(m.taskPort, m.authPort)
	log.Println("[report] Module started (depends on: task, auth)")
	return nil
}

func (m *ReportModule) Stop(_ context.Context) error {
	log.Println("[report] Module stopped")
	return nil
}
