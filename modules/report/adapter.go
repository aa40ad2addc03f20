package report

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ReportPort is the port other modules use to request reports.
type ReportPort interface {
	ExportTasks(ctx context.Context, actor user.Actor) (*File, error)
	ExportUsers(ctx context.Context, actor user.Actor) (*File, error)
}

type reportAdapter struct {
	container mono.ServiceContainer
}

// NewReportAdapter creates a ReportPort over the report module's services.
func NewReportAdapter(container mono.ServiceContainer) ReportPort {
	if container == nil {
		panic("report adapter requires non-nil ServiceContainer")
	}
	return &reportAdapter{container: container}
}

func (a *reportAdapter) ExportTasks(ctx context.Context, actor user.Actor) (*File, error) {
	req := ExportRequest{Actor: actor}
	var resp File
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"export-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("export-tasks", err)
	}
	return &resp, nil
}

func (a *reportAdapter) ExportUsers(ctx context.Context, actor user.Actor) (*File, error) {
	req := ExportRequest{Actor: actor}
	var resp File
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"export-users",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("export-users", err)
	}
	return &resp, nil
}

func remoteError(service string, err error) error {
	if mapped, ok := domain.MatchRemote(err); ok {
		return mapped
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}
