package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// ListTasks lists the tasks visible to actor via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, actor user.Actor, status string) (*ListTasksResponse, error) {
	req := ListTasksRequest{Actor: actor, Status: status}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("list-tasks", err)
	}
	return &resp, nil
}

// GetTask retrieves a task by ID via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, actor user.Actor, taskID string) (*TaskResponse, error) {
	req := GetTaskRequest{Actor: actor, TaskID: taskID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("get-task", err)
	}
	return &resp, nil
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, remoteError("create-task", err)
	}
	return &resp, nil
}

// UpdateTask updates a task via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, remoteError("update-task", err)
	}
	return &resp, nil
}

// DeleteTask deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, actor user.Actor, taskID string) error {
	req := DeleteTaskRequest{Actor: actor, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return remoteError("delete-task", err)
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %s", taskID)
	}
	return nil
}

// UpdateStatus changes a task's status via the update-task-status service.
func (a *taskAdapter) UpdateStatus(ctx context.Context, actor user.Actor, taskID, status string) (*TaskResponse, error) {
	req := UpdateStatusRequest{Actor: actor, TaskID: taskID, Status: status}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task-status",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("update-task-status", err)
	}
	return &resp, nil
}

// UpdateChecklist replaces a task's checklist via the update-task-checklist service.
func (a *taskAdapter) UpdateChecklist(ctx context.Context, actor user.Actor, taskID string, checklist json.RawMessage) (*TaskResponse, error) {
	req := UpdateChecklistRequest{Actor: actor, TaskID: taskID, TodoChecklist: checklist}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task-checklist",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("update-task-checklist", err)
	}
	return &resp, nil
}

// GlobalDashboard fetches the admin dashboard via the dashboard-global service.
func (a *taskAdapter) GlobalDashboard(ctx context.Context, actor user.Actor) (*domain.Dashboard, error) {
	req := DashboardRequest{Actor: actor}
	var resp domain.Dashboard
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"dashboard-global",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("dashboard-global", err)
	}
	return &resp, nil
}

// UserDashboard fetches the actor's dashboard via the dashboard-user service.
func (a *taskAdapter) UserDashboard(ctx context.Context, actor user.Actor) (*domain.Dashboard, error) {
	req := DashboardRequest{Actor: actor}
	var resp domain.Dashboard
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"dashboard-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("dashboard-user", err)
	}
	return &resp, nil
}

// AssigneeSummary fetches per-user task counts via the assignee-summary service.
func (a *taskAdapter) AssigneeSummary(ctx context.Context, actor user.Actor) (map[string]domain.AssigneeCounts, error) {
	req := AssigneeSummaryRequest{Actor: actor}
	var resp AssigneeSummaryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"assignee-summary",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, remoteError("assignee-summary", err)
	}
	if resp.Counts == nil {
		resp.Counts = map[string]domain.AssigneeCounts{}
	}
	return resp.Counts, nil
}

// remoteError restores task sentinels from a failed call and wraps anything else.
func remoteError(service string, err error) error {
	if mapped, ok := domain.MatchRemote(err); ok {
		return mapped
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}
