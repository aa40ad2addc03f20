package task

import (
	"context"
	"encoding/json"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
)

// ListTasksRequest is the request for listing tasks visible to the actor.
type ListTasksRequest struct {
	Actor  user.Actor `json:"actor"`
	Status string     `json:"status,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks         []TaskResponse       `json:"tasks"`
	StatusSummary domain.StatusSummary `json:"statusSummary"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	Actor  user.Actor `json:"actor"`
	TaskID string     `json:"task_id"`
}

// CreateTaskRequest is the request for creating a task. Collection fields are kept
// raw so their shape can be validated by the engine.
type CreateTaskRequest struct {
	Actor         user.Actor      `json:"actor"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Priority      string          `json:"priority"`
	DueDate       string          `json:"dueDate"`
	AssignedTo    json.RawMessage `json:"assignedTo,omitempty"`
	Attachments   json.RawMessage `json:"attachments,omitempty"`
	TodoChecklist json.RawMessage `json:"todoChecklist,omitempty"`
}

// UpdateTaskRequest is the request for a partial update. Nil, null and empty
// values keep the stored value.
type UpdateTaskRequest struct {
	Actor         user.Actor      `json:"actor"`
	TaskID        string          `json:"task_id"`
	Title         *string         `json:"title,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Priority      *string         `json:"priority,omitempty"`
	DueDate       *string         `json:"dueDate,omitempty"`
	AssignedTo    json.RawMessage `json:"assignedTo,omitempty"`
	Attachments   json.RawMessage `json:"attachments,omitempty"`
	TodoChecklist json.RawMessage `json:"todoChecklist,omitempty"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	Actor  user.Actor `json:"actor"`
	TaskID string     `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// UpdateStatusRequest is the request for changing a task's status.
type UpdateStatusRequest struct {
	Actor  user.Actor `json:"actor"`
	TaskID string     `json:"task_id"`
	Status string     `json:"status"`
}

// UpdateChecklistRequest is the request for replacing a task's checklist.
type UpdateChecklistRequest struct {
	Actor         user.Actor      `json:"actor"`
	TaskID        string          `json:"task_id"`
	TodoChecklist json.RawMessage `json:"todoChecklist,omitempty"`
}

// DashboardRequest is the request for either dashboard variant.
type DashboardRequest struct {
	Actor user.Actor `json:"actor"`
}

// AssigneeSummaryRequest is the request for per-user task counts.
type AssigneeSummaryRequest struct {
	Actor user.Actor `json:"actor"`
}

// AssigneeSummaryResponse maps user IDs to their task counts.
type AssigneeSummaryResponse struct {
	Counts map[string]domain.AssigneeCounts `json:"counts"`
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	Priority           string                 `json:"priority"`
	Status             string                 `json:"status"`
	DueDate            *time.Time             `json:"dueDate"`
	AssignedTo         []string               `json:"assignedTo"`
	Attachments        []string               `json:"attachments"`
	TodoChecklist      []domain.ChecklistItem `json:"todoChecklist"`
	Progress           int                    `json:"progress"`
	CompletedTodoCount int                    `json:"completedTodoCount"`
	CreatedBy          string                 `json:"createdBy"`
	Version            int                    `json:"version"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// TaskPort defines the interface for task operations (hexagonal port).
// Driving adapters (the HTTP API, the report generator) use it to reach the engine.
type TaskPort interface {
	ListTasks(ctx context.Context, actor user.Actor, status string) (*ListTasksResponse, error)
	GetTask(ctx context.Context, actor user.Actor, taskID string) (*TaskResponse, error)
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, actor user.Actor, taskID string) error
	UpdateStatus(ctx context.Context, actor user.Actor, taskID, status string) (*TaskResponse, error)
	UpdateChecklist(ctx context.Context, actor user.Actor, taskID string, checklist json.RawMessage) (*TaskResponse, error)
	GlobalDashboard(ctx context.Context, actor user.Actor) (*domain.Dashboard, error)
	UserDashboard(ctx context.Context, actor user.Actor) (*domain.Dashboard, error)
	AssigneeSummary(ctx context.Context, actor user.Actor) (map[string]domain.AssigneeCounts, error)
}

// AssigneeChecker reports which of the given user IDs do not exist.
type AssigneeChecker interface {
	FindMissing(ctx context.Context, ids []string) ([]string, error)
}

// DashboardCache stores computed dashboards.
type DashboardCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// toTaskResponse converts a domain Task to a TaskResponse.
func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Priority:           string(t.Priority),
		Status:             string(t.Status),
		DueDate:            t.DueDate,
		AssignedTo:         t.AssignedTo,
		Attachments:        t.Attachments,
		TodoChecklist:      t.TodoChecklist,
		Progress:           t.Progress,
		CompletedTodoCount: domain.CompletedCount(t.TodoChecklist),
		CreatedBy:          t.CreatedBy,
		Version:            t.Version,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}
