// Package report exports tasks and per-user workloads as Excel workbooks.
package report

import (
	"context"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/task"
)

// UserLister is the part of the identity provider the reports need.
type UserLister interface {
	ListUsers(ctx context.Context, role user.Role) ([]user.User, error)
}

// File is a generated report.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Service builds reports from the task and identity modules.
type Service struct {
	tasks task.TaskPort
	users UserLister
}

// NewService creates a new report Service.
func NewService(tasks task.TaskPort, users UserLister) *Service {
	return &Service{tasks: tasks, users: users}
}

// ExportTasks renders every task with its resolved assignees. Admin only.
func (s *Service) ExportTasks(ctx context.Context, actor user.Actor) (*File, error) {
	if err := domain.Authorize(actor, domain.OpExport, nil); err != nil {
		return nil, err
	}

	listed, err := s.tasks.ListTasks(ctx, actor, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	users, err := s.users.ListUsers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	data, err := TasksWorkbook(listed.Tasks, byID)
	if err != nil {
		return nil, err
	}
	return &File{Filename: TasksFilename, ContentType: ContentTypeXLSX, Data: data}, nil
}

// ExportUsers renders every user with their task counts by status. Admin only.
func (s *Service) ExportUsers(ctx context.Context, actor user.Actor) (*File, error) {
	if err := domain.Authorize(actor, domain.OpExport, nil); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	counts, err := s.tasks.AssigneeSummary(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	data, err := UsersWorkbook(users, counts)
	if err != nil {
		return nil, err
	}
	return &File{Filename: UsersFilename, ContentType: ContentTypeXLSX, Data: data}, nil
}
