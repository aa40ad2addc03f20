package api

import (
	"encoding/json"

	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
)

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileUpdateRequest is the body of PUT /api/auth/profile.
type ProfileUpdateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StatusRequest is the body of PUT /api/tasks/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ChecklistRequest is the body of PUT /api/tasks/:id/todo.
type ChecklistRequest struct {
	TodoChecklist json.RawMessage `json:"todoChecklist"`
}

// TaskMessageResponse wraps a task returned by a mutation.
type TaskMessageResponse struct {
	Message string            `json:"message"`
	Task    task.TaskResponse `json:"task"`
}

// MessageResponse is a body carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// MemberResponse is a user listing entry with their task counts.
type MemberResponse struct {
	auth.UserResponse
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
