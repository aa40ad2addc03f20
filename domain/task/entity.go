package task

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status represents the state of a task.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the canonical statuses in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Key returns the status with all whitespace removed ("In Progress" -> "InProgress").
func (s Status) Key() string {
	return strings.Join(strings.Fields(string(s)), "")
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus returns the canonical status named by s.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return status, nil
}

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the canonical priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority returns the canonical priority named by s. An empty string yields Medium.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	priority := Priority(s)
	if !slices.Contains(Priorities, priority) {
		return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
	return priority, nil
}

// ChecklistItem is a sub-unit of task work.
type ChecklistItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is the core domain entity managed by the lifecycle engine.
type Task struct {
	ID            string          `gorm:"primaryKey;type:text" json:"id"`
	Title         string          `gorm:"not null;type:text" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Priority      Priority        `gorm:"not null;type:text;index" json:"priority"`
	Status        Status          `gorm:"not null;type:text;index" json:"status"`
	DueDate       *time.Time      `gorm:"index" json:"dueDate"`
	AssignedTo    []string        `gorm:"serializer:json;type:text" json:"assignedTo"`
	Attachments   []string        `gorm:"serializer:json;type:text" json:"attachments"`
	TodoChecklist []ChecklistItem `gorm:"serializer:json;type:text" json:"todoChecklist"`
	Progress      int             `gorm:"not null" json:"progress"`
	CreatedBy     string          `gorm:"not null;type:text" json:"createdBy"`
	Version       int             `gorm:"not null" json:"version"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// IsAssignee reports whether userID is in the task's assignee list.
func (t *Task) IsAssignee(userID string) bool {
	return userID != "" && slices.Contains(t.AssignedTo, userID)
}

// IsOverdue reports whether the task is past its due date and not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// Normalize replaces nil collections with empty ones so they persist and render as [].
func (t *Task) Normalize() {
	if t.AssignedTo == nil {
		t.AssignedTo = []string{}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	if t.TodoChecklist == nil {
		t.TodoChecklist = []ChecklistItem{}
	}
}

// ApplyChecklist replaces the checklist and re-derives progress and status.
func (t *Task) ApplyChecklist(items []ChecklistItem) {
	t.TodoChecklist = items
	t.Progress = Progress(items)
	t.Status = DeriveStatus(items)
}

// ApplyStatus sets the status. Completing a task marks every checklist item complete.
func (t *Task) ApplyStatus(status Status) {
	t.Status = status
	if status != StatusCompleted {
		return
	}
	for i := range t.TodoChecklist {
		t.TodoChecklist[i].Completed = true
	}
	t.Progress = 100
}
