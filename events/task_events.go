package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is created.
type TaskCreatedEvent struct {
	TaskID     string    `json:"task_id"`
	Title      string    `json:"title"`
	AssignedTo []string  `json:"assigned_to"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// ChangeKind identifies which lifecycle operation modified a task.
type ChangeKind string

const (
	ChangeFields    ChangeKind = "fields"
	ChangeStatus    ChangeKind = "status"
	ChangeChecklist ChangeKind = "checklist"
)

// TaskUpdatedEvent is emitted after any successful task mutation.
type TaskUpdatedEvent struct {
	TaskID    string     `json:"task_id"`
	Kind      ChangeKind `json:"kind"`
	Status    string     `json:"status"`
	Progress  int        `json:"progress"`
	Version   int        `json:"version"`
	UpdatedBy string     `json:"updated_by"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TaskUpdatedV1 is the typed event definition for task updates.
// Subject: events.task.v1.task-updated
var TaskUpdatedV1 = helper.EventDefinition[TaskUpdatedEvent](
	"task", "TaskUpdated", "v1",
)

// TaskDeletedEvent is emitted when a task is deleted.
type TaskDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	DeletedBy string    `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
