package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service is the task lifecycle and aggregation engine.
type Service struct {
	store    Store
	checker  AssigneeChecker
	cache    DashboardCache
	eventBus mono.EventBus
	sfGroup  singleflight.Group // Collapses concurrent dashboard misses
	now      func() time.Time
}

// NewService creates a new Service over store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetAssigneeChecker enables validation of assignee IDs on create and update.
func (s *Service) SetAssigneeChecker(checker AssigneeChecker) {
	s.checker = checker
}

// SetDashboardCache enables caching of computed dashboards.
func (s *Service) SetDashboardCache(cache DashboardCache) {
	s.cache = cache
}

// SetEventBus enables publishing of task events.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.eventBus = bus
}

// ListResult is the outcome of List.
type ListResult struct {
	Tasks   []*domain.Task
	Summary domain.StatusSummary
}

// List returns the tasks visible to actor, optionally restricted to one status,
// together with a status summary over the same set.
func (s *Service) List(ctx context.Context, actor user.Actor, statusFilter string) (*ListResult, error) {
	if err := domain.Authorize(actor, domain.OpList, nil); err != nil {
		return nil, err
	}

	f := visibleTo(actor)
	if statusFilter != "" {
		status, err := domain.ParseStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		f.Status = status
	}

	tasks, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountBy(ctx, f, "status")
	if err != nil {
		return nil, err
	}

	summary := domain.StatusSummary{
		PendingTasks:    counts[string(domain.StatusPending)],
		InProgressTasks: counts[string(domain.StatusInProgress)],
		CompletedTasks:  counts[string(domain.StatusCompleted)],
	}
	for _, n := range counts {
		summary.All += n
	}
	return &ListResult{Tasks: tasks, Summary: summary}, nil
}

// Get returns a task by ID. Visibility is not scoped by assignment.
func (s *Service) Get(ctx context.Context, actor user.Actor, id string) (*domain.Task, error) {
	if err := domain.Authorize(actor, domain.OpGet, nil); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Create validates and stores a new task owned by the actor.
func (s *Service) Create(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	actor := req.Actor
	if err := domain.Authorize(actor, domain.OpCreate, nil); err != nil {
		return nil, err
	}

	checklist, present, err := decodeArray[domain.ChecklistItem](req.TodoChecklist, "todoChecklist")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, domain.Validationf("todoChecklist must be an array")
	}
	assignees, _, err := decodeArray[string](req.AssignedTo, "assignedTo")
	if err != nil {
		return nil, err
	}
	attachments, _, err := decodeArray[string](req.Attachments, "attachments")
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.Validationf("title is required")
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	assignees, err = s.checkAssignees(ctx, assignees)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		Status:      domain.StatusPending,
		DueDate:     dueDate,
		AssignedTo:  assignees,
		Attachments: attachments,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.TodoChecklist = checklist
	t.Progress = domain.Progress(checklist)
	if domain.DeriveStatus(checklist) == domain.StatusCompleted {
		t.Status = domain.StatusCompleted
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	if s.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:     t.ID,
			Title:      t.Title,
			AssignedTo: t.AssignedTo,
			CreatedBy:  t.CreatedBy,
			CreatedAt:  t.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
			// Event publishing is best-effort; log but don't fail the operation
			log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
		}
	}
	return t, nil
}

// Update applies a partial update. Absent, null and empty values keep the stored
// value; a provided checklist re-derives progress and status.
func (s *Service) Update(ctx context.Context, req UpdateTaskRequest) (*domain.Task, error) {
	if err := domain.Authorize(req.Actor, domain.OpUpdate, nil); err != nil {
		return nil, err
	}

	t, err := s.store.FindByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	if provided(req.Title) {
		t.Title = *req.Title
	}
	if provided(req.Description) {
		t.Description = *req.Description
	}
	if provided(req.Priority) {
		priority, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		t.Priority = priority
	}
	if provided(req.DueDate) {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		t.DueDate = dueDate
	}

	assignees, present, err := decodeArray[string](req.AssignedTo, "assignedTo")
	if err != nil {
		return nil, err
	}
	if present {
		if t.AssignedTo, err = s.checkAssignees(ctx, assignees); err != nil {
			return nil, err
		}
	}

	attachments, present, err := decodeArray[string](req.Attachments, "attachments")
	if err != nil {
		return nil, err
	}
	if present {
		t.Attachments = attachments
	}

	checklist, present, err := decodeArray[domain.ChecklistItem](req.TodoChecklist, "todoChecklist")
	if err != nil {
		return nil, err
	}
	if present {
		t.ApplyChecklist(checklist)
	}

	if err := s.store.Save(ctx, t); err != nil {
		return nil, err
	}
	s.publishUpdated(t, events.ChangeFields, req.Actor)
	return t, nil
}

// Delete permanently removes a task.
func (s *Service) Delete(ctx context.Context, actor user.Actor, id string) error {
	if err := domain.Authorize(actor, domain.OpDelete, nil); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if s.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    id,
			DeletedBy: actor.ID,
			DeletedAt: s.now(),
		}
		if err := events.TaskDeletedV1.Publish(s.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", id, err)
		}
	}
	return nil
}

// UpdateStatus sets a task's status. Completed marks the whole checklist complete.
func (s *Service) UpdateStatus(ctx context.Context, actor user.Actor, id, status string) (*domain.Task, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor, domain.OpUpdateStatus, t); err != nil {
		return nil, err
	}

	newStatus, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	t.ApplyStatus(newStatus)

	if err := s.store.Save(ctx, t); err != nil {
		return nil, err
	}
	s.publishUpdated(t, events.ChangeStatus, actor)
	return t, nil
}

// UpdateChecklist replaces a task's checklist and re-derives progress and status.
func (s *Service) UpdateChecklist(ctx context.Context, actor user.Actor, id string, raw json.RawMessage) (*domain.Task, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor, domain.OpUpdateChecklist, t); err != nil {
		return nil, err
	}

	checklist, present, err := decodeArray[domain.ChecklistItem](raw, "todoChecklist")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, domain.Validationf("todoChecklist must be an array")
	}
	t.ApplyChecklist(checklist)

	if err := s.store.Save(ctx, t); err != nil {
		return nil, err
	}
	s.publishUpdated(t, events.ChangeChecklist, actor)
	return t, nil
}

func (s *Service) publishUpdated(t *domain.Task, kind events.ChangeKind, actor user.Actor) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskUpdatedEvent{
		TaskID:    t.ID,
		Kind:      kind,
		Status:    string(t.Status),
		Progress:  t.Progress,
		Version:   t.Version,
		UpdatedBy: actor.ID,
		UpdatedAt: t.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", t.ID, err)
	}
}

// checkAssignees drops duplicate IDs, keeping first occurrences, and rejects
// IDs unknown to the assignee checker.
func (s *Service) checkAssignees(ctx context.Context, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, domain.Validationf("assignedTo contains an empty user id")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	if s.checker == nil || len(unique) == 0 {
		return unique, nil
	}
	missing, err := s.checker.FindMissing(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to validate assignees: %w", err)
	}
	if len(missing) > 0 {
		return nil, domain.Validationf("unknown assignees: %s", strings.Join(missing, ", "))
	}
	return unique, nil
}

// visibleTo returns the filter selecting the tasks an actor may list.
func visibleTo(actor user.Actor) Filter {
	if actor.IsAdmin() {
		return Filter{}
	}
	return Filter{AssigneeID: actor.ID}
}

// provided reports whether an optional string field carries a non-empty value.
func provided(s *string) bool {
	return s != nil && *s != ""
}

// decodeArray decodes raw as a JSON array. present is false when raw is absent or null.
func decodeArray[T any](raw json.RawMessage, field string) (items []T, present bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}
	if trimmed[0] != '[' {
		return nil, true, domain.Validationf("%s must be an array", field)
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, true, domain.Validationf("%s is malformed: %v", field, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

// dueDateLayouts are the accepted due date formats.
var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, domain.Validationf("dueDate %q is not a valid date", s)
}
