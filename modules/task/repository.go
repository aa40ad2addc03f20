package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"gorm.io/gorm"
)

// Filter narrows the set of tasks a query operates on. Zero fields do not filter.
type Filter struct {
	AssigneeID    string
	Status        domain.Status
	OverdueBefore *time.Time
}

// Store persists tasks.
type Store interface {
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	Find(ctx context.Context, f Filter) ([]*domain.Task, error)
	Count(ctx context.Context, f Filter) (int64, error)
	CountBy(ctx context.Context, f Filter, column string) (map[string]int64, error)
	Recent(ctx context.Context, f Filter, limit int) ([]*domain.Task, error)
	Save(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

// groupColumns are the columns CountBy accepts.
var groupColumns = map[string]bool{"status": true, "priority": true}

// Repository is the gorm-backed Store.
type Repository struct {
	db *gorm.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{})
}

// Create inserts a new task at version 1.
func (r *Repository) Create(ctx context.Context, t *domain.Task) error {
	t.Normalize()
	t.Version = 1
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return storeError("create", err)
	}
	return nil
}

// FindByID finds a task by ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	result := r.db.WithContext(ctx).First(&t, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("find", result.Error)
	}
	t.Normalize()
	return &t, nil
}

// Find returns the matching tasks, newest first.
func (r *Repository) Find(ctx context.Context, f Filter) ([]*domain.Task, error) {
	return r.find(ctx, f, 0)
}

// Recent returns at most limit matching tasks, newest first.
func (r *Repository) Recent(ctx context.Context, f Filter, limit int) ([]*domain.Task, error) {
	return r.find(ctx, f, limit)
}

func (r *Repository) find(ctx context.Context, f Filter, limit int) ([]*domain.Task, error) {
	query := f.apply(r.db.WithContext(ctx).Model(&domain.Task{})).Order("created_at DESC, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var tasks []*domain.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, storeError("find", err)
	}
	for _, t := range tasks {
		t.Normalize()
	}
	return tasks, nil
}

// Count returns the number of matching tasks.
func (r *Repository) Count(ctx context.Context, f Filter) (int64, error) {
	var count int64
	if err := f.apply(r.db.WithContext(ctx).Model(&domain.Task{})).Count(&count).Error; err != nil {
		return 0, storeError("count", err)
	}
	return count, nil
}

// CountBy groups the matching tasks by column and counts each group.
func (r *Repository) CountBy(ctx context.Context, f Filter, column string) (map[string]int64, error) {
	if !groupColumns[column] {
		return nil, fmt.Errorf("%w: cannot group by %q", domain.ErrStore, column)
	}

	var rows []struct {
		Value string
		Count int64
	}
	err := f.apply(r.db.WithContext(ctx).Model(&domain.Task{})).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("aggregate", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}

// Save writes every mutable column of t in a single statement, provided the stored
// row is still at t.Version. On success t.Version is incremented. A stale version
// yields ErrConflict and nothing is written.
func (r *Repository) Save(ctx context.Context, t *domain.Task) error {
	t.Normalize()
	read := t.Version
	t.Version = read + 1
	t.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(t).
		Where("version = ?", read).
		Select("*").
		Omit("id", "created_by", "created_at").
		Updates(t)
	if result.Error != nil {
		t.Version = read
		return storeError("save", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	t.Version = read
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
		return storeError("save", err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

// Delete removes a task permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if result.Error != nil {
		return storeError("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// apply adds the filter conditions to query.
func (f Filter) apply(query *gorm.DB) *gorm.DB {
	if f.AssigneeID != "" {
		query = query.Where(`assigned_to LIKE ? ESCAPE '\'`, assigneePattern(f.AssigneeID))
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.OverdueBefore != nil {
		query = query.Where("due_date IS NOT NULL AND due_date < ? AND status <> ?",
			f.OverdueBefore.UTC(), domain.StatusCompleted)
	}
	return query
}

// assigneePattern matches the JSON-encoded id inside the serialized assigned_to array.
func assigneePattern(id string) string {
	encoded, _ := json.Marshal(id)
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(string(encoded))
	return "%" + escaped + "%"
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStore, op, err)
}
