package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAdmin    = user.Actor{ID: "admin-1", Name: "Ada", Email: "ada@example.com", Role: user.RoleAdmin}
	testMember   = user.Actor{ID: "member-1", Name: "Max", Email: "max@example.com", Role: user.RoleMember}
	testOutsider = user.Actor{ID: "member-2", Name: "Olga", Email: "olga@example.com", Role: user.RoleMember}
)

// fakeChecker reports every ID outside known as missing.
type fakeChecker struct {
	known map[string]bool
	err   error
}

func (f *fakeChecker) FindMissing(_ context.Context, ids []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var missing []string
	for _, id := range ids {
		if !f.known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// setupTestService creates a service over a fresh repository with a clock that
// advances one minute per call, so creation times are distinct.
func setupTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()

	repo := setupTestRepository(t)
	svc := NewService(repo)

	var mu sync.Mutex
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, repo
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func createTask(t *testing.T, svc *Service, title string, assignees []string, checklist []domain.ChecklistItem) *domain.Task {
	t.Helper()
	if checklist == nil {
		checklist = []domain.ChecklistItem{}
	}
	task, err := svc.Create(context.Background(), CreateTaskRequest{
		Actor:         testAdmin,
		Title:         title,
		AssignedTo:    raw(t, assignees),
		TodoChecklist: raw(t, checklist),
	})
	require.NoError(t, err)
	return task
}

func TestService_CreateDerivesProgressAndKeepsPending(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "Launch", []string{testMember.ID}, []domain.ChecklistItem{
		{Text: "a", Completed: false},
		{Text: "b", Completed: true},
	})
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, testAdmin.ID, task.CreatedBy)

	updated, err := svc.UpdateChecklist(ctx, testMember, task.ID, raw(t, []domain.ChecklistItem{
		{Text: "a", Completed: true},
		{Text: "b", Completed: true},
	}))
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateTaskRequest
	}{
		{
			name: "missing checklist",
			req:  CreateTaskRequest{Actor: testAdmin, Title: "x"},
		},
		{
			name: "checklist is an object",
			req:  CreateTaskRequest{Actor: testAdmin, Title: "x", TodoChecklist: json.RawMessage(`{"text":"a"}`)},
		},
		{
			name: "assignedTo is a string",
			req: CreateTaskRequest{Actor: testAdmin, Title: "x", TodoChecklist: json.RawMessage(`[]`),
				AssignedTo: json.RawMessage(`"member-1"`)},
		},
		{
			name: "missing title",
			req:  CreateTaskRequest{Actor: testAdmin, TodoChecklist: json.RawMessage(`[]`)},
		},
		{
			name: "unknown priority",
			req:  CreateTaskRequest{Actor: testAdmin, Title: "x", Priority: "Urgent", TodoChecklist: json.RawMessage(`[]`)},
		},
		{
			name: "bad due date",
			req:  CreateTaskRequest{Actor: testAdmin, Title: "x", DueDate: "tomorrow", TodoChecklist: json.RawMessage(`[]`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_CreateRequiresAdmin(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Create(context.Background(), CreateTaskRequest{
		Actor: testMember, Title: "x", TodoChecklist: json.RawMessage(`[]`),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_CreateChecksAssignees(t *testing.T) {
	svc, _ := setupTestService(t)
	svc.SetAssigneeChecker(&fakeChecker{known: map[string]bool{testMember.ID: true}})
	ctx := context.Background()

	task := createTask(t, svc, "dedupe", []string{testMember.ID, testMember.ID}, nil)
	assert.Equal(t, []string{testMember.ID}, task.AssignedTo)

	_, err := svc.Create(ctx, CreateTaskRequest{
		Actor: testAdmin, Title: "x", TodoChecklist: json.RawMessage(`[]`),
		AssignedTo: raw(t, []string{testMember.ID, "ghost"}),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "ghost")

	svc.SetAssigneeChecker(&fakeChecker{err: errors.New("auth unavailable")})
	_, err = svc.Create(ctx, CreateTaskRequest{
		Actor: testAdmin, Title: "x", TodoChecklist: json.RawMessage(`[]`),
		AssignedTo: raw(t, []string{testMember.ID}),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestService_CreateParsesDueDate(t *testing.T) {
	svc, _ := setupTestService(t)

	task, err := svc.Create(context.Background(), CreateTaskRequest{
		Actor: testAdmin, Title: "due", DueDate: "2025-07-01", TodoChecklist: json.RawMessage(`[]`),
	})
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *task.DueDate)
}

func TestService_ListScopesMembersToAssignedTasks(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	mine := createTask(t, svc, "mine", []string{testMember.ID}, nil)
	createTask(t, svc, "shared", []string{testOutsider.ID, testMember.ID}, []domain.ChecklistItem{{Text: "x", Completed: true}})
	createTask(t, svc, "theirs", []string{testOutsider.ID}, nil)
	createTask(t, svc, "nobody", nil, nil)

	result, err := svc.List(ctx, testMember, "")
	require.NoError(t, err)
	require.Len(t, result.Tasks, 2)
	for _, task := range result.Tasks {
		assert.True(t, task.IsAssignee(testMember.ID), "task %q not assigned to member", task.Title)
	}
	assert.Equal(t, domain.StatusSummary{All: 2, PendingTasks: 1, CompletedTasks: 1}, result.Summary)

	result, err = svc.List(ctx, testAdmin, "")
	require.NoError(t, err)
	assert.Len(t, result.Tasks, 4)
	assert.Equal(t, int64(4), result.Summary.All)

	_, err = svc.UpdateStatus(ctx, testMember, mine.ID, string(domain.StatusInProgress))
	require.NoError(t, err)

	result, err = svc.List(ctx, testMember, string(domain.StatusInProgress))
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, mine.ID, result.Tasks[0].ID)
	assert.Equal(t, domain.StatusSummary{All: 1, InProgressTasks: 1}, result.Summary)
}

func TestService_ListRejectsUnknownStatus(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.List(context.Background(), testAdmin, "Done")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_GetIsNotScopedByAssignment(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "visible", []string{testMember.ID}, nil)

	got, err := svc.Get(ctx, testOutsider, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = svc.Get(ctx, testOutsider, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateMergesProvidedFields(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "Original", []string{testMember.ID}, nil)

	empty := ""
	description := "new description"
	high := string(domain.PriorityHigh)
	updated, err := svc.Update(ctx, UpdateTaskRequest{
		Actor:       testOutsider,
		TaskID:      task.ID,
		Title:       &empty,
		Description: &description,
		Priority:    &high,
		AssignedTo:  json.RawMessage(`null`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Title, "empty title keeps the old value")
	assert.Equal(t, "new description", updated.Description)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	assert.Equal(t, []string{testMember.ID}, updated.AssignedTo, "null assignedTo keeps the old value")
	assert.Equal(t, 2, updated.Version)
}

func TestService_UpdateRejectsNonArrayAssignedTo(t *testing.T) {
	svc, _ := setupTestService(t)

	task := createTask(t, svc, "x", nil, nil)
	_, err := svc.Update(context.Background(), UpdateTaskRequest{
		Actor: testMember, TaskID: task.ID, AssignedTo: json.RawMessage(`"member-1"`),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_UpdateChecklistRederivesStatus(t *testing.T) {
	svc, _ := setupTestService(t)

	task := createTask(t, svc, "x", nil, []domain.ChecklistItem{{Text: "a"}})
	updated, err := svc.Update(context.Background(), UpdateTaskRequest{
		Actor:         testAdmin,
		TaskID:        task.ID,
		TodoChecklist: raw(t, []domain.ChecklistItem{{Text: "a", Completed: true}, {Text: "b"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
}

func TestService_UpdateMissingTask(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Update(context.Background(), UpdateTaskRequest{Actor: testAdmin, TaskID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "doomed", []string{testMember.ID}, nil)

	assert.ErrorIs(t, svc.Delete(ctx, testMember, task.ID), domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, testAdmin, "missing"), domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, testAdmin, task.ID))
	_, err := svc.Get(ctx, testAdmin, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateStatusCompletedForcesChecklist(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "finish", []string{testMember.ID}, []domain.ChecklistItem{
		{Text: "a"}, {Text: "b", Completed: true}, {Text: "c"},
	})

	updated, err := svc.UpdateStatus(ctx, testMember, task.ID, string(domain.StatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	for _, item := range updated.TodoChecklist {
		assert.True(t, item.Completed, "item %q not completed", item.Text)
	}

	reopened, err := svc.UpdateStatus(ctx, testAdmin, task.ID, string(domain.StatusPending))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reopened.Status)
	assert.Equal(t, 3, domain.CompletedCount(reopened.TodoChecklist), "leaving Completed keeps the checklist")
}

func TestService_UpdateStatusValidation(t *testing.T) {
	svc, _ := setupTestService(t)

	task := createTask(t, svc, "x", []string{testMember.ID}, nil)
	_, err := svc.UpdateStatus(context.Background(), testMember, task.ID, "Archived")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_AssignmentGatedOperations(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "gated", []string{testMember.ID}, []domain.ChecklistItem{{Text: "a"}})
	checklist := raw(t, []domain.ChecklistItem{{Text: "a", Completed: true}})

	_, err := svc.UpdateStatus(ctx, testOutsider, task.ID, string(domain.StatusInProgress))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.UpdateChecklist(ctx, testOutsider, task.ID, checklist)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Admins succeed regardless of assignment
	_, err = svc.UpdateStatus(ctx, testAdmin, task.ID, string(domain.StatusInProgress))
	assert.NoError(t, err)
	_, err = svc.UpdateChecklist(ctx, testAdmin, task.ID, checklist)
	assert.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, testAdmin, "missing", string(domain.StatusPending))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateChecklistProgressProperty(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "property", []string{testMember.ID}, nil)

	for n := 0; n <= 7; n++ {
		for k := 0; k <= n; k++ {
			items := make([]domain.ChecklistItem, n)
			for i := range items {
				items[i] = domain.ChecklistItem{Text: "item", Completed: i < k}
			}

			updated, err := svc.UpdateChecklist(ctx, testMember, task.ID, raw(t, items))
			require.NoError(t, err)

			wantProgress := 0
			if n > 0 {
				wantProgress = (200*k + n) / (2 * n)
			}
			assert.Equal(t, wantProgress, updated.Progress, "k=%d n=%d", k, n)
			assert.Equal(t, n > 0 && k == n, updated.Status == domain.StatusCompleted, "k=%d n=%d", k, n)
			if n == 0 {
				assert.Equal(t, domain.StatusPending, updated.Status)
			}
		}
	}
}

func TestService_UpdateChecklistRequiresArray(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "x", []string{testMember.ID}, nil)

	_, err := svc.UpdateChecklist(ctx, testMember, task.ID, json.RawMessage(`"done"`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.UpdateChecklist(ctx, testMember, task.ID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// barrierStore holds every FindByID caller until all expected readers have read,
// forcing concurrent read-modify-write cycles to start from the same base.
type barrierStore struct {
	Store
	reads sync.WaitGroup
}

func (b *barrierStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	t, err := b.Store.FindByID(ctx, id)
	b.reads.Done()
	b.reads.Wait()
	return t, err
}

func TestService_ConcurrentChecklistUpdatesKeepOneWrite(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	task := createTask(t, svc, "race", []string{testMember.ID}, []domain.ChecklistItem{{Text: "a"}, {Text: "b"}})

	barrier := &barrierStore{Store: repo}
	barrier.reads.Add(2)
	svc.store = barrier

	updates := []json.RawMessage{
		raw(t, []domain.ChecklistItem{{Text: "a", Completed: true}, {Text: "b"}}),
		raw(t, []domain.ChecklistItem{{Text: "a"}, {Text: "b", Completed: true}}),
	}

	errs := make([]error, len(updates))
	var wg sync.WaitGroup
	for i, update := range updates {
		wg.Add(1)
		go func(i int, update json.RawMessage) {
			defer wg.Done()
			_, errs[i] = svc.UpdateChecklist(ctx, testMember, task.ID, update)
		}(i, update)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one write survives")
	assert.Equal(t, 1, conflicted, "the stale write is rejected, not merged")

	stored, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, domain.CompletedCount(stored.TodoChecklist), "only the winning checklist is stored")
	assert.Equal(t, 50, stored.Progress)
	assert.Equal(t, 2, stored.Version)
}
