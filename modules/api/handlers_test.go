package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/report"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTaskPort records the last request and answers with resp or err.
type mockTaskPort struct {
	task.TaskPort
	err        error
	resp       task.TaskResponse
	counts     map[string]domain.AssigneeCounts
	lastActor  user.Actor
	lastID     string
	lastStatus string
	created    *task.CreateTaskRequest
	updated    *task.UpdateTaskRequest
	checklist  json.RawMessage
}

func (m *mockTaskPort) ListTasks(_ context.Context, actor user.Actor, status string) (*task.ListTasksResponse, error) {
	m.lastActor, m.lastStatus = actor, status
	if m.err != nil {
		return nil, m.err
	}
	return &task.ListTasksResponse{Tasks: []task.TaskResponse{m.resp}}, nil
}

func (m *mockTaskPort) GetTask(_ context.Context, actor user.Actor, id string) (*task.TaskResponse, error) {
	m.lastActor, m.lastID = actor, id
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func (m *mockTaskPort) CreateTask(_ context.Context, req *task.CreateTaskRequest) (*task.TaskResponse, error) {
	m.created = req
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func (m *mockTaskPort) UpdateTask(_ context.Context, req *task.UpdateTaskRequest) (*task.TaskResponse, error) {
	m.updated = req
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func (m *mockTaskPort) DeleteTask(_ context.Context, actor user.Actor, id string) error {
	m.lastActor, m.lastID = actor, id
	return m.err
}

func (m *mockTaskPort) UpdateStatus(_ context.Context, actor user.Actor, id, status string) (*task.TaskResponse, error) {
	m.lastActor, m.lastID, m.lastStatus = actor, id, status
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func (m *mockTaskPort) UpdateChecklist(_ context.Context, actor user.Actor, id string, checklist json.RawMessage) (*task.TaskResponse, error) {
	m.lastActor, m.lastID, m.checklist = actor, id, checklist
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func (m *mockTaskPort) GlobalDashboard(_ context.Context, actor user.Actor) (*domain.Dashboard, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Dashboard{Statistics: domain.Statistics{TotalTasks: 7}}, nil
}

func (m *mockTaskPort) UserDashboard(_ context.Context, actor user.Actor) (*domain.Dashboard, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Dashboard{Statistics: domain.Statistics{TotalTasks: 2}}, nil
}

func (m *mockTaskPort) AssigneeSummary(_ context.Context, actor user.Actor) (map[string]domain.AssigneeCounts, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return m.counts, nil
}

type mockReportPort struct {
	err error
}

func (m *mockReportPort) ExportTasks(_ context.Context, _ user.Actor) (*report.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &report.File{Filename: report.TasksFilename, ContentType: report.ContentTypeXLSX, Data: []byte("xlsx")}, nil
}

func (m *mockReportPort) ExportUsers(_ context.Context, _ user.Actor) (*report.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &report.File{Filename: report.UsersFilename, ContentType: report.ContentTypeXLSX, Data: []byte("xlsx")}, nil
}

type testServer struct {
	app     *fiber.App
	auth    *mockAuthPort
	tasks   *mockTaskPort
	reports *mockReportPort
}

func newTestServer() *testServer {
	s := &testServer{
		auth:    tokenAuth(adminUser, memberUser),
		tasks:   &mockTaskPort{resp: task.TaskResponse{ID: "task-1", Title: "Write docs", Status: "Pending"}},
		reports: &mockReportPort{},
	}
	s.auth.listUsersFunc = func(context.Context, user.Role) ([]user.User, error) {
		return nil, nil
	}
	s.app = newApp(Config{Port: 3000, ClientURL: "*"}, nil, NewHandlers(s.auth, s.tasks, s.reports), s.auth)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	resp, body := s.do(t, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"healthy"`)
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{"GET", "/api/users", ""},
		{"GET", "/api/tasks/dashboard-data", ""},
		{"POST", "/api/tasks", `{"title":"x"}`},
		{"DELETE", "/api/tasks/task-1", ""},
		{"GET", "/api/report/export/tasks", ""},
		{"GET", "/api/report/export/users", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			s := newTestServer()

			resp, _ := s.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp, body := s.do(t, tt.method, tt.path, "member-1-token", tt.body)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Contains(t, body, `"forbidden"`)

			resp, _ = s.do(t, tt.method, tt.path, "admin-1-token", tt.body)
			assert.Less(t, resp.StatusCode, 300)
		})
	}
}

func TestCreateTaskUsesAuthenticatedActor(t *testing.T) {
	s := newTestServer()
	body := `{"title":"Write docs","dueDate":"2025-07-01","assignedTo":["member-1"],"actor":{"id":"spoofed","role":"member"}}`

	resp, out := s.do(t, "POST", "/api/tasks", "admin-1-token", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, out, `"Task created successfully"`)
	assert.Contains(t, out, `"task-1"`)

	require.NotNil(t, s.tasks.created)
	assert.Equal(t, adminUser.Actor(), s.tasks.created.Actor)
	assert.Equal(t, "Write docs", s.tasks.created.Title)
	assert.JSONEq(t, `["member-1"]`, string(s.tasks.created.AssignedTo))
}

func TestUpdateTaskTakesIDFromPath(t *testing.T) {
	s := newTestServer()

	resp, out := s.do(t, "PUT", "/api/tasks/task-9", "member-1-token", `{"task_id":"other","title":"Renamed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"Task updated successfully"`)

	require.NotNil(t, s.tasks.updated)
	assert.Equal(t, "task-9", s.tasks.updated.TaskID)
	assert.Equal(t, memberUser.Actor(), s.tasks.updated.Actor)
	require.NotNil(t, s.tasks.updated.Title)
	assert.Equal(t, "Renamed", *s.tasks.updated.Title)
}

func TestStatusAndChecklistRoutes(t *testing.T) {
	s := newTestServer()

	resp, out := s.do(t, "PUT", "/api/tasks/task-1/status", "member-1-token", `{"status":"Completed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"Task status updated"`)
	assert.Equal(t, "task-1", s.tasks.lastID)
	assert.Equal(t, "Completed", s.tasks.lastStatus)

	resp, out = s.do(t, "PUT", "/api/tasks/task-1/todo", "member-1-token", `{"todoChecklist":[{"text":"a","completed":true}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"Task checklist updated"`)
	assert.JSONEq(t, `[{"text":"a","completed":true}]`, string(s.tasks.checklist))
}

func TestListAndGetTasks(t *testing.T) {
	s := newTestServer()

	resp, out := s.do(t, "GET", "/api/tasks?status=Pending", "member-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"tasks"`)
	assert.Equal(t, "Pending", s.tasks.lastStatus)
	assert.Equal(t, memberUser.Actor(), s.tasks.lastActor)

	resp, _ = s.do(t, "GET", "/api/tasks/task-1", "member-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "task-1", s.tasks.lastID)
}

func TestDashboards(t *testing.T) {
	s := newTestServer()

	resp, out := s.do(t, "GET", "/api/tasks/dashboard-data", "admin-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"totalTasks":7`)

	// The static path must not be captured by /:id.
	resp, out = s.do(t, "GET", "/api/tasks/user-dashboard-data", "member-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"totalTasks":2`)
	assert.Empty(t, s.tasks.lastID)
}

func TestTaskErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "validation shows detail",
			err:     fmt.Errorf("%w: invalid status %q", domain.ErrValidation, "Done"),
			status:  http.StatusBadRequest,
			message: `validation failed: invalid status \"Done\"`,
		},
		{name: "forbidden", err: domain.ErrForbidden, status: http.StatusForbidden, message: "Access denied"},
		{name: "not found", err: domain.ErrNotFound, status: http.StatusNotFound, message: "Task not found"},
		{name: "conflict", err: domain.ErrConflict, status: http.StatusConflict, message: "modified concurrently"},
		{
			name:    "store failure is hidden",
			err:     fmt.Errorf("%w: disk full", domain.ErrStore),
			status:  http.StatusInternalServerError,
			message: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.tasks.err = tt.err

			resp, out := s.do(t, "PUT", "/api/tasks/task-1/status", "member-1-token", `{"status":"Done"}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, out, tt.message)
			assert.NotContains(t, out, "disk full")
		})
	}
}

func TestRegister(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		s := newTestServer()
		resp, out := s.do(t, "POST", "/api/auth/register", "", `{"email":"a@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, out, "Email and password are required")
	})

	t.Run("invalid body", func(t *testing.T) {
		s := newTestServer()
		resp, _ := s.do(t, "POST", "/api/auth/register", "", `{"email":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	errCases := []struct {
		err    error
		status int
	}{
		{auth.ErrUserExists, http.StatusConflict},
		{auth.ErrWeakPassword, http.StatusBadRequest},
		{auth.ErrInvalidEmail, http.StatusBadRequest},
		{auth.ErrNameRequired, http.StatusBadRequest},
	}
	for _, tc := range errCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			s := newTestServer()
			s.auth.registerFunc = func(context.Context, *auth.RegisterRequest) (*auth.AuthResponse, error) {
				return nil, tc.err
			}
			resp, _ := s.do(t, "POST", "/api/auth/register", "", `{"name":"A","email":"a@example.com","password":"secret"}`)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	t.Run("created", func(t *testing.T) {
		s := newTestServer()
		var got *auth.RegisterRequest
		s.auth.registerFunc = func(_ context.Context, req *auth.RegisterRequest) (*auth.AuthResponse, error) {
			got = req
			return &auth.AuthResponse{
				User:        auth.UserResponse{ID: "u-1", Email: req.Email, Role: user.RoleAdmin},
				AccessToken: "access",
				TokenType:   "Bearer",
			}, nil
		}
		resp, out := s.do(t, "POST", "/api/auth/register", "",
			`{"name":"Ada","email":"ada@example.com","password":"password123","adminInviteToken":"let-me-in"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, out, `"access_token":"access"`)
		require.NotNil(t, got)
		assert.Equal(t, "let-me-in", got.AdminInviteToken)
	})
}

func TestListMembersIncludesCounts(t *testing.T) {
	s := newTestServer()
	var role user.Role
	s.auth.listUsersFunc = func(_ context.Context, r user.Role) ([]user.User, error) {
		role = r
		return []user.User{memberUser}, nil
	}
	s.tasks.counts = map[string]domain.AssigneeCounts{
		"member-1": {All: 3, Pending: 1, InProgress: 0, Completed: 2},
	}

	resp, out := s.do(t, "GET", "/api/users", "admin-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user.RoleMember, role)

	var members []MemberResponse
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 1)
	assert.Equal(t, "member-1", members[0].ID)
	assert.Equal(t, int64(1), members[0].PendingTasks)
	assert.Equal(t, int64(0), members[0].InProgressTasks)
	assert.Equal(t, int64(2), members[0].CompletedTasks)
}

func TestGetUser(t *testing.T) {
	s := newTestServer()

	resp, out := s.do(t, "GET", "/api/users/admin-1", "member-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out, `"ada@example.com"`)
	assert.NotContains(t, out, "PasswordHash")

	resp, out = s.do(t, "GET", "/api/users/nobody", "member-1-token", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, out, "User not found")
}

func TestExportSetsDownloadHeaders(t *testing.T) {
	s := newTestServer()

	resp, out := s.do(t, "GET", "/api/report/export/tasks", "admin-1-token", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.ContentTypeXLSX, resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="tasks_report.xlsx"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "xlsx", out)

	s.reports.err = errors.New("excel exploded")
	resp, out = s.do(t, "GET", "/api/report/export/users", "admin-1-token", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, out, "exploded")
}
