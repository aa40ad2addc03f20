package api

import (
	"fmt"

	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/report"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth    auth.AuthPort
	tasks   task.TaskPort
	reports report.ReportPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort, reportPort report.ReportPort) *Handlers {
	return &Handlers{
		auth:    authPort,
		tasks:   taskPort,
		reports: reportPort,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	resp, err := h.auth.Register(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	resp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	resp, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return unauthorized(c, "Invalid or expired refresh token")
	}
	return c.JSON(resp)
}

// Profile returns the caller's own profile.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	u, err := h.auth.GetUser(c.UserContext(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(auth.ToUserResponse(u))
}

// UpdateProfile changes the caller's name, email or password and reissues tokens.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	var req ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.auth.UpdateProfile(c.UserContext(), &auth.UpdateProfileRequest{
		UserID:   actor.ID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// ListMembers lists the member users with their task counts.
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	members, err := h.auth.ListUsers(c.UserContext(), user.RoleMember)
	if err != nil {
		return writeError(c, err)
	}
	counts, err := h.tasks.AssigneeSummary(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}

	resp := make([]MemberResponse, 0, len(members))
	for i := range members {
		n := counts[members[i].ID]
		resp = append(resp, MemberResponse{
			UserResponse:    auth.ToUserResponse(&members[i]),
			PendingTasks:    n.Pending,
			InProgressTasks: n.InProgress,
			CompletedTasks:  n.Completed,
		})
	}
	return c.JSON(resp)
}

// GetUser returns a single user by id.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	u, err := h.auth.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(auth.ToUserResponse(u))
}

// ListTasks lists the tasks visible to the caller, optionally filtered by status.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	resp, err := h.tasks.ListTasks(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetTask returns a task by id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	resp, err := h.tasks.GetTask(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// CreateTask creates a task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Actor = actor

	resp, err := h.tasks.CreateTask(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(TaskMessageResponse{
		Message: "Task created successfully",
		Task:    *resp,
	})
}

// UpdateTask applies a partial update to a task.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	var req task.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Actor = actor
	req.TaskID = c.Params("id")

	resp, err := h.tasks.UpdateTask(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(TaskMessageResponse{
		Message: "Task updated successfully",
		Task:    *resp,
	})
}

// DeleteTask removes a task.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	if err := h.tasks.DeleteTask(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Task deleted successfully"})
}

// UpdateStatus changes a task's status.
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.tasks.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(TaskMessageResponse{
		Message: "Task status updated",
		Task:    *resp,
	})
}

// UpdateChecklist replaces a task's checklist.
func (h *Handlers) UpdateChecklist(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	var req ChecklistRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.tasks.UpdateChecklist(c.UserContext(), actor, c.Params("id"), req.TodoChecklist)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(TaskMessageResponse{
		Message: "Task checklist updated",
		Task:    *resp,
	})
}

// GlobalDashboard returns statistics over every task.
func (h *Handlers) GlobalDashboard(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	resp, err := h.tasks.GlobalDashboard(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// UserDashboard returns statistics over the caller's assigned tasks.
func (h *Handlers) UserDashboard(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	resp, err := h.tasks.UserDashboard(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// ExportTasks downloads the tasks workbook.
func (h *Handlers) ExportTasks(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	file, err := h.reports.ExportTasks(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, file)
}

// ExportUsers downloads the users workbook.
func (h *Handlers) ExportUsers(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	file, err := h.reports.ExportUsers(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, file)
}

func sendFile(c *fiber.Ctx, file *report.File) error {
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Send(file.Data)
}
