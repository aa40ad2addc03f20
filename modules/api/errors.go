package api

import (
	"errors"
	"log"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string // empty means the error text is shown
}

// errorMappings are matched in order with errors.Is.
var errorMappings = []errorMapping{
	{domain.ErrValidation, fiber.StatusBadRequest, "bad_request", ""},
	{auth.ErrInvalidEmail, fiber.StatusBadRequest, "bad_request", "Invalid email format"},
	{auth.ErrNameRequired, fiber.StatusBadRequest, "bad_request", "Name is required"},
	{auth.ErrWeakPassword, fiber.StatusBadRequest, "bad_request", "Password must be at least 8 characters"},
	{auth.ErrPasswordTooLong, fiber.StatusBadRequest, "bad_request", "Password must be at most 72 characters"},
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password"},
	{auth.ErrExpiredToken, fiber.StatusUnauthorized, "unauthorized", "Token has expired"},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired token"},
	{domain.ErrForbidden, fiber.StatusForbidden, "forbidden", "Access denied"},
	{domain.ErrNotFound, fiber.StatusNotFound, "not_found", "Task not found"},
	{auth.ErrUserNotFound, fiber.StatusNotFound, "not_found", "User not found"},
	{domain.ErrConflict, fiber.StatusConflict, "conflict", "Task was modified concurrently, retry the request"},
	{auth.ErrUserExists, fiber.StatusConflict, "conflict", "User with this email already exists"},
}

// writeError maps err onto a status and body. Unknown errors are logged and
// answered with a generic 500.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		return c.Status(m.status).JSON(ErrorResponse{Error: m.code, Message: message})
	}

	log.Printf("[api] Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "bad_request", Message: message})
}

// customErrorHandler handles errors returned from handlers and Fiber itself.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error:   "server_error",
			Message: fe.Message,
		})
	}
	return writeError(c, err)
}
