package api

import (
	"errors"
	"strings"

	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// ActorContextKey is the key used to store the authenticated actor in the Fiber context.
	ActorContextKey = "actor"
)

// AuthMiddleware creates a middleware that validates bearer tokens and resolves the caller.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return unauthorized(c, "Token has expired")
			}
			return unauthorized(c, "Invalid or expired token")
		}

		// Tokens outlive users; the role is always read fresh.
		u, err := authAdapter.GetUser(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return unauthorized(c, "User no longer exists")
			}
			return writeError(c, err)
		}

		c.Locals(ActorContextKey, u.Actor())
		return c.Next()
	}
}

// AdminOnly rejects callers without the admin role.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFrom(c)
		if !ok {
			return unauthorized(c, "User not authenticated")
		}
		if !actor.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error:   "forbidden",
				Message: "Access denied, admin only",
			})
		}
		return c.Next()
	}
}

func actorFrom(c *fiber.Ctx) (user.Actor, bool) {
	actor, ok := c.Locals(ActorContextKey).(user.Actor)
	return actor, ok
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
