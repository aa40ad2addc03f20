package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/report"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds the HTTP listener settings.
type Config struct {
	Port      int
	ClientURL string
}

// APIModule is the HTTP API module.
type APIModule struct {
	config     Config
	limiter    *ratelimit.Middleware
	app        *fiber.App
	authPort   auth.AuthPort
	taskPort   task.TaskPort
	reportPort report.ReportPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. A nil limiter leaves the auth endpoints unlimited.
func NewModule(config Config, limiter *ratelimit.Middleware) *APIModule {
	if config.Port == 0 {
		config.Port = 3000
	}
	if config.ClientURL == "" {
		config.ClientURL = "*"
	}
	return &APIModule{config: config, limiter: limiter}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "report"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	case "report":
		m.reportPort = report.NewReportAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authPort == nil || m.taskPort == nil || m.reportPort == nil {
		return fmt.Errorf("auth, task and report dependencies not set")
	}

	m.app = newApp(m.config, m.limiter, NewHandlers(m.authPort, m.taskPort, m.reportPort), m.authPort)

	addr := fmt.Sprintf(":%d", m.config.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.config.Port,
		},
	}
}

// newApp builds the Fiber application with its middleware and routes.
func newApp(config Config, limiter *ratelimit.Middleware, handlers *Handlers, authPort auth.AuthPort) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.ClientURL,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	setupRoutes(app.Group("/api"), limiter, handlers, AuthMiddleware(authPort))
	return app
}

// setupRoutes configures all API routes.
func setupRoutes(router fiber.Router, limiter *ratelimit.Middleware, h *Handlers, authenticated fiber.Handler) {
	admin := AdminOnly()

	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", limiter.ByIP("register"), h.Register)
	authRoutes.Post("/login", limiter.ByIP("login"), h.Login)
	authRoutes.Post("/refresh", limiter.ByIP("refresh"), h.Refresh)
	authRoutes.Get("/profile", authenticated, h.Profile)
	authRoutes.Put("/profile", authenticated, h.UpdateProfile)

	users := router.Group("/users", authenticated)
	users.Get("/", admin, h.ListMembers)
	users.Get("/:id", h.GetUser)

	tasks := router.Group("/tasks", authenticated)
	tasks.Get("/dashboard-data", admin, h.GlobalDashboard)
	tasks.Get("/user-dashboard-data", h.UserDashboard)
	tasks.Get("/", h.ListTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Post("/", admin, h.CreateTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Delete("/:id", admin, h.DeleteTask)
	tasks.Put("/:id/status", h.UpdateStatus)
	tasks.Put("/:id/todo", h.UpdateChecklist)

	reports := router.Group("/report", authenticated, admin)
	reports.Get("/export/tasks", h.ExportTasks)
	reports.Get("/export/users", h.ExportUsers)
}
