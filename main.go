package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/cache"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/report"
	"github.com/example/task-manager/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("=== Task Manager ===")

	cfg := config.Load()

	logLevel := mono.LogLevelInfo
	if strings.EqualFold(cfg.LogLevel, "error") {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Shared by the cache and the rate limiter; nil disables both.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	cacheModule := cache.NewModule(
		cache.New(redisClient, cfg.Redis.CachePrefix, cfg.Redis.CacheTTL),
		task.DashboardKeyPattern,
	)
	rateLimitModule := ratelimit.NewModule(redisClient, ratelimit.FromConfig(cfg.RateLimit))

	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(cfg.Database, cfg.Auth))
	app.Register(cacheModule)
	app.Register(rateLimitModule)
	app.Register(task.NewModule(cfg.Database, cacheModule.Cache())) // Depends on auth
	app.Register(report.NewModule())                                // Depends on task, auth
	app.Register(api.NewModule(api.Config{
		Port:      cfg.HTTPPort,
		ClientURL: cfg.ClientURL,
	}, rateLimitModule.Middleware())) // Depends on auth, task, report

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	operations := map[string]gfshutdown.Operation{
		"mono-app": func(ctx context.Context) error {
			log.Println("Graceful shutdown initiated...")
			return app.Stop(ctx)
		},
	}
	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, operations)

	exitCode := <-wait
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Failed to close Redis client: %v", err)
		}
	}
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("  Database: %s", cfg.Database.Driver)
	if cfg.Redis.Enabled() {
		log.Printf("  Redis:    %s (dashboard cache, auth rate limiting)", cfg.Redis.Addr)
	} else {
		log.Println("  Redis:    disabled (set REDIS_ADDR to enable caching and rate limiting)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.HTTPPort)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/register              - Register a new user")
	log.Println("  POST   /api/auth/login                 - Login and get tokens")
	log.Println("  POST   /api/auth/refresh               - Refresh access token")
	log.Println("  GET    /health                         - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/auth/profile               - Current user profile")
	log.Println("  PUT    /api/auth/profile               - Update name, email or password")
	log.Println("  GET    /api/users                      - Members with task counts (admin)")
	log.Println("  GET    /api/users/:id                  - Get a user")
	log.Println("  GET    /api/tasks                      - List visible tasks (?status=)")
	log.Println("  GET    /api/tasks/dashboard-data       - Global dashboard (admin)")
	log.Println("  GET    /api/tasks/user-dashboard-data  - Personal dashboard")
	log.Println("  GET    /api/tasks/:id                  - Get a task")
	log.Println("  POST   /api/tasks                      - Create a task (admin)")
	log.Println("  PUT    /api/tasks/:id                  - Update a task")
	log.Println("  DELETE /api/tasks/:id                  - Delete a task (admin)")
	log.Println("  PUT    /api/tasks/:id/status           - Change status")
	log.Println("  PUT    /api/tasks/:id/todo             - Replace checklist")
	log.Println("  GET    /api/report/export/tasks        - Tasks workbook (admin)")
	log.Println("  GET    /api/report/export/users        - Users workbook (admin)")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
