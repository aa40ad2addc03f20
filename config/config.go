// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration of every module.
type Config struct {
	HTTPPort        int
	ClientURL       string
	ShutdownTimeout time.Duration
	LogLevel        string

	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig selects the gorm driver and its DSN.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// AuthConfig holds token and registration settings.
type AuthConfig struct {
	SecretKey        string
	Issuer           string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	AdminInviteToken string
}

// RedisConfig holds Redis settings. An empty Addr disables the cache and rate limiting.
type RedisConfig struct {
	Addr        string
	CachePrefix string
	CacheTTL    time.Duration
}

// RateLimitConfig configures the limiter in front of the public auth endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 3000),
		ClientURL:       getEnv("CLIENT_URL", "*"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "task_manager.db?_busy_timeout=5000&_journal_mode=WAL"),
		},
		Auth: AuthConfig{
			SecretKey:        getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Issuer:           getEnv("JWT_ISSUER", "task-manager"),
			AccessTokenTTL:   getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL:  getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			AdminInviteToken: os.Getenv("ADMIN_INVITE_TOKEN"),
		},
		Redis: RedisConfig{
			Addr:        os.Getenv("REDIS_ADDR"),
			CachePrefix: getEnv("CACHE_PREFIX", "taskmanager:"),
			CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
