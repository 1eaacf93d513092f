package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultQuestions are the prompts used when QUESTIONS is not set
var DefaultQuestions = []string{
	"What one word would you use to describe our team's journey during the last PI?",
	"What's one small habit or practice that helped you stay productive during the last PI?",
	"If you could have a superpower to improve our next PI, what would it be?",
}

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Poll    PollConfig
	Admin   AdminConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// PollConfig holds poll-related configuration
type PollConfig struct {
	ID        string
	Questions []string
	TopN      int
}

// AdminConfig holds admin access configuration
type AdminConfig struct {
	Password     string
	PasswordHash string // bcrypt; takes precedence over Password
	TokenSecret  string
	SessionTTL   time.Duration
}

// StoreConfig holds storage backend configuration
type StoreConfig struct {
	Driver        string // "memory", "sqlite", "postgres" or "redis"
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file, using environment", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Poll: PollConfig{
			ID:        getEnv("POLL_ID", "default"),
			Questions: getEnvList("QUESTIONS", "|", DefaultQuestions),
			TopN:      getEnvInt("TOP_N", 5),
		},
		Admin: AdminConfig{
			Password:     getEnv("ADMIN_PASSWORD", "admin123"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			TokenSecret:  getEnv("TOKEN_SECRET", "dev-token-secret"),
			SessionTTL:   time.Duration(getEnvInt("SESSION_TTL_MINUTES", 720)) * time.Minute,
		},
		Store: StoreConfig{
			Driver:        getEnv("STORE_DRIVER", "memory"),
			DatabaseURL:   getEnv("DATABASE_URL", ""),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if len(c.Poll.Questions) == 0 {
		return errors.New("at least one question is required")
	}
	if c.Poll.ID == "" {
		return errors.New("POLL_ID must not be empty")
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL required for %s store", c.Store.Driver)
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("REDIS_ADDR required for redis store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.IsProduction() {
		if c.Admin.PasswordHash == "" && c.Admin.Password == "admin123" {
			return errors.New("default admin password not allowed in production")
		}
		if c.Admin.TokenSecret == "dev-token-secret" {
			return errors.New("TOKEN_SECRET must be set in production")
		}
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits an environment variable on sep, dropping blank items
func getEnvList(key, sep string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return append([]string(nil), defaultValue...)
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
