package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"optiondash-desktop/internal/models"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig
	TaskCenter TaskCenterConfig
	Database   DatabaseConfig
	Schedule   ScheduleConfig
	DevServer  DevServerConfig
	LogLevel   string
}

// APIConfig holds the dashboard backend connection details
type APIConfig struct {
	BaseURL string
	Token   string // Optional, falls back to the OS keychain
}

// TaskCenterConfig tunes the background task monitor
type TaskCenterConfig struct {
	PollInterval     time.Duration
	FetchTimeout     time.Duration
	PageSize         int
	WatchedTaskTypes []string
}

// DatabaseConfig holds the local cache database settings
type DatabaseConfig struct {
	URL             string // sqlite://path or postgres://...
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ScheduleConfig holds cron expressions for background refreshes
type ScheduleConfig struct {
	ResyncCron         string
	ProfileRefreshCron string
}

// DevServerConfig holds settings for the local stand-in backend
type DevServerConfig struct {
	Addr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8000"),
			Token:   getEnv("API_TOKEN", ""),
		},
		TaskCenter: TaskCenterConfig{
			PollInterval:     getEnvDuration("POLL_INTERVAL", 2*time.Second),
			FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
			PageSize:         getEnvInt("TASK_PAGE_SIZE", 50),
			WatchedTaskTypes: getEnvList("WATCHED_TASK_TYPES", []string{models.TaskTypeAIReport}),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Schedule: ScheduleConfig{
			ResyncCron:         getEnv("RESYNC_CRON", "*/5 * * * *"),
			ProfileRefreshCron: getEnv("PROFILE_REFRESH_CRON", "*/15 * * * *"),
		},
		DevServer: DevServerConfig{
			Addr: getEnv("DEVSERVER_ADDR", ":8000"),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	// A zero or negative interval would spin the poll loop
	if config.TaskCenter.PollInterval <= 0 {
		config.TaskCenter.PollInterval = 2 * time.Second
	}
	if config.TaskCenter.FetchTimeout <= 0 {
		config.TaskCenter.FetchTimeout = 15 * time.Second
	}
	if config.TaskCenter.PageSize <= 0 {
		config.TaskCenter.PageSize = 50
	}

	return config, nil
}

// Debug reports whether verbose logging was requested
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "DEBUG")
}

func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvInt retrieves an integer from environment variable with default fallback
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration from environment variable with default fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
