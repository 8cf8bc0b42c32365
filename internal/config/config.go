package config

import (
	"customer_index/internal/scheduler"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	SourceDir       string
	IndexBackend    string
	IndexPath       string
	HTTPAddr        string
	MetricsAddr     string
	BuildWorkers    int
	RebuildSchedule string
	GCSBucket       string
	GCSPrefix       string
	SigningKey      string
	LogLevel        string
	LogPretty       bool
}

// Load reads configuration from environment variables, after loading a
// .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	backend := getEnv("INDEX_BACKEND", BackendJSON)

	workers, err := getEnvAsInt("BUILD_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	pretty, err := getEnvAsBool("LOG_PRETTY", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourceDir:       getEnv("SOURCE_DIR", "./csvs"),
		IndexBackend:    backend,
		IndexPath:       getEnv("INDEX_PATH", defaultIndexPath(backend)),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		BuildWorkers:    workers,
		RebuildSchedule: getEnv("INDEX_REBUILD_SCHEDULE", ""),
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		GCSPrefix:       getEnv("GCS_PREFIX", "customer-index"),
		SigningKey:      getEnv("SNAPSHOT_SIGNING_KEY", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       pretty,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("SOURCE_DIR is required")
	}

	switch c.IndexBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", BackendJSON, BackendSQLite, c.IndexBackend)
	}

	if c.IndexPath == "" {
		return fmt.Errorf("INDEX_PATH is required")
	}

	if c.BuildWorkers <= 0 {
		return fmt.Errorf("BUILD_WORKERS must be positive, got %d", c.BuildWorkers)
	}

	if c.RebuildSchedule != "" {
		if err := scheduler.ValidateSchedule(c.RebuildSchedule); err != nil {
			return fmt.Errorf("INDEX_REBUILD_SCHEDULE: %w", err)
		}
	}

	return nil
}

func (c *Config) PublishEnabled() bool {
	return c.GCSBucket != ""
}

func defaultIndexPath(backend string) string {
	if backend == BackendSQLite {
		return "./customer_index.db"
	}
	return "./customer_index.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return intVal, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return boolVal, nil
}
