// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for the price database (always absolute)
	Port              int
	LogLevel          string
	LogPretty         bool
	DevMode           bool
	HolidaysFile      string // Optional YAML holiday extension file
	EIAAPIKey         string
	FREDAPIKey        string
	CronSecret        string // Bearer token required by POST /api/prices/sync
	PriceSyncSchedule string // Six-field cron expression (seconds first)
	PriceSyncDays     int
	HTTPTimeout       time.Duration

	// Backups to S3-compatible storage, disabled when BackupBucket is empty
	BackupBucket        string
	BackupEndpoint      string
	BackupRegion        string
	BackupAccessKey     string
	BackupSecretKey     string
	BackupPathStyle     bool
	BackupSchedule      string
	BackupRetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("WTIDESK_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		HolidaysFile:      getEnv("HOLIDAYS_FILE", ""),
		EIAAPIKey:         getEnv("EIA_API_KEY", ""),
		FREDAPIKey:        getEnv("FRED_API_KEY", ""),
		CronSecret:        getEnv("CRON_SECRET", ""),
		PriceSyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "0 30 21 * * MON-FRI"),
		PriceSyncDays:     getEnvAsInt("PRICE_SYNC_DAYS", 7),
		HTTPTimeout:       time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,

		BackupBucket:        getEnv("BACKUP_BUCKET", ""),
		BackupEndpoint:      getEnv("BACKUP_ENDPOINT", ""),
		BackupRegion:        getEnv("BACKUP_REGION", "auto"),
		BackupAccessKey:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		BackupSecretKey:     getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		BackupPathStyle:     getEnvAsBool("BACKUP_PATH_STYLE", false),
		BackupSchedule:      getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the location of the price database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "prices.db")
}

// BackupEnabled reports whether object storage backups are configured
func (c *Config) BackupEnabled() bool {
	return c.BackupBucket != ""
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.PriceSyncDays <= 0 {
		return fmt.Errorf("PRICE_SYNC_DAYS must be positive, got %d", c.PriceSyncDays)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if c.PriceSyncSchedule != "" {
		if _, err := parser.Parse(c.PriceSyncSchedule); err != nil {
			return fmt.Errorf("invalid PRICE_SYNC_SCHEDULE: %w", err)
		}
	}
	if c.BackupEnabled() {
		if _, err := parser.Parse(c.BackupSchedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE: %w", err)
		}
		if c.BackupRetentionDays < 0 {
			return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
		}
	}
	if c.HolidaysFile != "" {
		if _, err := os.Stat(c.HolidaysFile); err != nil {
			return fmt.Errorf("holidays file not readable: %w", err)
		}
	}

	// API keys and the cron secret are optional; the matching features are disabled without them
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
