package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("WTIDESK_DATA_DIR", dir)
	for _, key := range []string{"PORT", "LOG_LEVEL", "LOG_PRETTY", "DEV_MODE", "HOLIDAYS_FILE",
		"PRICE_SYNC_SCHEDULE", "PRICE_SYNC_DAYS", "HTTP_TIMEOUT_SECONDS", "CRON_SECRET",
		"BACKUP_BUCKET", "BACKUP_SCHEDULE", "BACKUP_RETENTION_DAYS", "BACKUP_REGION"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "0 30 21 * * MON-FRI", cfg.PriceSyncSchedule)
	assert.Equal(t, 7, cfg.PriceSyncDays)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join(dir, "prices.db"), cfg.DatabasePath())
	assert.False(t, cfg.BackupEnabled())
	assert.Equal(t, "auto", cfg.BackupRegion)
	assert.Equal(t, "0 0 3 * * *", cfg.BackupSchedule)
	assert.Equal(t, 30, cfg.BackupRetentionDays)
}

func TestLoad_Overrides(t *testing.T) {
	holidays := filepath.Join(t.TempDir(), "holidays.yaml")
	require.NoError(t, os.WriteFile(holidays, []byte("years: []\n"), 0o644))

	t.Setenv("WTIDESK_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_PRETTY", "1")
	t.Setenv("HOLIDAYS_FILE", holidays)
	t.Setenv("PRICE_SYNC_DAYS", "30")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("PRICE_SYNC_SCHEDULE", "@hourly")
	t.Setenv("BACKUP_BUCKET", "desk-backups")
	t.Setenv("BACKUP_PATH_STYLE", "true")
	t.Setenv("BACKUP_SCHEDULE", "@daily")
	t.Setenv("BACKUP_RETENTION_DAYS", "14")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, holidays, cfg.HolidaysFile)
	assert.Equal(t, 30, cfg.PriceSyncDays)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "s3cret", cfg.CronSecret)
	assert.True(t, cfg.BackupEnabled())
	assert.True(t, cfg.BackupPathStyle)
	assert.Equal(t, 14, cfg.BackupRetentionDays)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Port: 8080, PriceSyncDays: 7, HTTPTimeout: time.Second, PriceSyncSchedule: "0 30 21 * * MON-FRI"}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"empty schedule disables sync", func(c *Config) { c.PriceSyncSchedule = "" }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, false},
		{"zero days", func(c *Config) { c.PriceSyncDays = 0 }, false},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, false},
		{"five field cron", func(c *Config) { c.PriceSyncSchedule = "30 21 * * MON-FRI" }, false},
		{"bad backup schedule", func(c *Config) { c.BackupBucket = "b"; c.BackupSchedule = "daily" }, false},
		{"negative retention", func(c *Config) { c.BackupBucket = "b"; c.BackupSchedule = "@daily"; c.BackupRetentionDays = -1 }, false},
		{"backup schedule ignored when disabled", func(c *Config) { c.BackupSchedule = "daily" }, true},
		{"missing holidays file", func(c *Config) { c.HolidaysFile = "/nonexistent/holidays.yaml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
