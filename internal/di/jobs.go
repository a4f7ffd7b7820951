package di

import (
	"fmt"
	"time"

	"github.com/crudeops/wtidesk/internal/config"
	"github.com/crudeops/wtidesk/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	priceSyncTimeout   = 2 * time.Minute
	backupTimeout      = 10 * time.Minute
	walCheckpointEvery = "0 0 */6 * * *"
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched

	jobs := &JobInstances{
		PriceSync:     scheduler.NewPriceSyncJob(container.PriceSyncService, cfg.PriceSyncDays, priceSyncTimeout, log),
		WALCheckpoint: scheduler.NewWALCheckpointJob(log, container.PricesDB),
	}

	// An empty schedule leaves syncing to POST /api/prices/sync
	if cfg.PriceSyncSchedule != "" {
		if err := sched.AddJob(cfg.PriceSyncSchedule, jobs.PriceSync); err != nil {
			return nil, fmt.Errorf("failed to register price sync job: %w", err)
		}
	}
	if err := sched.AddJob(walCheckpointEvery, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	if container.BackupService != nil {
		jobs.Backup = scheduler.NewBackupJob(container.BackupService, cfg.BackupRetentionDays, backupTimeout, log)
		if err := sched.AddJob(cfg.BackupSchedule, jobs.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	return jobs, nil
}
