package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/rs/zerolog"
)

// PriceSyncer runs one fetch-and-store pass over the upstream feeds
type PriceSyncer interface {
	Run(ctx context.Context, days int) (prices.SyncResult, error)
}

// PriceSyncJob pulls the recent price window from every feed into the store
type PriceSyncJob struct {
	syncer  PriceSyncer
	days    int
	timeout time.Duration
	log     zerolog.Logger
}

// NewPriceSyncJob creates a sync job covering the last days days
func NewPriceSyncJob(syncer PriceSyncer, days int, timeout time.Duration, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		syncer:  syncer,
		days:    days,
		timeout: timeout,
		log:     log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run executes the sync with the job timeout
func (j *PriceSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.syncer.Run(ctx, j.days)
	if err != nil {
		return fmt.Errorf("price sync failed: %w", err)
	}

	event := j.log.Info()
	if len(result.Errors) > 0 {
		event = j.log.Warn().Interface("errors", result.Errors)
	}
	event.
		Str("run_id", result.RunID).
		Int("saved", result.Saved).
		Interface("counts", result.Counts).
		Msg("Price sync completed")

	return nil
}
