package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubSyncer struct {
	days     int
	deadline bool
	err      error
}

func (s *stubSyncer) Run(ctx context.Context, days int) (prices.SyncResult, error) {
	s.days = days
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return prices.SyncResult{}, s.err
	}
	return prices.SyncResult{
		RunID:  "run-1",
		Saved:  3,
		Counts: map[string]int{"eia": 3},
		Errors: map[string]string{"fred": "FRED API key not configured"},
	}, nil
}

func TestPriceSyncJob_Run(t *testing.T) {
	syncer := &stubSyncer{}
	job := NewPriceSyncJob(syncer, 7, time.Minute, zerolog.Nop())

	assert.NoError(t, job.Run())
	assert.Equal(t, 7, syncer.days)
	assert.True(t, syncer.deadline)
	assert.Equal(t, "price_sync", job.Name())
}

func TestPriceSyncJob_RunError(t *testing.T) {
	syncer := &stubSyncer{err: errors.New("days must be positive")}
	job := NewPriceSyncJob(syncer, 0, time.Minute, zerolog.Nop())

	err := job.Run()
	assert.ErrorContains(t, err, "price sync failed")
}
