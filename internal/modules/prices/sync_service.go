package prices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SyncResult reports what a sync run fetched and stored
type SyncResult struct {
	RunID     string            `json:"run_id"`
	Saved     int               `json:"saved"`
	Counts    map[string]int    `json:"counts"`
	Errors    map[string]string `json:"errors,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// EventEmitter publishes sync notifications
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// SyncService pulls recent observations from every upstream feed
type SyncService struct {
	repo     *Repository
	fetchers []Fetcher
	emitter  EventEmitter
	log      zerolog.Logger
	now      func() time.Time
}

// NewSyncService creates a sync service over the given fetchers
func NewSyncService(repo *Repository, fetchers []Fetcher, log zerolog.Logger) *SyncService {
	return &SyncService{
		repo:     repo,
		fetchers: fetchers,
		log:      log.With().Str("service", "price_sync").Logger(),
		now:      time.Now,
	}
}

type fetchOutcome struct {
	name   string
	points []domain.PricePoint
	err    error
}

// SetEventEmitter enables sync notifications
func (s *SyncService) SetEventEmitter(e EventEmitter) {
	s.emitter = e
}

// fetchAll queries every fetcher concurrently. A failing fetcher contributes
// no points; only cancellation of ctx fails the whole fetch.
func (s *SyncService) fetchAll(ctx context.Context, days int) ([]fetchOutcome, error) {
	outcomes := make([]fetchOutcome, len(s.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range s.fetchers {
		i, f := i, f
		g.Go(func() error {
			points, err := f.Fetch(gctx, days)
			outcomes[i] = fetchOutcome{name: f.Name(), points: points, err: err}
			if err != nil {
				s.log.Warn().Err(err).Str("source", f.Name()).Msg("Price fetch failed")
				outcomes[i].points = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("price fetch cancelled: %w", err)
	}
	return outcomes, nil
}

// Live fetches recent observations without storing them
func (s *SyncService) Live(ctx context.Context, days int) (domain.PriceFeeds, error) {
	outcomes, err := s.fetchAll(ctx, days)
	if err != nil {
		return domain.PriceFeeds{}, err
	}

	var points []domain.PricePoint
	for _, o := range outcomes {
		points = append(points, o.points...)
	}
	return domain.NewPriceFeeds(points, s.now().UTC()), nil
}

// Run fetches the last days days from every feed, stores the non-null
// observations and records the run
func (s *SyncService) Run(ctx context.Context, days int) (SyncResult, error) {
	if days <= 0 {
		return SyncResult{}, fmt.Errorf("sync window must be positive, got %d", days)
	}

	started := s.now().UTC()
	result := SyncResult{
		RunID:     uuid.New().String(),
		Counts:    make(map[string]int),
		FetchedAt: started,
	}
	log := s.log.With().Str("run_id", result.RunID).Logger()

	outcomes, err := s.fetchAll(ctx, days)
	if err != nil {
		s.record(ctx, result, started, err)
		s.emit(result, err)
		return SyncResult{}, err
	}

	var points []domain.PricePoint
	for _, o := range outcomes {
		result.Counts[o.name] += len(o.points)
		if o.err != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[o.name] = o.err.Error()
		}
		points = append(points, o.points...)
	}

	saved, err := s.repo.Upsert(ctx, points)
	if err != nil {
		s.record(ctx, result, started, err)
		s.emit(result, err)
		return SyncResult{}, fmt.Errorf("failed to store prices: %w", err)
	}
	result.Saved = saved

	var runErr error
	if len(result.Errors) == len(s.fetchers) && len(s.fetchers) > 0 {
		runErr = errors.New("every price source failed")
	}
	s.record(ctx, result, started, runErr)
	s.emit(result, runErr)

	log.Info().
		Int("saved", saved).
		Interface("counts", result.Counts).
		Int("failed_sources", len(result.Errors)).
		Msg("Price sync finished")
	return result, nil
}

func (s *SyncService) emit(result SyncResult, runErr error) {
	if s.emitter == nil {
		return
	}
	if runErr != nil {
		s.emitter.EmitTyped("prices", &events.PriceSyncFailedData{RunID: result.RunID, Errors: result.Errors})
		return
	}
	s.emitter.EmitTyped("prices", &events.PricesSyncedData{
		RunID:  result.RunID,
		Saved:  result.Saved,
		Counts: result.Counts,
		Errors: result.Errors,
	})
}

func (s *SyncService) record(ctx context.Context, result SyncResult, started time.Time, runErr error) {
	run := SyncRun{
		ID:         result.RunID,
		StartedAt:  started.Format(time.RFC3339Nano),
		FinishedAt: s.now().UTC().Format(time.RFC3339Nano),
		Saved:      result.Saved,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	// Cancelled runs are still recorded
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.RecordSyncRun(recordCtx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record sync run")
	}
}
