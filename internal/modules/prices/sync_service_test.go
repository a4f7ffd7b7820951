package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/internal/events"
	testingpkg "github.com/crudeops/wtidesk/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eiaPoints() []domain.PricePoint {
	return []domain.PricePoint{
		{Date: "2026-02-27", Value: domain.Float(70.25), Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot},
		{Date: "2026-02-26", Value: domain.Float(69.90), Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot},
		{Date: "2026-02-25", Value: nil, Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot},
	}
}

func newTestSyncService(t *testing.T, fetchers ...Fetcher) (*SyncService, *Repository) {
	t.Helper()
	repo := newTestRepository(t)
	svc := NewSyncService(repo, fetchers, zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2026, time.March, 2, 21, 30, 0, 0, time.UTC) }
	return svc, repo
}

func TestSyncService_Run(t *testing.T) {
	eia := testingpkg.NewMockFetcher("eia")
	eia.SetPoints(eiaPoints())
	fred := testingpkg.NewMockFetcher("fred")
	fred.SetError(errors.New("upstream 503"))

	svc, repo := newTestSyncService(t, eia, fred)
	ctx := context.Background()

	result, err := svc.Run(ctx, 7)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, map[string]int{"eia": 3, "fred": 0}, result.Counts)
	assert.Contains(t, result.Errors, "fred")
	assert.Equal(t, []int{7}, eia.Calls())
	assert.Equal(t, []int{7}, fred.Calls())

	values, err := repo.Values(ctx, "EIA", "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, []float64{69.90, 70.25}, values)

	run, err := repo.LastSyncRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, 2, run.Saved)
	assert.Empty(t, run.Error)
}

func TestSyncService_RunAllSourcesFail(t *testing.T) {
	eia := testingpkg.NewMockFetcher("eia")
	eia.SetError(errors.New("bad key"))

	svc, repo := newTestSyncService(t, eia)

	result, err := svc.Run(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, result.Saved)

	run, err := repo.LastSyncRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "every price source failed", run.Error)
}

func TestSyncService_RunEmitsEvents(t *testing.T) {
	bus := events.NewBus()
	var got []*events.Event
	bus.Subscribe(func(e *events.Event) { got = append(got, e) })

	eia := testingpkg.NewMockFetcher("eia")
	eia.SetPoints(eiaPoints())
	svc, _ := newTestSyncService(t, eia)
	svc.SetEventEmitter(events.NewManager(bus, zerolog.Nop()))

	result, err := svc.Run(context.Background(), 7)
	require.NoError(t, err)

	eia.SetError(errors.New("bad key"))
	_, err = svc.Run(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, events.PricesSynced, got[0].Type)
	assert.Equal(t, result.RunID, got[0].Data["run_id"])
	assert.Equal(t, events.PriceSyncFailed, got[1].Type)
	assert.Equal(t, "prices", got[1].Module)
}

func TestSyncService_RunCancelled(t *testing.T) {
	eia := testingpkg.NewMockFetcher("eia")
	eia.SetPoints(eiaPoints())
	svc, repo := newTestSyncService(t, eia)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)

	run, err := repo.LastSyncRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Contains(t, run.Error, "cancel")
}

func TestSyncService_RunInvalidWindow(t *testing.T) {
	svc, _ := newTestSyncService(t)

	_, err := svc.Run(context.Background(), 0)
	assert.Error(t, err)
}

func TestSyncService_Live(t *testing.T) {
	eia := testingpkg.NewMockFetcher("eia")
	eia.SetPoints(eiaPoints())
	yahoo := testingpkg.NewMockFetcher("yahoo_midland")
	yahoo.SetPoints([]domain.PricePoint{
		{Date: "2026-02-27", Value: domain.Float(0.8125), Source: domain.SourceYahoo, PriceType: domain.PriceTypeMidlandDiff},
	})

	svc, repo := newTestSyncService(t, eia, yahoo)

	feeds, err := svc.Live(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, feeds.Feeds[domain.FeedEIA], 3, "live data keeps empty days")
	assert.Len(t, feeds.Feeds[domain.FeedYahooMidland], 1)

	stored, err := repo.Latest(context.Background(), "2000-01-01")
	require.NoError(t, err)
	assert.Empty(t, stored, "live fetches are not stored")
}
