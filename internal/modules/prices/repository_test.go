package prices

import (
	"context"
	"testing"

	"github.com/crudeops/wtidesk/internal/domain"
	testingpkg "github.com/crudeops/wtidesk/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, fixtures ...[]domain.PricePoint) *Repository {
	t.Helper()
	db := testingpkg.NewTestDB(t, "prices")
	repo := NewRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
	for _, points := range fixtures {
		_, err := repo.Upsert(context.Background(), points)
		require.NoError(t, err)
	}
	return repo
}

func TestRepository_Upsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	saved, err := repo.Upsert(ctx, testingpkg.NewPriceFixtures())
	require.NoError(t, err)
	assert.Equal(t, 24, saved, "null observations are skipped")

	// Re-sending a day replaces its value
	saved, err = repo.Upsert(ctx, []domain.PricePoint{
		{Date: "2026-02-04", Value: domain.Float(64.00), Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	values, err := repo.Values(ctx, "EIA", "2026-02-04", "2026-02-04")
	require.NoError(t, err)
	assert.Equal(t, []float64{64.00}, values)

	points, err := repo.Latest(ctx, "2026-02-04")
	require.NoError(t, err)
	assert.Len(t, points, 3)
	for _, p := range points {
		assert.Equal(t, domain.DefaultUnit, p.Unit)
	}
}

func TestRepository_Latest(t *testing.T) {
	repo := newTestRepository(t, testingpkg.NewPriceFixtures())

	points, err := repo.Latest(context.Background(), "2026-02-01")
	require.NoError(t, err)
	require.Len(t, points, 9)

	assert.Equal(t, "2026-02-04", points[0].Date)
	assert.Equal(t, domain.SourceEIA, points[0].Source)
	assert.Equal(t, "2026-02-02", points[8].Date)
	for _, p := range points {
		require.NotNil(t, p.Value)
	}
}

func TestRepository_Values(t *testing.T) {
	repo := newTestRepository(t, testingpkg.NewPriceFixtures())

	values, err := repo.Values(context.Background(), "EIA", "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, []float64{61.10, 61.50, 62.00, 62.40, 63.00}, values)

	values, err = repo.Values(context.Background(), "NYMEX", "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestRepository_DailySeries(t *testing.T) {
	repo := newTestRepository(t, testingpkg.NewAnnualFixtures())

	series, err := repo.DailySeries(context.Background(), "", "2026-01-01")
	require.NoError(t, err)
	require.Len(t, series, 6)

	byDate := make(map[string]DailyPrice)
	for _, p := range series {
		byDate[p.Date] = p
	}
	assert.Equal(t, 72.00, byDate["2024-06-03"].Price, "NYMEX preferred over EIA")
	assert.Equal(t, "NYMEX", byDate["2024-06-03"].Source)
	assert.Equal(t, "EIA", byDate["2025-02-03"].Source, "EIA preferred over unranked sources")
	assert.Equal(t, "2023-03-01", series[0].Date)

	series, err = repo.DailySeries(context.Background(), "2024-06-01", "2024-12-31")
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestRepository_YearValues(t *testing.T) {
	repo := newTestRepository(t, testingpkg.NewAnnualFixtures())

	years, byYear, err := repo.YearValues(context.Background(), AnnualSources, "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2024, 2025}, years)
	assert.ElementsMatch(t, []float64{70, 72, 71.5, 74}, byYear[2024])
	assert.Equal(t, []float64{66.333}, byYear[2025], "FRED is not an annual source")

	years, _, err = repo.YearValues(context.Background(), AnnualSources, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, []int{2023}, years)

	years, _, err = repo.YearValues(context.Background(), nil, "2026-01-01")
	require.NoError(t, err)
	assert.Empty(t, years)
}

func TestRepository_Calculations(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	calc, err := repo.GetCalculation(ctx, "2026-01", CalculationCMA, "EIA")
	require.NoError(t, err)
	assert.Nil(t, calc)

	require.NoError(t, repo.SaveCalculation(ctx, Calculation{Month: "2026-01", Type: CalculationCMA, Value: 62, Source: "EIA", TradingDays: 5}))
	require.NoError(t, repo.SaveCalculation(ctx, Calculation{Month: "2026-01", Type: CalculationCMA, Value: 62.5, Source: "EIA", TradingDays: 20}))

	calc, err = repo.GetCalculation(ctx, "2026-01", CalculationCMA, "EIA")
	require.NoError(t, err)
	require.NotNil(t, calc)
	assert.Equal(t, 62.5, calc.Value)
	assert.Equal(t, 20, calc.TradingDays)
	assert.NotEmpty(t, calc.UpdatedAt)
}

func TestRepository_SyncRuns(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run, err := repo.LastSyncRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, run)

	require.NoError(t, repo.RecordSyncRun(ctx, SyncRun{ID: "a", StartedAt: "2026-03-01T21:30:00Z", FinishedAt: "2026-03-01T21:30:02Z", Saved: 12}))
	require.NoError(t, repo.RecordSyncRun(ctx, SyncRun{ID: "b", StartedAt: "2026-03-02T21:30:00Z", FinishedAt: "2026-03-02T21:30:01Z", Error: "every price source failed"}))

	run, err = repo.LastSyncRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "b", run.ID)
	assert.Equal(t, "every price source failed", run.Error)

	assert.Error(t, repo.RecordSyncRun(ctx, SyncRun{ID: "a", StartedAt: "x", FinishedAt: "y"}), "duplicate id")
}
