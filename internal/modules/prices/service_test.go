package prices

import (
	"context"
	"testing"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	testingpkg "github.com/crudeops/wtidesk/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, fixtures ...[]domain.PricePoint) (*Service, *Repository) {
	t.Helper()
	repo := newTestRepository(t, fixtures...)
	cal := contract_calendar.NewBusinessCalendar(contract_calendar.DefaultHolidayTable())
	svc := NewService(repo, cal, zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestService_Latest(t *testing.T) {
	svc, _ := newTestService(t, testingpkg.NewPriceFixtures())

	feeds, err := svc.Latest(context.Background(), 30)
	require.NoError(t, err)

	assert.Len(t, feeds.Feeds[domain.FeedEIA], 3)
	assert.Len(t, feeds.Feeds[domain.FeedFRED], 3)
	assert.Len(t, feeds.Feeds[domain.FeedYahooFutures], 3)
	assert.Empty(t, feeds.Feeds[domain.FeedYahooMidland])
}

func TestService_CalendarMonthAverage(t *testing.T) {
	svc, repo := newTestService(t, testingpkg.NewPriceFixtures())
	ctx := context.Background()

	result, err := svc.CalendarMonthAverage(ctx, "2026-01", "EIA")
	require.NoError(t, err)
	require.NotNil(t, result.CMA)
	assert.InDelta(t, 62.0, *result.CMA, 1e-9)
	assert.Equal(t, 5, result.TradingDays)
	assert.Equal(t, 20, result.ExpectedTradingDays, "22 weekdays less New Year's Day and MLK Day")

	stored, err := repo.GetCalculation(ctx, "2026-01", CalculationCMA, "EIA")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.InDelta(t, 62.0, stored.Value, 1e-9)
	assert.Equal(t, 5, stored.TradingDays)
}

func TestService_CalendarMonthAverage_EmptyMonth(t *testing.T) {
	svc, repo := newTestService(t, testingpkg.NewPriceFixtures())
	ctx := context.Background()

	result, err := svc.CalendarMonthAverage(ctx, "2025-12", "EIA")
	require.NoError(t, err)
	assert.Nil(t, result.CMA)
	assert.Zero(t, result.TradingDays)

	stored, err := repo.GetCalculation(ctx, "2025-12", CalculationCMA, "EIA")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestService_CalendarMonthAverage_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	for _, month := range []string{"2026-13", "Jan 2026", "2026-1-01", ""} {
		_, err := svc.CalendarMonthAverage(context.Background(), month, "EIA")
		assert.ErrorIs(t, err, ErrInvalidMonth, month)
	}

	_, err := svc.CalendarMonthAverage(context.Background(), "2026-01", "")
	assert.ErrorIs(t, err, ErrMissingSource)
}

func TestService_TradePeriodAverage(t *testing.T) {
	svc, _ := newTestService(t, testingpkg.NewPriceFixtures())

	result, err := svc.TradePeriodAverage(context.Background(), "clh26", "EIA")
	require.NoError(t, err)
	assert.Equal(t, "CLH26", result.Contract)
	assert.Equal(t, "2026-01-26", result.PeriodStart)
	assert.Equal(t, "2026-02-25", result.PeriodEnd)
	assert.Equal(t, 8, result.Days)
	require.NotNil(t, result.Average)
	assert.InDelta(t, 62.3, *result.Average, 1e-9)

	_, err = svc.TradePeriodAverage(context.Background(), "CLA26", "EIA")
	assert.ErrorIs(t, err, contract_calendar.ErrInvalidCode)
}

func TestService_AnnualStats(t *testing.T) {
	svc, _ := newTestService(t, testingpkg.NewAnnualFixtures())

	stats, err := svc.AnnualStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, AnnualStat{Year: 2023, AvgPrice: 85, MinPrice: 80, MaxPrice: 90, StdDev: 7.07, TradingDays: 2}, stats[0])

	assert.Equal(t, 2024, stats[1].Year)
	assert.Equal(t, 71.88, stats[1].AvgPrice)
	assert.Equal(t, 70.0, stats[1].MinPrice)
	assert.Equal(t, 74.0, stats[1].MaxPrice)
	assert.Equal(t, 4, stats[1].TradingDays)
	assert.Greater(t, stats[1].StdDev, 0.0)
	require.NotNil(t, stats[1].PercentChange)
	assert.Equal(t, -15.44, *stats[1].PercentChange)

	assert.Equal(t, 66.33, stats[2].AvgPrice)
	require.NotNil(t, stats[2].PercentChange)
	assert.Equal(t, -7.71, *stats[2].PercentChange)
}

func TestService_History(t *testing.T) {
	svc, _ := newTestService(t, testingpkg.NewAnnualFixtures())
	ctx := context.Background()

	series, err := svc.History(ctx, RangeAll, 3)
	require.NoError(t, err)
	require.Len(t, series, 6)

	assert.Equal(t, 66.33, series[5].Price)
	assert.Nil(t, series[0].MA)
	assert.Nil(t, series[1].MA)
	require.NotNil(t, series[2].MA)
	assert.Equal(t, 80.0, *series[2].MA)
	assert.Equal(t, 77.33, *series[3].MA)
	assert.Equal(t, 70.78, *series[5].MA)

	recent, err := svc.History(ctx, RangeOneYear, 0)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = svc.History(ctx, RangeAll, 500)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in    string
		want  Range
		start string
		err   bool
	}{
		{"", RangeAll, "", false},
		{"all", RangeAll, "", false},
		{"YTD", RangeYTD, "2026-01-01", false},
		{"1y", RangeOneYear, "2025-03-02", false},
		{"5y", RangeFiveYear, "2021-03-02", false},
		{"10y", RangeTenYear, "2016-03-02", false},
		{"2y", "", "", true},
	}

	today := contract_calendar.Date(2026, time.March, 2)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rng, err := ParseRange(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rng)
			assert.Equal(t, tt.start, rng.Start(today))
		})
	}
}
