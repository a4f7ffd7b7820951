package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	"github.com/crudeops/wtidesk/pkg/formulas"
	"github.com/rs/zerolog"
)

// Range selects how much history to return
type Range string

const (
	RangeYTD      Range = "ytd"
	RangeOneYear  Range = "1y"
	RangeFiveYear Range = "5y"
	RangeTenYear  Range = "10y"
	RangeAll      Range = "all"
)

// ParseRange validates a range name; empty means all
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(s)); r {
	case "":
		return RangeAll, nil
	case RangeYTD, RangeOneYear, RangeFiveYear, RangeTenYear, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
}

// Start returns the first date included by the range, or "" for no bound
func (r Range) Start(today time.Time) string {
	switch r {
	case RangeYTD:
		return contract_calendar.Date(today.Year(), time.January, 1).Format(contract_calendar.DateLayout)
	case RangeOneYear:
		return today.AddDate(-1, 0, 0).Format(contract_calendar.DateLayout)
	case RangeFiveYear:
		return today.AddDate(-5, 0, 0).Format(contract_calendar.DateLayout)
	case RangeTenYear:
		return today.AddDate(-10, 0, 0).Format(contract_calendar.DateLayout)
	}
	return ""
}

const maxMovingAverageWindow = 250

// Service derives desk analytics from stored prices
type Service struct {
	repo     *Repository
	calendar *contract_calendar.BusinessCalendar
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a price service. The business calendar supplies
// expected trading-day counts and contract trade periods.
func NewService(repo *Repository, calendar *contract_calendar.BusinessCalendar, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		calendar: calendar,
		log:      log.With().Str("service", "prices").Logger(),
		now:      time.Now,
	}
}

func (s *Service) today() time.Time {
	return contract_calendar.Civil(s.now())
}

// Latest returns stored observations from the last days days, grouped by feed
func (s *Service) Latest(ctx context.Context, days int) (domain.PriceFeeds, error) {
	since := s.today().AddDate(0, 0, -days).Format(contract_calendar.DateLayout)
	points, err := s.repo.Latest(ctx, since)
	if err != nil {
		return domain.PriceFeeds{}, err
	}
	return domain.NewPriceFeeds(points, s.now().UTC()), nil
}

// CalendarMonthAverage averages a source over a calendar month ("YYYY-MM")
// and stores the result when the month has at least one value
func (s *Service) CalendarMonthAverage(ctx context.Context, month, source string) (CMAResult, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return CMAResult{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	if source == "" {
		return CMAResult{}, ErrMissingSource
	}
	last := first.AddDate(0, 1, -1)

	values, err := s.repo.Values(ctx, source,
		first.Format(contract_calendar.DateLayout), last.Format(contract_calendar.DateLayout))
	if err != nil {
		return CMAResult{}, err
	}

	result := CMAResult{
		Month:               month,
		Source:              source,
		TradingDays:         len(values),
		ExpectedTradingDays: s.businessDays(first, last),
	}
	if len(values) == 0 {
		return result, nil
	}

	avg := formulas.Mean(values)
	result.CMA = &avg

	if err := s.repo.SaveCalculation(ctx, Calculation{
		Month:       month,
		Type:        CalculationCMA,
		Value:       avg,
		Source:      source,
		TradingDays: len(values),
	}); err != nil {
		return CMAResult{}, err
	}

	if result.TradingDays < result.ExpectedTradingDays {
		s.log.Info().
			Str("month", month).
			Str("source", source).
			Int("trading_days", result.TradingDays).
			Int("expected", result.ExpectedTradingDays).
			Msg("CMA computed from an incomplete month")
	}
	return result, nil
}

// TradePeriodAverage averages a source over the trade period of a contract code
func (s *Service) TradePeriodAverage(ctx context.Context, code, source string) (TradePeriodAverage, error) {
	if source == "" {
		return TradePeriodAverage{}, ErrMissingSource
	}
	year, month, err := contract_calendar.ParseContractCode(code)
	if err != nil {
		return TradePeriodAverage{}, err
	}
	cal := s.calendar
	if cal == nil {
		cal = contract_calendar.NewBusinessCalendar(nil)
	}
	contract, err := contract_calendar.NewCalculator(cal).ComputeContract(year, month)
	if err != nil {
		return TradePeriodAverage{}, err
	}

	result := TradePeriodAverage{
		Contract:    contract.Code(),
		Source:      source,
		PeriodStart: contract.TradePeriodStart.Format(contract_calendar.DateLayout),
		PeriodEnd:   contract.TradePeriodEnd.Format(contract_calendar.DateLayout),
	}

	values, err := s.repo.Values(ctx, source, result.PeriodStart, result.PeriodEnd)
	if err != nil {
		return TradePeriodAverage{}, err
	}
	result.Days = len(values)
	if len(values) > 0 {
		avg := formulas.Round(formulas.Mean(values), 4)
		result.Average = &avg
	}
	return result, nil
}

// AnnualStats summarizes each calendar year of settlements dated before today.
// The year-over-year change compares unrounded averages.
func (s *Service) AnnualStats(ctx context.Context) ([]AnnualStat, error) {
	before := s.today().Format(contract_calendar.DateLayout)
	years, byYear, err := s.repo.YearValues(ctx, AnnualSources, before)
	if err != nil {
		return nil, err
	}

	stats := make([]AnnualStat, 0, len(years))
	var prevAvg float64
	for i, year := range years {
		values := byYear[year]
		avg := formulas.Mean(values)
		lo, hi := formulas.MinMax(values)

		stat := AnnualStat{
			Year:        year,
			AvgPrice:    formulas.Round(avg, 2),
			MinPrice:    formulas.Round(lo, 2),
			MaxPrice:    formulas.Round(hi, 2),
			StdDev:      formulas.Round(formulas.StdDev(values), 2),
			TradingDays: len(values),
		}
		if i > 0 {
			if pct, ok := formulas.PercentChange(prevAvg, avg); ok {
				rounded := formulas.Round(pct, 2)
				stat.PercentChange = &rounded
			}
		}
		prevAvg = avg
		stats = append(stats, stat)
	}
	return stats, nil
}

// History returns the blended daily series for a range, optionally with a
// simple moving average over maWindow days (0 disables it)
func (s *Service) History(ctx context.Context, rng Range, maWindow int) ([]DailyPrice, error) {
	if maWindow < 0 || maWindow > maxMovingAverageWindow {
		return nil, ErrInvalidWindow
	}

	today := s.today()
	series, err := s.repo.DailySeries(ctx, rng.Start(today), today.Format(contract_calendar.DateLayout))
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(series))
	for i := range series {
		series[i].Price = formulas.Round(series[i].Price, 2)
		closes[i] = series[i].Price
	}

	if maWindow > 0 {
		for i, v := range formulas.SMASeries(closes, maWindow) {
			if v != nil {
				rounded := formulas.Round(*v, 2)
				series[i].MA = &rounded
			}
		}
	}
	return series, nil
}

// LastSync returns the most recent sync run, if any
func (s *Service) LastSync(ctx context.Context) (*SyncRun, error) {
	return s.repo.LastSyncRun(ctx)
}

func (s *Service) businessDays(first, last time.Time) int {
	if s.calendar == nil {
		return 0
	}
	n := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if s.calendar.IsBusinessDay(d) {
			n++
		}
	}
	return n
}
