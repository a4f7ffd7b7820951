// Package prices stores WTI price observations and derives desk analytics from them.
package prices

import (
	"context"
	"errors"

	"github.com/crudeops/wtidesk/internal/domain"
)

// Validation errors returned to callers
var (
	ErrInvalidMonth  = errors.New("month must be formatted YYYY-MM")
	ErrMissingSource = errors.New("source is required")
	ErrInvalidRange  = errors.New("range must be one of ytd, 1y, 5y, 10y, all")
	ErrInvalidWindow = errors.New("moving average window must be between 0 and 250")
)

// CalculationCMA is the calculation type for calendar month averages
const CalculationCMA = "CMA"

// AnnualSources are the sources combined for annual statistics
var AnnualSources = []domain.PriceSource{
	domain.SourceNYMEX,
	domain.SourceNYMEXEIA,
	domain.SourceChartExport,
	domain.SourceEIA,
}

// Fetcher retrieves recent observations from an upstream feed
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, days int) ([]domain.PricePoint, error)
}

// DailyPrice is one point of the blended daily history
type DailyPrice struct {
	Date   string   `json:"date"`
	Price  float64  `json:"price"`
	Source string   `json:"source,omitempty"`
	MA     *float64 `json:"ma,omitempty"`
}

// Calculation is a stored derived value such as a CMA
type Calculation struct {
	Month       string  `json:"month"`
	Type        string  `json:"calculation_type"`
	Value       float64 `json:"value"`
	Source      string  `json:"source"`
	TradingDays int     `json:"trading_days"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// CMAResult is the calendar month average for one source
type CMAResult struct {
	Month               string   `json:"month"`
	Source              string   `json:"source"`
	CMA                 *float64 `json:"cma"`
	TradingDays         int      `json:"trading_days"`
	ExpectedTradingDays int      `json:"expected_trading_days"`
}

// TradePeriodAverage is a source's average over a contract's trade period
type TradePeriodAverage struct {
	Contract    string   `json:"contract"`
	Source      string   `json:"source"`
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	Average     *float64 `json:"average"`
	Days        int      `json:"days"`
}

// AnnualStat summarizes one calendar year of settlements
type AnnualStat struct {
	Year          int      `json:"year"`
	AvgPrice      float64  `json:"avg_price"`
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
	StdDev        float64  `json:"std_dev"`
	TradingDays   int      `json:"trading_days"`
	PercentChange *float64 `json:"percent_change"`
}

// SyncRun records one execution of the price sync
type SyncRun struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Saved      int    `json:"saved"`
	Error      string `json:"error,omitempty"`
}
