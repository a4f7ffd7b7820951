package contract_calendar

import (
	"fmt"
	"time"
)

// CalendarDay is one annotated cell of a month grid.
// Annotations accumulate; none suppresses another.
type CalendarDay struct {
	Date                  time.Time `json:"-"`
	DateStr               string    `json:"date"`
	InMonth               bool      `json:"in_month"`
	IsWeekend             bool      `json:"is_weekend"`
	IsHoliday             bool      `json:"is_holiday"`
	HolidayName           string    `json:"holiday_name,omitempty"`
	LastTradingDayFor     string    `json:"last_trading_day_for,omitempty"`
	FirstNoticeDayFor     string    `json:"first_notice_day_for,omitempty"`
	ActiveTradePeriods    []string  `json:"active_trade_periods"`
	TradePeriodBoundaries []string  `json:"trade_period_boundaries"`
	TradePeriodStarts     []string  `json:"trade_period_starts"`
	TradePeriodEnds       []string  `json:"trade_period_ends"`
}

// Week is a Sunday-first row of seven days
type Week [7]CalendarDay

// MonthGrid is a month laid out as complete weeks
type MonthGrid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks []Week     `json:"weeks"`
}

// Days flattens the grid in display order
func (g MonthGrid) Days() []CalendarDay {
	days := make([]CalendarDay, 0, len(g.Weeks)*7)
	for _, w := range g.Weeks {
		days = append(days, w[:]...)
	}
	return days
}

// GridBuilder lays out annotated month grids
type GridBuilder struct {
	calendar *BusinessCalendar
}

// NewGridBuilder creates a grid builder
func NewGridBuilder(calendar *BusinessCalendar) *GridBuilder {
	return &GridBuilder{calendar: calendar}
}

// BuildMonth builds the grid for year/month annotated with the given contracts.
// The range is widened to the Sunday on or before the 1st and the Saturday on or
// after the last day, so the grid is always whole weeks.
func (b *GridBuilder) BuildMonth(year int, month time.Month, contracts []Contract) (MonthGrid, error) {
	if err := ValidateDelivery(year, month); err != nil {
		return MonthGrid{}, err
	}

	first := Date(year, month, 1)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	codes := make([]string, len(contracts))
	for i, c := range contracts {
		codes[i] = c.Code()
	}

	grid := MonthGrid{Year: year, Month: month}
	var week Week
	i := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		week[i] = b.annotate(d, month, contracts, codes)
		i++
		if i == len(week) {
			grid.Weeks = append(grid.Weeks, week)
			week = Week{}
			i = 0
		}
	}
	if i != 0 {
		return MonthGrid{}, fmt.Errorf("grid for %d-%02d ended mid-week", year, month)
	}
	return grid, nil
}

// BuildYear builds all twelve month grids of a year
func (b *GridBuilder) BuildYear(year int, contracts []Contract) ([]MonthGrid, error) {
	grids := make([]MonthGrid, 0, 12)
	for m := time.January; m <= time.December; m++ {
		g, err := b.BuildMonth(year, m, contracts)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	return grids, nil
}

func (b *GridBuilder) annotate(d time.Time, month time.Month, contracts []Contract, codes []string) CalendarDay {
	day := CalendarDay{
		Date:                  d,
		DateStr:               d.Format(DateLayout),
		InMonth:               d.Month() == month,
		IsWeekend:             b.calendar.IsWeekend(d),
		ActiveTradePeriods:    []string{},
		TradePeriodBoundaries: []string{},
		TradePeriodStarts:     []string{},
		TradePeriodEnds:       []string{},
	}
	if name, ok := b.calendar.HolidayName(d); ok {
		day.IsHoliday = true
		day.HolidayName = name
	}

	for i, c := range contracts {
		code := codes[i]
		if d.Equal(c.LastTradingDay) {
			day.LastTradingDayFor = code
		}
		if d.Equal(c.FirstNoticeDay) {
			day.FirstNoticeDayFor = code
		}
		if !d.Before(c.TradePeriodStart) && !d.After(c.TradePeriodEnd) {
			day.ActiveTradePeriods = append(day.ActiveTradePeriods, code)
		}
		isStart := d.Equal(c.TradePeriodStart)
		isEnd := d.Equal(c.TradePeriodEnd)
		if isStart {
			day.TradePeriodStarts = append(day.TradePeriodStarts, code)
		}
		if isEnd {
			day.TradePeriodEnds = append(day.TradePeriodEnds, code)
		}
		if isStart || isEnd {
			day.TradePeriodBoundaries = append(day.TradePeriodBoundaries, code)
		}
	}
	return day
}
