// Package contract_calendar computes NYMEX WTI (CL) contract dates and trading calendars.
package contract_calendar

import "time"

// Direction is the stepping direction for business-day arithmetic
type Direction int

const (
	// Backward steps toward earlier dates
	Backward Direction = -1
	// Forward steps toward later dates
	Forward Direction = 1
)

// Date returns the civil date (UTC midnight) for year/month/day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Civil strips the time component, keeping the calendar date as seen in t's location
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// BusinessCalendar decides whether a date is a trading day
type BusinessCalendar struct {
	holidays *HolidayTable
}

// NewBusinessCalendar creates a calendar backed by the given holiday table.
// A nil table is treated as empty.
func NewBusinessCalendar(holidays *HolidayTable) *BusinessCalendar {
	if holidays == nil {
		holidays = NewHolidayTable()
	}
	return &BusinessCalendar{holidays: holidays}
}

// Holidays returns the underlying holiday table
func (c *BusinessCalendar) Holidays() *HolidayTable {
	return c.holidays
}

// IsWeekend reports whether the date is a Saturday or Sunday
func (c *BusinessCalendar) IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the date is listed in the holiday table.
// Years missing from the table have no holidays.
func (c *BusinessCalendar) IsHoliday(date time.Time) bool {
	_, ok := c.holidays.Name(date)
	return ok
}

// HolidayName returns the holiday name for the date, if any
func (c *BusinessCalendar) HolidayName(date time.Time) (string, bool) {
	return c.holidays.Name(date)
}

// IsBusinessDay reports whether the date is neither a weekend nor a holiday
func (c *BusinessCalendar) IsBusinessDay(date time.Time) bool {
	return !c.IsWeekend(date) && !c.IsHoliday(date)
}

// KnowsYear reports whether the holiday table covers the year
func (c *BusinessCalendar) KnowsYear(year int) bool {
	return c.holidays.HasYear(year)
}

// StepBusinessDays moves n business days from date in the given direction.
// The start date is never counted. n <= 0 returns the start date.
func (c *BusinessCalendar) StepBusinessDays(date time.Time, n int, dir Direction) time.Time {
	current := Civil(date)
	step := int(dir)
	if step == 0 {
		step = int(Forward)
	}

	for landed := 0; landed < n; {
		current = current.AddDate(0, 0, step)
		if c.IsBusinessDay(current) {
			landed++
		}
	}
	return current
}

// BusinessDaysBetween counts business days strictly between a and b
func (c *BusinessCalendar) BusinessDaysBetween(a, b time.Time) int {
	from, to := Civil(a), Civil(b)
	if to.Before(from) {
		from, to = to, from
	}

	count := 0
	for d := from.AddDate(0, 0, 1); d.Before(to); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			count++
		}
	}
	return count
}
