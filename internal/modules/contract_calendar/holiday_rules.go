package contract_calendar

import "time"

// DraftExchangeHolidays proposes a year's US exchange holidays from the usual
// observance rules. The result is a starting point for the holiday extension
// file and must be checked against the exchange's published schedule; the
// business calendar never consults these rules directly.
func DraftExchangeHolidays(year int) []Holiday {
	holidays := make([]Holiday, 0, 9)

	// New Year's Day falling on a Saturday is not observed on the prior Friday
	newYear := Date(year, time.January, 1)
	if newYear.Weekday() != time.Saturday {
		holidays = append(holidays, Holiday{Date: observeOnWeekday(newYear), Name: "New Year's Day"})
	}

	holidays = append(holidays,
		Holiday{Date: nthWeekday(year, time.January, time.Monday, 3), Name: "MLK Day"},
		Holiday{Date: nthWeekday(year, time.February, time.Monday, 3), Name: "Presidents Day"},
		Holiday{Date: GoodFriday(year), Name: "Good Friday"},
		Holiday{Date: lastWeekday(year, time.May, time.Monday), Name: "Memorial Day"},
		Holiday{Date: observeOnWeekday(Date(year, time.July, 4)), Name: "Independence Day"},
		Holiday{Date: nthWeekday(year, time.September, time.Monday, 1), Name: "Labor Day"},
		Holiday{Date: nthWeekday(year, time.November, time.Thursday, 4), Name: "Thanksgiving"},
		Holiday{Date: observeOnWeekday(Date(year, time.December, 25)), Name: "Christmas"},
	)
	return holidays
}

// Easter returns Western (Gregorian) Easter Sunday using the anonymous computus
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return Date(year, time.Month(month), day)
}

// GoodFriday returns the Friday before Easter
func GoodFriday(year int) time.Time {
	return Easter(year).AddDate(0, 0, -2)
}

// nthWeekday finds the nth occurrence (1-based) of a weekday in a month
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := Date(year, month, 1)
	offset := int(weekday - first.Weekday())
	if offset < 0 {
		offset += 7
	}
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday finds the last occurrence of a weekday in a month
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := Date(year, month+1, 0)
	offset := int(last.Weekday() - weekday)
	if offset < 0 {
		offset += 7
	}
	return last.AddDate(0, 0, -offset)
}

// observeOnWeekday moves Saturday holidays to Friday and Sunday holidays to Monday
func observeOnWeekday(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, 1)
	default:
		return date
	}
}
