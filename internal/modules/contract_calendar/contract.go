package contract_calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ProductPrefix is the exchange ticker root for WTI crude futures
	ProductPrefix = "CL"

	// MinYear and MaxYear bound accepted delivery years
	MinYear = 1900
	MaxYear = 9999
	// MaxCalendarYear is the last year whose contract set and grids can be
	// built; they include the first deliveries of the following year.
	MaxCalendarYear = MaxYear - 1

	anchorDay     = 25
	tradeStartDay = 26
)

var (
	// ErrInvalidMonth is returned for delivery months outside 1-12
	ErrInvalidMonth = errors.New("invalid delivery month")
	// ErrInvalidYear is returned for delivery years outside MinYear..MaxYear
	ErrInvalidYear = errors.New("invalid delivery year")
	// ErrInvalidCode is returned for malformed contract codes
	ErrInvalidCode = errors.New("invalid contract code")
)

// monthCodes are the exchange month letters, January first
var monthCodes = [12]string{"F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// ContractStatus is the lifecycle state of a contract relative to a given day
type ContractStatus string

const (
	StatusUpcoming ContractStatus = "upcoming"
	StatusActive   ContractStatus = "active"
	StatusExpired  ContractStatus = "expired"
)

// Contract is one WTI futures delivery month with its derived key dates
type Contract struct {
	DeliveryYear     int
	DeliveryMonth    time.Month
	LastTradingDay   time.Time
	FirstNoticeDay   time.Time
	TradePeriodStart time.Time
	TradePeriodEnd   time.Time
}

// Code returns the exchange ticker, e.g. CLH26
func (c Contract) Code() string {
	return fmt.Sprintf("%s%s%02d", ProductPrefix, monthCodes[c.DeliveryMonth-1], c.DeliveryYear%100)
}

// StatusAt classifies the contract relative to today.
// A trade period containing today wins over an already-passed last trading day.
func (c Contract) StatusAt(today time.Time) ContractStatus {
	d := Civil(today)
	if !d.Before(c.TradePeriodStart) && !d.After(c.TradePeriodEnd) {
		return StatusActive
	}
	if d.After(c.LastTradingDay) {
		return StatusExpired
	}
	return StatusUpcoming
}

// MonthCode returns the exchange letter for a delivery month
func MonthCode(month time.Month) (string, error) {
	if month < time.January || month > time.December {
		return "", fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return monthCodes[month-1], nil
}

// ParseContractCode resolves a code like CLH26 (prefix optional) to year and month.
// Two-digit years map to 2000-2099.
func ParseContractCode(code string) (int, time.Month, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.TrimPrefix(s, ProductPrefix)
	if len(s) != 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	month := time.Month(0)
	for i, letter := range monthCodes {
		if s[:1] == letter {
			month = time.Month(i + 1)
			break
		}
	}
	if month == 0 {
		return 0, 0, fmt.Errorf("%w: unknown month letter in %q", ErrInvalidCode, code)
	}

	if !isDigit(s[1]) || !isDigit(s[2]) {
		return 0, 0, fmt.Errorf("%w: bad year in %q", ErrInvalidCode, code)
	}
	yy := int(s[1]-'0')*10 + int(s[2]-'0')
	return 2000 + yy, month, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Calculator derives contract dates following CME WTI (CL) rules
type Calculator struct {
	calendar *BusinessCalendar
}

// NewCalculator creates a contract date calculator
func NewCalculator(calendar *BusinessCalendar) *Calculator {
	return &Calculator{calendar: calendar}
}

// ValidateDelivery checks a delivery year and month
func ValidateDelivery(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return nil
}

// ValidateCalendarYear checks a year used for contract sets and grids
func ValidateCalendarYear(year int) error {
	if year < MinYear || year > MaxCalendarYear {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidYear, year, MinYear, MaxCalendarYear)
	}
	return nil
}

// ComputeContract derives the key dates of one delivery month.
//
// Trading terminates 3 business days before the 25th of the month preceding
// delivery, or 4 business days before it when the 25th is not a business day.
// First notice is the next business day. The Argus trade period runs from the
// 26th of M-2 through the 25th of M-1 in calendar days.
func (c *Calculator) ComputeContract(year int, month time.Month) (Contract, error) {
	if err := ValidateDelivery(year, month); err != nil {
		return Contract{}, err
	}

	// Day 1 of the delivery month keeps AddDate from normalizing past month ends
	first := Date(year, month, 1)
	preceding := first.AddDate(0, -1, 0)
	twoBack := first.AddDate(0, -2, 0)

	anchor := Date(preceding.Year(), preceding.Month(), anchorDay)

	back := 3
	if !c.calendar.IsBusinessDay(anchor) {
		back = 4
	}
	ltd := c.calendar.StepBusinessDays(anchor, back, Backward)
	fnd := c.calendar.StepBusinessDays(ltd, 1, Forward)

	return Contract{
		DeliveryYear:     year,
		DeliveryMonth:    month,
		LastTradingDay:   ltd,
		FirstNoticeDay:   fnd,
		TradePeriodStart: Date(twoBack.Year(), twoBack.Month(), tradeStartDay),
		TradePeriodEnd:   anchor,
	}, nil
}

// ComputeYearContracts returns the twelve contracts delivering in year plus the
// first three of year+1, whose trade periods and expiries fall inside year.
func (c *Calculator) ComputeYearContracts(year int) ([]Contract, error) {
	if err := ValidateCalendarYear(year); err != nil {
		return nil, err
	}

	contracts := make([]Contract, 0, 15)
	for m := time.January; m <= time.December; m++ {
		contract, err := c.ComputeContract(year, m)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	for m := time.January; m <= time.March; m++ {
		contract, err := c.ComputeContract(year+1, m)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}
