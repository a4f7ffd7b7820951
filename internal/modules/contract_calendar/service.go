package contract_calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ContractRecord is the serialized view of a contract
type ContractRecord struct {
	Code             string         `json:"code"`
	DeliveryYear     int            `json:"delivery_year"`
	DeliveryMonth    int            `json:"delivery_month"`
	LastTradingDay   string         `json:"last_trading_day"`
	FirstNoticeDay   string         `json:"first_notice_day"`
	TradePeriodStart string         `json:"trade_period_start"`
	TradePeriodEnd   string         `json:"trade_period_end"`
	Status           ContractStatus `json:"status,omitempty"`
}

// NewContractRecord converts a contract, with status relative to today when non-zero
func NewContractRecord(c Contract, today time.Time) ContractRecord {
	r := ContractRecord{
		Code:             c.Code(),
		DeliveryYear:     c.DeliveryYear,
		DeliveryMonth:    int(c.DeliveryMonth),
		LastTradingDay:   c.LastTradingDay.Format(DateLayout),
		FirstNoticeDay:   c.FirstNoticeDay.Format(DateLayout),
		TradePeriodStart: c.TradePeriodStart.Format(DateLayout),
		TradePeriodEnd:   c.TradePeriodEnd.Format(DateLayout),
	}
	if !today.IsZero() {
		r.Status = c.StatusAt(today)
	}
	return r
}

// ContractDetail is a single contract with the holiday coverage of the years its dates touch
type ContractDetail struct {
	ContractRecord
	HolidaysKnown       bool  `json:"holidays_known"`
	MissingHolidayYears []int `json:"missing_holiday_years"`
}

// YearContracts is the contract set for a calendar year
type YearContracts struct {
	Year                int              `json:"year"`
	Contracts           []ContractRecord `json:"contracts"`
	HolidaysKnown       bool             `json:"holidays_known"`
	MissingHolidayYears []int            `json:"missing_holiday_years"`
}

// Service combines the calendar, calculator and grid builder with per-year memoization
type Service struct {
	calendar   *BusinessCalendar
	calculator *Calculator
	grids      *GridBuilder
	log        zerolog.Logger

	mu    sync.RWMutex
	years map[int][]Contract

	warnMu sync.Mutex
	warned map[int]bool
}

// NewService creates a contract calendar service for the given holiday table
func NewService(holidays *HolidayTable, log zerolog.Logger) *Service {
	cal := NewBusinessCalendar(holidays)
	return &Service{
		calendar:   cal,
		calculator: NewCalculator(cal),
		grids:      NewGridBuilder(cal),
		log:        log.With().Str("service", "contract_calendar").Logger(),
		years:      make(map[int][]Contract),
		warned:     make(map[int]bool),
	}
}

// Calendar returns the business calendar
func (s *Service) Calendar() *BusinessCalendar {
	return s.calendar
}

// yearContracts returns the memoized contract set for a year
func (s *Service) yearContracts(year int) ([]Contract, error) {
	s.mu.RLock()
	contracts, ok := s.years[year]
	s.mu.RUnlock()
	if ok {
		return contracts, nil
	}

	contracts, err := s.calculator.ComputeYearContracts(year)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.years[year] = contracts
	s.mu.Unlock()
	return contracts, nil
}

// MissingHolidayYears reports which of the given years have no holiday table,
// logging a warning the first time each is seen
func (s *Service) MissingHolidayYears(years ...int) []int {
	missing := []int{}
	for _, y := range years {
		if s.calendar.KnowsYear(y) {
			continue
		}
		missing = append(missing, y)

		s.warnMu.Lock()
		if !s.warned[y] {
			s.warned[y] = true
			s.log.Warn().
				Int("year", y).
				Ints("known_years", s.calendar.Holidays().Years()).
				Msg("Holiday table missing year, treating it as holiday-free")
		}
		s.warnMu.Unlock()
	}
	return missing
}

// MissingHolidayYearsAround reports gaps in year-1..year+1. Contract sets reach
// back into year-1 for January and February deliveries, and grids show
// leading and trailing days of the neighbouring years.
func (s *Service) MissingHolidayYearsAround(year int) []int {
	return s.MissingHolidayYears(year-1, year, year+1)
}

// Contracts returns the year's contract set with statuses relative to today
func (s *Service) Contracts(year int, today time.Time) (YearContracts, error) {
	contracts, err := s.yearContracts(year)
	if err != nil {
		return YearContracts{}, err
	}

	missing := s.MissingHolidayYearsAround(year)

	records := make([]ContractRecord, 0, len(contracts))
	for _, c := range contracts {
		records = append(records, NewContractRecord(c, today))
	}

	return YearContracts{
		Year:                year,
		Contracts:           records,
		HolidaysKnown:       len(missing) == 0,
		MissingHolidayYears: missing,
	}, nil
}

// Contract resolves a single contract by its code
func (s *Service) Contract(code string, today time.Time) (ContractDetail, error) {
	year, month, err := ParseContractCode(code)
	if err != nil {
		return ContractDetail{}, err
	}
	c, err := s.calculator.ComputeContract(year, month)
	if err != nil {
		return ContractDetail{}, err
	}

	missing := s.MissingHolidayYears(contractYears(c)...)
	return ContractDetail{
		ContractRecord:      NewContractRecord(c, today),
		HolidaysKnown:       len(missing) == 0,
		MissingHolidayYears: missing,
	}, nil
}

// contractYears lists, ascending and without repeats, the years a contract's dates fall in
func contractYears(c Contract) []int {
	all := []int{
		c.TradePeriodStart.Year(),
		c.LastTradingDay.Year(),
		c.FirstNoticeDay.Year(),
		c.TradePeriodEnd.Year(),
	}
	sort.Ints(all)

	years := all[:1]
	for _, y := range all[1:] {
		if y != years[len(years)-1] {
			years = append(years, y)
		}
	}
	return years
}

// MonthGrid builds one month of the annotated calendar
func (s *Service) MonthGrid(year int, month time.Month) (MonthGrid, error) {
	if err := ValidateDelivery(year, month); err != nil {
		return MonthGrid{}, err
	}
	contracts, err := s.yearContracts(year)
	if err != nil {
		return MonthGrid{}, err
	}
	s.MissingHolidayYearsAround(year)
	return s.grids.BuildMonth(year, month, contracts)
}

// YearGrid builds all twelve months of the annotated calendar
func (s *Service) YearGrid(year int) ([]MonthGrid, error) {
	contracts, err := s.yearContracts(year)
	if err != nil {
		return nil, err
	}
	s.MissingHolidayYearsAround(year)
	return s.grids.BuildYear(year, contracts)
}

// Holidays returns the listed holidays for a year and whether the year is covered
func (s *Service) Holidays(year int) ([]Holiday, bool) {
	known := s.calendar.KnowsYear(year)
	if !known {
		s.MissingHolidayYears(year)
	}
	return s.calendar.Holidays().ForYear(year), known
}
