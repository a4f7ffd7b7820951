// Package handlers provides HTTP handlers for contract calendar operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	"github.com/rs/zerolog"
)

// Handler handles contract calendar HTTP requests
type Handler struct {
	service *contract_calendar.Service
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler creates a new contract calendar handler
func NewHandler(
	service *contract_calendar.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "contract_calendar").Logger(),
		now:     time.Now,
	}
}

// HandleGetContracts handles GET /api/calendar/contracts
// Returns the year's 15 contracts with statuses relative to today
func (h *Handler) HandleGetContracts(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	year, err := yearParam(r, today.Year())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Contracts(year, today)
	if err != nil {
		h.writeError(w, err, "Failed to compute contracts")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleGetContract handles GET /api/calendar/contracts/{code}
func (h *Handler) HandleGetContract(w http.ResponseWriter, r *http.Request, code string) {
	record, err := h.service.Contract(code, h.today())
	if err != nil {
		h.writeError(w, err, "Failed to compute contract")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(record))
}

// HandleGetGrid handles GET /api/calendar/grid
// Returns one annotated month, or all twelve when month is omitted
func (h *Handler) HandleGetGrid(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	year, err := yearParam(r, today.Year())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	monthStr := r.URL.Query().Get("month")
	if monthStr == "" {
		grids, err := h.service.YearGrid(year)
		if err != nil {
			h.writeError(w, err, "Failed to build calendar grid")
			return
		}
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"year":                  year,
			"months":                grids,
			"missing_holiday_years": h.service.MissingHolidayYearsAround(year),
		}))
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil {
		http.Error(w, "month must be an integer between 1 and 12", http.StatusBadRequest)
		return
	}

	grid, err := h.service.MonthGrid(year, time.Month(month))
	if err != nil {
		h.writeError(w, err, "Failed to build calendar grid")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"year":                  year,
		"months":                []contract_calendar.MonthGrid{grid},
		"missing_holiday_years": h.service.MissingHolidayYearsAround(year),
	}))
}

// HandleGetHolidays handles GET /api/calendar/holidays
func (h *Handler) HandleGetHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r, h.today().Year())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	holidays, known := h.service.Holidays(year)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"year":     year,
		"known":    known,
		"holidays": holidays,
	}))
}

func (h *Handler) today() time.Time {
	return contract_calendar.Civil(h.now())
}

// writeError maps caller mistakes to 400 and anything else to 500
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, contract_calendar.ErrInvalidMonth) ||
		errors.Is(err, contract_calendar.ErrInvalidYear) ||
		errors.Is(err, contract_calendar.ErrInvalidCode) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func yearParam(r *http.Request, fallback int) (int, error) {
	yearStr := r.URL.Query().Get("year")
	if yearStr == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || contract_calendar.ValidateCalendarYear(year) != nil {
		return 0, fmt.Errorf("year must be an integer between %d and %d",
			contract_calendar.MinYear, contract_calendar.MaxCalendarYear)
	}
	return year, nil
}
