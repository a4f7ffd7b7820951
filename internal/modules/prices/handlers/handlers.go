// Package handlers provides HTTP handlers for price desk operations.
package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/rs/zerolog"
)

const (
	defaultDays = 30
	maxDays     = 3650
)

// PriceService is the read side used by the handlers
type PriceService interface {
	Latest(ctx context.Context, days int) (domain.PriceFeeds, error)
	CalendarMonthAverage(ctx context.Context, month, source string) (prices.CMAResult, error)
	TradePeriodAverage(ctx context.Context, code, source string) (prices.TradePeriodAverage, error)
	AnnualStats(ctx context.Context) ([]prices.AnnualStat, error)
	History(ctx context.Context, rng prices.Range, maWindow int) ([]prices.DailyPrice, error)
	LastSync(ctx context.Context) (*prices.SyncRun, error)
}

// Syncer fetches from upstream feeds
type Syncer interface {
	Live(ctx context.Context, days int) (domain.PriceFeeds, error)
	Run(ctx context.Context, days int) (prices.SyncResult, error)
}

// Handler handles price HTTP requests
type Handler struct {
	service    PriceService
	syncer     Syncer
	cronSecret string
	syncDays   int
	log        zerolog.Logger
}

// NewHandler creates a new price handler. Sync requests must carry
// "Authorization: Bearer <cronSecret>"; an empty secret disables them.
func NewHandler(
	service PriceService,
	syncer Syncer,
	cronSecret string,
	syncDays int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:    service,
		syncer:     syncer,
		cronSecret: cronSecret,
		syncDays:   syncDays,
		log:        log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices handles GET /api/prices
// source=live fetches from upstream feeds; anything else reads stored data
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	days := defaultDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 || parsed > maxDays {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	var (
		feeds domain.PriceFeeds
		err   error
	)
	if r.URL.Query().Get("source") == "live" {
		feeds, err = h.syncer.Live(r.Context(), days)
	} else {
		feeds, err = h.service.Latest(r.Context(), days)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch prices")
		http.Error(w, "Failed to fetch prices", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(feeds))
}

type cmaRequest struct {
	Month  string `json:"month"`
	Source string `json:"source"`
}

// HandleCalculateCMA handles POST /api/prices/cma
func (h *Handler) HandleCalculateCMA(w http.ResponseWriter, r *http.Request) {
	var req cmaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Month == "" || req.Source == "" {
		http.Error(w, "month and source are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CalendarMonthAverage(r.Context(), req.Month, req.Source)
	if err != nil {
		h.writeError(w, err, "Failed to calculate CMA")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleTradePeriodAverage handles GET /api/prices/trade-period-average
func (h *Handler) HandleTradePeriodAverage(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	source := r.URL.Query().Get("source")
	if code == "" || source == "" {
		http.Error(w, "code and source are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.TradePeriodAverage(r.Context(), code, source)
	if err != nil {
		h.writeError(w, err, "Failed to calculate trade period average")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleGetAnalytics handles GET /api/prices/analytics
// type=annual (default) returns yearly statistics, type=historical the daily series
func (h *Handler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch q.Get("type") {
	case "", "annual":
		stats, err := h.service.AnnualStats(r.Context())
		if err != nil {
			h.writeError(w, err, "Failed to fetch analytics data")
			return
		}
		h.writeJSON(w, http.StatusOK, envelope(stats))

	case "historical":
		rng, err := prices.ParseRange(q.Get("range"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		window := 0
		if maStr := q.Get("ma"); maStr != "" {
			window, err = strconv.Atoi(maStr)
			if err != nil {
				http.Error(w, "ma must be an integer", http.StatusBadRequest)
				return
			}
		}

		series, err := h.service.History(r.Context(), rng, window)
		if err != nil {
			h.writeError(w, err, "Failed to fetch analytics data")
			return
		}
		h.writeJSON(w, http.StatusOK, envelope(series))

	default:
		http.Error(w, "Invalid type parameter", http.StatusBadRequest)
	}
}

// HandleSync handles POST /api/prices/sync
// Fetches the configured window from every feed and stores the result
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "Unauthorized"})
		return
	}

	result, err := h.syncer.Run(r.Context(), h.syncDays)
	if err != nil {
		h.log.Error().Err(err).Msg("Price sync failed")
		http.Error(w, "Price sync failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleGetLastSync handles GET /api/prices/sync/last
func (h *Handler) HandleGetLastSync(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LastSync(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get last sync run")
		http.Error(w, "Failed to get last sync run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "No sync has run yet", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(run))
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) == 1
}

// writeError maps validation errors to 400 and anything else to 500
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	for _, target := range []error{
		prices.ErrInvalidMonth,
		prices.ErrMissingSource,
		prices.ErrInvalidRange,
		prices.ErrInvalidWindow,
		contract_calendar.ErrInvalidCode,
		contract_calendar.ErrInvalidMonth,
		contract_calendar.ErrInvalidYear,
	} {
		if errors.Is(err, target) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
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
