package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	latestDays int
	cmaErr     error
}

func (s *stubService) Latest(_ context.Context, days int) (domain.PriceFeeds, error) {
	s.latestDays = days
	return domain.NewPriceFeeds([]domain.PricePoint{
		{Date: "2026-02-27", Value: domain.Float(70.25), Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot},
	}, time.Now()), nil
}

func (s *stubService) CalendarMonthAverage(_ context.Context, month, source string) (prices.CMAResult, error) {
	if s.cmaErr != nil {
		return prices.CMAResult{}, s.cmaErr
	}
	cma := 62.0
	return prices.CMAResult{Month: month, Source: source, CMA: &cma, TradingDays: 5, ExpectedTradingDays: 20}, nil
}

func (s *stubService) TradePeriodAverage(_ context.Context, code, source string) (prices.TradePeriodAverage, error) {
	if code == "bad" {
		return prices.TradePeriodAverage{}, prices.ErrMissingSource
	}
	return prices.TradePeriodAverage{Contract: "CLH26", Source: source, PeriodStart: "2026-01-26", PeriodEnd: "2026-02-25"}, nil
}

func (s *stubService) AnnualStats(context.Context) ([]prices.AnnualStat, error) {
	return []prices.AnnualStat{{Year: 2025, AvgPrice: 66.33, TradingDays: 250}}, nil
}

func (s *stubService) History(_ context.Context, rng prices.Range, window int) ([]prices.DailyPrice, error) {
	if window > 250 {
		return nil, prices.ErrInvalidWindow
	}
	return []prices.DailyPrice{{Date: "2026-02-27", Price: 70.25, Source: string(rng)}}, nil
}

func (s *stubService) LastSync(context.Context) (*prices.SyncRun, error) {
	return nil, nil
}

type stubSyncer struct {
	runs     []int
	liveDays int
	err      error
}

func (s *stubSyncer) Live(_ context.Context, days int) (domain.PriceFeeds, error) {
	s.liveDays = days
	return domain.NewPriceFeeds(nil, time.Now()), s.err
}

func (s *stubSyncer) Run(_ context.Context, days int) (prices.SyncResult, error) {
	s.runs = append(s.runs, days)
	if s.err != nil {
		return prices.SyncResult{}, s.err
	}
	return prices.SyncResult{RunID: "run-1", Saved: 12, Counts: map[string]int{"eia": 7}}, nil
}

func newTestRouter(svc *stubService, syncer *stubSyncer, secret string) chi.Router {
	handler := NewHandler(svc, syncer, secret, 7, zerolog.New(nil).Level(zerolog.Disabled))
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func serve(router http.Handler, method, url, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "metadata")
	return response
}

func TestHandleGetPrices(t *testing.T) {
	svc := &stubService{}
	syncer := &stubSyncer{}
	router := newTestRouter(svc, syncer, "secret")

	w := serve(router, "GET", "/api/prices/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, svc.latestDays)
	data := decode(t, w)["data"].(map[string]interface{})
	feeds := data["feeds"].(map[string]interface{})
	assert.Len(t, feeds["eia"], 1)

	w = serve(router, "GET", "/api/prices/?source=live&days=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, syncer.liveDays)

	for _, url := range []string{"/api/prices/?days=0", "/api/prices/?days=abc", "/api/prices/?days=99999"} {
		w = serve(router, "GET", url, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
	}
}

func TestHandleGetPrices_LiveFailure(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubSyncer{err: errors.New("boom")}, "secret")

	w := serve(router, "GET", "/api/prices/?source=live", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleCalculateCMA(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		cmaErr         error
		expectedStatus int
	}{
		{"valid", `{"month":"2026-01","source":"EIA"}`, nil, http.StatusOK},
		{"missing source", `{"month":"2026-01"}`, nil, http.StatusBadRequest},
		{"malformed body", `{"month":`, nil, http.StatusBadRequest},
		{"invalid month", `{"month":"2026-13","source":"EIA"}`, prices.ErrInvalidMonth, http.StatusBadRequest},
		{"storage failure", `{"month":"2026-01","source":"EIA"}`, errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{cmaErr: tt.cmaErr}, &stubSyncer{}, "secret")

			w := serve(router, "POST", "/api/prices/cma", tt.body, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				data := decode(t, w)["data"].(map[string]interface{})
				assert.Equal(t, 62.0, data["cma"])
				assert.Equal(t, float64(20), data["expected_trading_days"])
			}
		})
	}
}

func TestHandleTradePeriodAverage(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubSyncer{}, "secret")

	w := serve(router, "GET", "/api/prices/trade-period-average?code=CLH26&source=EIA", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "CLH26", data["contract"])

	w = serve(router, "GET", "/api/prices/trade-period-average?code=CLH26", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, "GET", "/api/prices/trade-period-average?code=bad&source=EIA", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetAnalytics(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubSyncer{}, "secret")

	tests := []struct {
		url            string
		expectedStatus int
	}{
		{"/api/prices/analytics", http.StatusOK},
		{"/api/prices/analytics?type=annual", http.StatusOK},
		{"/api/prices/analytics?type=historical&range=5y&ma=20", http.StatusOK},
		{"/api/prices/analytics?type=historical&range=2y", http.StatusBadRequest},
		{"/api/prices/analytics?type=historical&ma=x", http.StatusBadRequest},
		{"/api/prices/analytics?type=historical&ma=900", http.StatusBadRequest},
		{"/api/prices/analytics?type=weekly", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := serve(router, "GET", tt.url, "", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	w := serve(router, "GET", "/api/prices/analytics?type=historical&range=5y", "", nil)
	series := decode(t, w)["data"].([]interface{})
	require.Len(t, series, 1)
	assert.Equal(t, "5y", series[0].(map[string]interface{})["source"])
}

func TestHandleSync(t *testing.T) {
	tests := []struct {
		name           string
		secret         string
		auth           string
		expectedStatus int
		expectRun      bool
	}{
		{"valid token", "s3cret", "Bearer s3cret", http.StatusOK, true},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized, false},
		{"missing header", "s3cret", "", http.StatusUnauthorized, false},
		{"not bearer", "s3cret", "s3cret", http.StatusUnauthorized, false},
		{"secret unset", "", "Bearer ", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &stubSyncer{}
			router := newTestRouter(&stubService{}, syncer, tt.secret)

			header := http.Header{}
			if tt.auth != "" {
				header.Set("Authorization", tt.auth)
			}
			w := serve(router, "POST", "/api/prices/sync", "", header)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectRun {
				assert.Equal(t, []int{7}, syncer.runs)
				data := decode(t, w)["data"].(map[string]interface{})
				assert.Equal(t, "run-1", data["run_id"])
			} else {
				assert.Empty(t, syncer.runs)
			}
		})
	}
}

func TestHandleGetLastSync_None(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubSyncer{}, "secret")

	w := serve(router, "GET", "/api/prices/sync/last", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
