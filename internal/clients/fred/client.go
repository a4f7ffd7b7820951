// Package fred fetches the DCOILWTICO daily series from the St. Louis Fed.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/rs/zerolog"
)

// SeriesWTI is the FRED series id for WTI Cushing spot
const SeriesWTI = "DCOILWTICO"

// missingValue is FRED's marker for a day without an observation
const missingValue = "."

// ErrNoAPIKey is returned when the client has no API key configured
var ErrNoAPIKey = errors.New("FRED API key not configured")

// Client for api.stlouisfed.org
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new FRED client
func NewClient(apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://api.stlouisfed.org/fred",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "fred").Logger(),
	}
}

// Name identifies the feed
func (c *Client) Name() string {
	return "fred"
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorMessage string `json:"error_message"`
}

// Fetch returns up to days observations, newest first. Missing days are dropped.
func (c *Client) Fetch(ctx context.Context, days int) ([]domain.PricePoint, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("series_id", SeriesWTI)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/series/observations?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FRED request failed: %w", err)
	}
	defer resp.Body.Close()

	var body observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("FRED returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to parse FRED response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if body.ErrorMessage != "" {
			return nil, fmt.Errorf("FRED returned status %d: %s", resp.StatusCode, body.ErrorMessage)
		}
		return nil, fmt.Errorf("FRED returned status %d", resp.StatusCode)
	}
	if body.Observations == nil {
		return nil, fmt.Errorf("FRED response has no observations")
	}

	points := make([]domain.PricePoint, 0, len(body.Observations))
	for _, obs := range body.Observations {
		if obs.Value == missingValue || obs.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			c.log.Warn().Str("date", obs.Date).Str("value", obs.Value).Msg("Skipping unparseable observation")
			continue
		}
		points = append(points, domain.PricePoint{
			Date:      obs.Date,
			Value:     domain.Float(v),
			Source:    domain.SourceFRED,
			PriceType: domain.PriceTypeSpotDCOILWTICO,
			Unit:      domain.DefaultUnit,
		})
	}

	c.log.Debug().Int("points", len(points)).Msg("Fetched FRED observations")
	return points, nil
}
