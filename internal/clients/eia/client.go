// Package eia fetches the WTI Cushing spot series from the EIA v2 API.
package eia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/rs/zerolog"
)

// SeriesRWTC is the EIA series id for WTI Cushing, OK spot FOB
const SeriesRWTC = "RWTC"

// ErrNoAPIKey is returned when the client has no API key configured
var ErrNoAPIKey = errors.New("EIA API key not configured")

// Client for api.eia.gov
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new EIA client
func NewClient(apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://api.eia.gov/v2",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "eia").Logger(),
	}
}

// Name identifies the feed
func (c *Client) Name() string {
	return "eia"
}

type spotResponse struct {
	Response struct {
		Data []spotItem `json:"data"`
	} `json:"response"`
	Error string `json:"error"`
}

type spotItem struct {
	Period string        `json:"period"`
	Value  flexibleFloat `json:"value"`
}

// flexibleFloat accepts numbers, numeric strings and null
type flexibleFloat struct {
	v *float64
}

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		f.v = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid value %s: %w", data, err)
	}
	f.v = &v
	return nil
}

// Fetch returns the most recent days daily RWTC observations, newest first
func (c *Client) Fetch(ctx context.Context, days int) ([]domain.PricePoint, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("frequency", "daily")
	params.Set("data[0]", "value")
	params.Set("facets[series][]", SeriesRWTC)
	params.Set("sort[0][column]", "period")
	params.Set("sort[0][direction]", "desc")
	params.Set("length", strconv.Itoa(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/petroleum/pri/spt/data/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("EIA request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EIA returned status %d", resp.StatusCode)
	}

	var body spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse EIA response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("EIA error: %s", body.Error)
	}
	if body.Response.Data == nil {
		return nil, fmt.Errorf("EIA response has no data")
	}

	points := make([]domain.PricePoint, 0, len(body.Response.Data))
	for _, item := range body.Response.Data {
		points = append(points, domain.PricePoint{
			Date:      item.Period,
			Value:     item.Value.v,
			Source:    domain.SourceEIA,
			PriceType: domain.PriceTypeCushingSpot,
			Unit:      domain.DefaultUnit,
		})
	}

	c.log.Debug().Int("points", len(points)).Msg("Fetched EIA spot prices")
	return points, nil
}
