// Package yahoo fetches daily closes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/crudeops/wtidesk/pkg/formulas"
	"github.com/rs/zerolog"
)

const (
	// SymbolCrudeFutures is the NYMEX CL front-month continuous contract
	SymbolCrudeFutures = "CL=F"
	// SymbolMidlandDiff is the WTI Midland vs Cushing differential contract
	SymbolMidlandDiff = "WTT=F"
)

// Client fetches one chart symbol and tags its closes as a single feed
type Client struct {
	baseURL   string
	symbol    string
	name      string
	priceType domain.PriceType
	places    int
	client    *http.Client
	log       zerolog.Logger
}

func newClient(symbol, name string, priceType domain.PriceType, places int, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://query2.finance.yahoo.com/v8/finance/chart",
		symbol:    symbol,
		name:      name,
		priceType: priceType,
		places:    places,
		client:    &http.Client{Timeout: timeout},
		log:       log.With().Str("client", name).Logger(),
	}
}

// NewFuturesClient creates a client for CL=F, rounded to cents
func NewFuturesClient(timeout time.Duration, log zerolog.Logger) *Client {
	return newClient(SymbolCrudeFutures, "yahoo_futures", domain.PriceTypeFuturesCL, 2, timeout, log)
}

// NewMidlandClient creates a client for WTT=F, rounded to four places
func NewMidlandClient(timeout time.Duration, log zerolog.Logger) *Client {
	return newClient(SymbolMidlandDiff, "yahoo_midland", domain.PriceTypeMidlandDiff, 4, timeout, log)
}

// Name identifies the feed
func (c *Client) Name() string {
	return c.name
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartRange picks the smallest Yahoo range covering days
func chartRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	default:
		return "3mo"
	}
}

// Fetch returns one point per chart timestamp in chart order.
// Missing or zero closes yield a nil value.
func (c *Client) Fetch(ctx context.Context, days int) ([]domain.PricePoint, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", chartRange(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+url.PathEscape(c.symbol)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, c.symbol)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse yahoo response: %w", err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error for %s: %s", c.symbol, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo response has no result for %s", c.symbol)
	}

	result := body.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	points := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		var value *float64
		if i < len(closes) && closes[i] != nil && *closes[i] != 0 {
			value = domain.Float(formulas.Round(*closes[i], c.places))
		}
		points = append(points, domain.PricePoint{
			Date:      time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Value:     value,
			Source:    domain.SourceYahoo,
			PriceType: c.priceType,
			Unit:      domain.DefaultUnit,
		})
	}

	c.log.Debug().Str("symbol", c.symbol).Int("points", len(points)).Msg("Fetched chart closes")
	return points, nil
}
