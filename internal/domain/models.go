// Package domain provides core domain models and types.
package domain

import "time"

// PriceSource identifies where a price observation came from
type PriceSource string

const (
	SourceEIA          PriceSource = "EIA"
	SourceFRED         PriceSource = "FRED"
	SourceYahoo        PriceSource = "YAHOO"
	SourceNYMEX        PriceSource = "NYMEX"
	SourceNYMEXEIA     PriceSource = "NYMEX_EIA"
	SourceChartExport  PriceSource = "CHART_EXPORT"
	SourceInvestingCom PriceSource = "INVESTING_COM"
)

// PriceType identifies the quoted instrument
type PriceType string

const (
	// PriceTypeCushingSpot is the EIA RWTC Cushing, OK spot price
	PriceTypeCushingSpot PriceType = "WTI_CUSHING_SPOT"
	// PriceTypeSpotDCOILWTICO is the FRED DCOILWTICO spot series
	PriceTypeSpotDCOILWTICO PriceType = "WTI_SPOT_DCOILWTICO"
	// PriceTypeFuturesCL is the front-month NYMEX CL settlement
	PriceTypeFuturesCL PriceType = "WTI_FUTURES_CL"
	// PriceTypeMidlandDiff is the WTI Midland vs Cushing differential
	PriceTypeMidlandDiff PriceType = "WTI_MIDLAND_DIFF"
)

// DefaultUnit is the unit recorded when a feed does not supply one
const DefaultUnit = "$/BBL"

// PricePoint is a single daily observation. Value is nil when the upstream
// feed reported the day without a price.
type PricePoint struct {
	Date      string      `json:"date"` // YYYY-MM-DD
	Value     *float64    `json:"value"`
	Source    PriceSource `json:"source"`
	PriceType PriceType   `json:"price_type"`
	Unit      string      `json:"unit,omitempty"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Feed groups price points the way the desk displays them
type Feed string

const (
	FeedEIA          Feed = "eia"
	FeedFRED         Feed = "fred"
	FeedYahooFutures Feed = "yahoo_futures"
	FeedYahooMidland Feed = "yahoo_midland"
	FeedNYMEX        Feed = "nymex"
	FeedChartExport  Feed = "chart_export"
	FeedInvestingCom Feed = "investing_com"
)

// FeedOf maps a stored point to its display feed
func FeedOf(p PricePoint) (Feed, bool) {
	switch p.Source {
	case SourceEIA:
		return FeedEIA, true
	case SourceFRED:
		return FeedFRED, true
	case SourceYahoo:
		switch p.PriceType {
		case PriceTypeFuturesCL:
			return FeedYahooFutures, true
		case PriceTypeMidlandDiff:
			return FeedYahooMidland, true
		}
	case SourceNYMEX, SourceNYMEXEIA:
		return FeedNYMEX, true
	case SourceChartExport:
		return FeedChartExport, true
	case SourceInvestingCom:
		return FeedInvestingCom, true
	}
	return "", false
}

// PriceFeeds is a set of price points grouped by feed
type PriceFeeds struct {
	Feeds     map[Feed][]PricePoint `json:"feeds"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// NewPriceFeeds groups points by feed, dropping points no feed claims
func NewPriceFeeds(points []PricePoint, fetchedAt time.Time) PriceFeeds {
	feeds := PriceFeeds{Feeds: make(map[Feed][]PricePoint), FetchedAt: fetchedAt}
	for _, p := range points {
		feed, ok := FeedOf(p)
		if !ok {
			continue
		}
		feeds.Feeds[feed] = append(feeds.Feeds[feed], p)
	}
	return feeds
}
