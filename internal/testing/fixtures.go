package testing

import (
	"github.com/crudeops/wtidesk/internal/domain"
)

// NewPriceFixtures returns two weeks of overlapping EIA, FRED and Yahoo
// observations spanning the January/February 2026 month boundary
func NewPriceFixtures() []domain.PricePoint {
	eia := []struct {
		date  string
		value float64
	}{
		{"2026-01-26", 61.10},
		{"2026-01-27", 61.50},
		{"2026-01-28", 62.00},
		{"2026-01-29", 62.40},
		{"2026-01-30", 63.00},
		{"2026-02-02", 62.20},
		{"2026-02-03", 62.80},
		{"2026-02-04", 63.40},
	}

	points := make([]domain.PricePoint, 0, len(eia)*3+1)
	for _, p := range eia {
		points = append(points,
			domain.PricePoint{Date: p.date, Value: domain.Float(p.value), Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot, Unit: domain.DefaultUnit},
			domain.PricePoint{Date: p.date, Value: domain.Float(p.value + 0.05), Source: domain.SourceFRED, PriceType: domain.PriceTypeSpotDCOILWTICO, Unit: domain.DefaultUnit},
			domain.PricePoint{Date: p.date, Value: domain.Float(p.value + 0.30), Source: domain.SourceYahoo, PriceType: domain.PriceTypeFuturesCL, Unit: domain.DefaultUnit},
		)
	}

	// A day the feed reported without a price
	points = append(points, domain.PricePoint{Date: "2026-02-05", Value: nil, Source: domain.SourceEIA, PriceType: domain.PriceTypeCushingSpot})
	return points
}

// NewAnnualFixtures returns NYMEX settlements across three years for analytics tests
func NewAnnualFixtures() []domain.PricePoint {
	rows := []struct {
		date   string
		value  float64
		source domain.PriceSource
	}{
		{"2023-03-01", 80.00, domain.SourceNYMEX},
		{"2023-09-01", 90.00, domain.SourceNYMEX},
		{"2024-03-01", 70.00, domain.SourceNYMEX},
		{"2024-06-03", 72.00, domain.SourceNYMEX},
		{"2024-06-03", 71.50, domain.SourceEIA},
		{"2024-09-03", 74.00, domain.SourceNYMEXEIA},
		{"2025-02-03", 66.333, domain.SourceEIA},
		{"2025-02-03", 99.00, domain.SourceFRED},
	}

	points := make([]domain.PricePoint, 0, len(rows))
	for _, r := range rows {
		priceType := domain.PriceTypeFuturesCL
		if r.source == domain.SourceEIA {
			priceType = domain.PriceTypeCushingSpot
		}
		if r.source == domain.SourceFRED {
			priceType = domain.PriceTypeSpotDCOILWTICO
		}
		points = append(points, domain.PricePoint{
			Date: r.date, Value: domain.Float(r.value), Source: r.source, PriceType: priceType, Unit: domain.DefaultUnit,
		})
	}
	return points
}
