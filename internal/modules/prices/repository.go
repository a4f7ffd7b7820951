package prices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crudeops/wtidesk/internal/database"
	"github.com/crudeops/wtidesk/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles price database operations in prices.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// Upsert stores observations, replacing the value of an existing
// (date, source, price_type) row. Points without a value are skipped.
// Returns the number of rows written.
func (r *Repository) Upsert(ctx context.Context, points []domain.PricePoint) (int, error) {
	saved := 0
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO oil_prices (date, source, price_type, value, unit)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(date, source, price_type) DO UPDATE SET
				value = excluded.value,
				unit = excluded.unit
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if p.Value == nil {
				continue
			}
			unit := p.Unit
			if unit == "" {
				unit = domain.DefaultUnit
			}
			if _, err := stmt.ExecContext(ctx, p.Date, string(p.Source), string(p.PriceType), *p.Value, unit); err != nil {
				return fmt.Errorf("failed to upsert %s %s %s: %w", p.Date, p.Source, p.PriceType, err)
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Int("saved", saved).Int("received", len(points)).Msg("Upserted price points")
	return saved, nil
}

// Latest returns every observation dated on or after since, newest first
func (r *Repository) Latest(ctx context.Context, since string) ([]domain.PricePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, source, price_type, value, unit
		FROM oil_prices
		WHERE date >= ?
		ORDER BY date DESC, source, price_type
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var p domain.PricePoint
		var value sql.NullFloat64
		if err := rows.Scan(&p.Date, &p.Source, &p.PriceType, &value, &p.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		if value.Valid {
			p.Value = domain.Float(value.Float64)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Values returns the non-null values of a source within [from, to], oldest first
func (r *Repository) Values(ctx context.Context, source string, from, to string) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT value
		FROM oil_prices
		WHERE source = ?
		  AND date >= ? AND date <= ?
		  AND value IS NOT NULL
		ORDER BY date ASC
	`, source, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s values: %w", source, err)
	}
	defer rows.Close()

	values := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DailySeries returns one price per day before the given date, picking the
// most authoritative source present that day
// (NYMEX, NYMEX_EIA, CHART_EXPORT, INVESTING_COM, EIA, then anything else).
// An empty from means no lower bound.
func (r *Repository) DailySeries(ctx context.Context, from, before string) ([]DailyPrice, error) {
	query := `
		WITH ranked_prices AS (
			SELECT
				date,
				value,
				source,
				ROW_NUMBER() OVER (
					PARTITION BY date
					ORDER BY CASE source
						WHEN 'NYMEX' THEN 1
						WHEN 'NYMEX_EIA' THEN 2
						WHEN 'CHART_EXPORT' THEN 3
						WHEN 'INVESTING_COM' THEN 4
						WHEN 'EIA' THEN 5
						ELSE 6
					END, source, price_type
				) AS rn
			FROM oil_prices
			WHERE value IS NOT NULL
			  AND date < ?
			  AND date >= ?
		)
		SELECT date, value, source
		FROM ranked_prices
		WHERE rn = 1
		ORDER BY date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, before, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily series: %w", err)
	}
	defer rows.Close()

	series := []DailyPrice{}
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Date, &p.Price, &p.Source); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// YearValues returns non-null values from the given sources dated before
// the given date, grouped by calendar year in ascending year order
func (r *Repository) YearValues(ctx context.Context, sources []domain.PriceSource, before string) ([]int, map[int][]float64, error) {
	if len(sources) == 0 {
		return nil, map[int][]float64{}, nil
	}

	args := make([]interface{}, 0, len(sources)+1)
	placeholders := make([]string, len(sources))
	for i, s := range sources {
		placeholders[i] = "?"
		args = append(args, string(s))
	}
	args = append(args, before)

	query := fmt.Sprintf(`
		SELECT substr(date, 1, 4) AS year, value
		FROM oil_prices
		WHERE value IS NOT NULL
		  AND source IN (%s)
		  AND date < ?
		ORDER BY date ASC
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query annual values: %w", err)
	}
	defer rows.Close()

	years := []int{}
	byYear := make(map[int][]float64)
	for rows.Next() {
		var yearStr string
		var v float64
		if err := rows.Scan(&yearStr, &v); err != nil {
			return nil, nil, fmt.Errorf("failed to scan annual value: %w", err)
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			r.log.Warn().Str("year", yearStr).Msg("Skipping row with malformed date")
			continue
		}
		if _, seen := byYear[year]; !seen {
			years = append(years, year)
		}
		byYear[year] = append(byYear[year], v)
	}
	return years, byYear, rows.Err()
}

// SaveCalculation inserts or refreshes a derived value
func (r *Repository) SaveCalculation(ctx context.Context, c Calculation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_calculations (month, calculation_type, value, source, trading_days)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(month, calculation_type, source) DO UPDATE SET
			value = excluded.value,
			trading_days = excluded.trading_days,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
	`, c.Month, c.Type, c.Value, c.Source, c.TradingDays)
	if err != nil {
		return fmt.Errorf("failed to save %s for %s/%s: %w", c.Type, c.Month, c.Source, err)
	}
	return nil
}

// GetCalculation returns a stored calculation, or nil if none exists
func (r *Repository) GetCalculation(ctx context.Context, month, calcType, source string) (*Calculation, error) {
	var c Calculation
	err := r.db.QueryRowContext(ctx, `
		SELECT month, calculation_type, value, source, trading_days, updated_at
		FROM price_calculations
		WHERE month = ? AND calculation_type = ? AND source = ?
	`, month, calcType, source).Scan(&c.Month, &c.Type, &c.Value, &c.Source, &c.TradingDays, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculation: %w", err)
	}
	return &c, nil
}

// RecordSyncRun stores the outcome of a sync run
func (r *Repository) RecordSyncRun(ctx context.Context, run SyncRun) error {
	var errText interface{}
	if run.Error != "" {
		errText = run.Error
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, saved, error)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Saved, errText)
	if err != nil {
		return fmt.Errorf("failed to record sync run %s: %w", run.ID, err)
	}
	return nil
}

// LastSyncRun returns the most recent sync run, or nil if none has been recorded
func (r *Repository) LastSyncRun(ctx context.Context) (*SyncRun, error) {
	var run SyncRun
	var errText sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, saved, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Saved, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync run: %w", err)
	}
	run.Error = errText.String
	return &run, nil
}
