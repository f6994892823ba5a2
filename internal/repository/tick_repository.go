package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tick-replay/internal/database"
	"github.com/yourusername/tick-replay/internal/models"
)

const (
	// MaxQueryLimit caps the number of records a single query may request.
	MaxQueryLimit = 1_000_000

	errScanTick = "failed to scan tick: %w"
)

// PostgresTickRepository implements TickRepository for PostgreSQL
type PostgresTickRepository struct {
	db *database.DB
}

// NewPostgresTickRepository creates a new tick repository
func NewPostgresTickRepository(db *database.DB) TickRepository {
	return &PostgresTickRepository{db: db}
}

// GetTicksByRange retrieves ticks for a symbol within [start, end)
func (r *PostgresTickRepository) GetTicksByRange(ctx context.Context, symbol string, start, end time.Time) ([]models.Tick, error) {
	query := `
		SELECT timestamp, symbol, price::text, quantity::text, side, trade_id, is_buyer_maker
		FROM trades
		WHERE symbol = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC, trade_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query ticks for %s [%s, %s): %v",
			models.ErrUnavailable, symbol, start.Format(time.RFC3339), end.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanTicks(rows)
}

// GetRecentTicks retrieves the most recent count ticks for a symbol, ascending
func (r *PostgresTickRepository) GetRecentTicks(ctx context.Context, symbol string, count int) ([]models.Tick, error) {
	if count <= 0 {
		return nil, nil
	}
	if count > MaxQueryLimit {
		count = MaxQueryLimit
	}

	query := `
		SELECT timestamp, symbol, price::text, quantity::text, side, trade_id, is_buyer_maker
		FROM trades
		WHERE symbol = $1
		ORDER BY timestamp DESC, trade_id DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, symbol, count)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query recent ticks for %s: %v", models.ErrUnavailable, symbol, err)
	}
	defer rows.Close()

	ticks, err := scanTicks(rows)
	if err != nil {
		return nil, err
	}

	// Query returns newest-first; replay needs ascending order.
	for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
		ticks[i], ticks[j] = ticks[j], ticks[i]
	}
	return ticks, nil
}

// GetBars aggregates ticks within [start, end) into timeframe bars
func (r *PostgresTickRepository) GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end time.Time) ([]models.Bar, error) {
	alignedStart := tf.Align(start)
	alignedEnd := tf.Align(end).Add(tf.Duration)

	ticks, err := r.GetTicksByRange(ctx, symbol, alignedStart, alignedEnd)
	if err != nil {
		return nil, err
	}
	return models.BarsFromTicks(ticks, tf), nil
}

// GetRecentBars aggregates the most recent count timeframe windows holding data
func (r *PostgresTickRepository) GetRecentBars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error) {
	if count <= 0 {
		return nil, nil
	}

	latest, err := r.latestTimestamp(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}

	end := tf.Align(*latest).Add(tf.Duration)
	start := end.Add(-time.Duration(count) * tf.Duration)
	return r.GetBars(ctx, symbol, tf, start, end)
}

// DataSummary reports totals, per-symbol counts, time bounds and price bounds
func (r *PostgresTickRepository) DataSummary(ctx context.Context) (*models.DataSummary, error) {
	query := `
		SELECT symbol, COUNT(*), MIN(timestamp), MAX(timestamp), MIN(price)::text, MAX(price)::text
		FROM trades
		GROUP BY symbol
		ORDER BY symbol ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query data summary: %v", models.ErrUnavailable, err)
	}
	defer rows.Close()

	summary := &models.DataSummary{}
	for rows.Next() {
		var s models.SymbolSummary
		var minPrice, maxPrice *string
		if err := rows.Scan(&s.Symbol, &s.RecordCount, &s.EarliestTime, &s.LatestTime, &minPrice, &maxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan symbol summary: %w", err)
		}
		if minPrice != nil {
			p, err := decimal.NewFromString(*minPrice)
			if err != nil {
				return nil, fmt.Errorf("invalid min price for %s: %w", s.Symbol, err)
			}
			s.MinPrice = &p
		}
		if maxPrice != nil {
			p, err := decimal.NewFromString(*maxPrice)
			if err != nil {
				return nil, fmt.Errorf("invalid max price for %s: %w", s.Symbol, err)
			}
			s.MaxPrice = &p
		}

		summary.Symbols = append(summary.Symbols, s)
		summary.TotalRecords += s.RecordCount
		if s.EarliestTime != nil && (summary.EarliestTime == nil || s.EarliestTime.Before(*summary.EarliestTime)) {
			summary.EarliestTime = s.EarliestTime
		}
		if s.LatestTime != nil && (summary.LatestTime == nil || s.LatestTime.After(*summary.LatestTime)) {
			summary.LatestTime = s.LatestTime
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed reading data summary: %v", models.ErrUnavailable, err)
	}

	summary.SymbolCount = len(summary.Symbols)
	return summary, nil
}

func (r *PostgresTickRepository) latestTimestamp(ctx context.Context, symbol string) (*time.Time, error) {
	query := `SELECT MAX(timestamp) FROM trades WHERE symbol = $1`

	var latest *time.Time
	if err := r.db.GetPool().QueryRow(ctx, query, symbol).Scan(&latest); err != nil {
		return nil, fmt.Errorf("%w: failed to query latest timestamp for %s: %v", models.ErrUnavailable, symbol, err)
	}
	return latest, nil
}

type tickRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTicks(rows tickRows) ([]models.Tick, error) {
	var ticks []models.Tick
	for rows.Next() {
		var (
			tick          models.Tick
			price, qty    string
			side          string
		)
		if err := rows.Scan(&tick.Timestamp, &tick.Symbol, &price, &qty, &side, &tick.TradeID, &tick.IsBuyerMaker); err != nil {
			return nil, fmt.Errorf(errScanTick, err)
		}

		var err error
		if tick.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf(errScanTick, err)
		}
		if tick.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf(errScanTick, err)
		}
		if tick.Side, err = models.ParseTradeSide(side); err != nil {
			return nil, fmt.Errorf(errScanTick, err)
		}
		tick.Timestamp = tick.Timestamp.UTC()
		ticks = append(ticks, tick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed reading ticks: %v", models.ErrUnavailable, err)
	}
	return ticks, nil
}
