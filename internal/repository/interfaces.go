// Package repository provides data access for persisted market records.
package repository

import (
	"context"
	"time"

	"github.com/yourusername/tick-replay/internal/models"
)

// TickRepository is the read-only contract against the persistent trade store.
// All queries return results ordered by ascending timestamp; an empty range is
// a valid, non-error result.
type TickRepository interface {
	// GetTicksByRange returns ticks for a symbol within [start, end).
	GetTicksByRange(ctx context.Context, symbol string, start, end time.Time) ([]models.Tick, error)

	// GetRecentTicks returns the most recent count ticks for a symbol.
	GetRecentTicks(ctx context.Context, symbol string, count int) ([]models.Tick, error)

	// GetBars aggregates ticks within [start, end) into bars on the timeframe grid.
	GetBars(ctx context.Context, symbol string, tf models.Timeframe, start, end time.Time) ([]models.Bar, error)

	// GetRecentBars aggregates the most recent count windows that hold data.
	GetRecentBars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error)

	// DataSummary reports stored coverage across all symbols.
	DataSummary(ctx context.Context) (*models.DataSummary, error)
}
