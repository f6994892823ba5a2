// Package service wires repositories, the tiered cache and the backtest
// engine into the operations exposed by the CLI and the HTTP API.
package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/cache"
	"github.com/yourusername/tick-replay/internal/metrics"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/repository"
)

const (
	summaryKey        = "data-summary"
	summaryExpiration = 30 * time.Second
)

// MarketDataService serves market records from the persistent store through
// the two-tier cache. It is the single data source for backtest replays and
// for the read endpoints of the API.
type MarketDataService struct {
	repo    repository.TickRepository
	tiered  *cache.Tiered
	summary *gocache.Cache
	logger  *logrus.Logger
}

// NewMarketDataService creates the service. The data summary is memoized
// briefly in-process since it scans the whole trades table.
func NewMarketDataService(repo repository.TickRepository, tiered *cache.Tiered, logger *logrus.Logger) *MarketDataService {
	if logger == nil {
		logger = logrus.New()
	}
	return &MarketDataService{
		repo:    repo,
		tiered:  tiered,
		summary: gocache.New(summaryExpiration, time.Minute),
		logger:  logger,
	}
}

// TicksByRange returns ticks for a symbol within [start, end), cached.
func (s *MarketDataService) TicksByRange(ctx context.Context, symbol string, start, end time.Time) ([]models.Tick, error) {
	key := cache.NewRangeKey(symbol, cache.ResolutionTick, start, end)
	return cache.GetOrLoad(ctx, s.tiered, key, func(ctx context.Context) ([]models.Tick, error) {
		metrics.RepositoryQueriesTotal.WithLabelValues(cache.ResolutionTick).Inc()
		return s.repo.GetTicksByRange(ctx, symbol, start, end)
	})
}

// RecentTicks returns the most recent count ticks for a symbol, cached.
func (s *MarketDataService) RecentTicks(ctx context.Context, symbol string, count int) ([]models.Tick, error) {
	key := cache.NewRecentKey(symbol, cache.ResolutionTick, count)
	return cache.GetOrLoad(ctx, s.tiered, key, func(ctx context.Context) ([]models.Tick, error) {
		metrics.RepositoryQueriesTotal.WithLabelValues(cache.ResolutionTick).Inc()
		return s.repo.GetRecentTicks(ctx, symbol, count)
	})
}

// BarsByRange returns aggregated bars for a symbol within [start, end), cached.
func (s *MarketDataService) BarsByRange(ctx context.Context, symbol string, tf models.Timeframe, start, end time.Time) ([]models.Bar, error) {
	key := cache.NewRangeKey(symbol, tf.Key, start, end)
	return cache.GetOrLoad(ctx, s.tiered, key, func(ctx context.Context) ([]models.Bar, error) {
		metrics.RepositoryQueriesTotal.WithLabelValues(tf.Key).Inc()
		return s.repo.GetBars(ctx, symbol, tf, start, end)
	})
}

// RecentBars returns the most recent count bars for a symbol, cached.
func (s *MarketDataService) RecentBars(ctx context.Context, symbol string, tf models.Timeframe, count int) ([]models.Bar, error) {
	key := cache.NewRecentKey(symbol, tf.Key, count)
	return cache.GetOrLoad(ctx, s.tiered, key, func(ctx context.Context) ([]models.Bar, error) {
		metrics.RepositoryQueriesTotal.WithLabelValues(tf.Key).Inc()
		return s.repo.GetRecentBars(ctx, symbol, tf, count)
	})
}

// Summary reports stored coverage across all symbols, memoized in-process.
func (s *MarketDataService) Summary(ctx context.Context) (*models.DataSummary, error) {
	if cached, ok := s.summary.Get(summaryKey); ok {
		return cached.(*models.DataSummary), nil
	}

	summary, err := s.repo.DataSummary(ctx)
	if err != nil {
		return nil, err
	}
	s.summary.SetDefault(summaryKey, summary)
	return summary, nil
}

// InvalidateSummary drops the memoized data summary.
func (s *MarketDataService) InvalidateSummary() {
	s.summary.Delete(summaryKey)
}

// Ping checks cache tier connectivity.
func (s *MarketDataService) Ping(ctx context.Context) error {
	if s.tiered == nil {
		return nil
	}
	return s.tiered.Ping(ctx)
}
