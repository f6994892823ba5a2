package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/backtest"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/strategy"
)

// Bar preview limits.
const (
	defaultPreviewBars = 100
	maxPreviewBars     = 1000
)

// StrategyDetail pairs a strategy listing with its record capabilities.
type StrategyDetail struct {
	strategy.Info
	Capability strategy.Capability `json:"capability"`
}

// BatchOutcome is the per-configuration result of a best-effort batch run.
type BatchOutcome struct {
	Config backtest.Config
	Result *backtest.Result
	Err    error
}

// BacktestService exposes the application operations: data inspection,
// strategy listing, configuration validation and backtest execution.
type BacktestService struct {
	data   *MarketDataService
	engine *backtest.Engine
	logger *logrus.Logger
}

// NewBacktestService wires the engine over the cached data source.
func NewBacktestService(data *MarketDataService, logger *logrus.Logger) (*BacktestService, error) {
	if data == nil {
		return nil, fmt.Errorf("market data service is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	engine, err := backtest.NewEngine(data, logger)
	if err != nil {
		return nil, err
	}
	return &BacktestService{data: data, engine: engine, logger: logger}, nil
}

// DataInfo reports stored coverage across all symbols.
func (s *BacktestService) DataInfo(ctx context.Context) (*models.DataSummary, error) {
	return s.data.Summary(ctx)
}

// ListStrategies returns every registered strategy with its capabilities.
func (s *BacktestService) ListStrategies() []StrategyDetail {
	infos := strategy.List()
	details := make([]StrategyDetail, 0, len(infos))
	for _, info := range infos {
		// Registry ids always resolve; a fresh instance carries defaults.
		instance, err := strategy.New(info.ID)
		if err != nil {
			continue
		}
		details = append(details, StrategyDetail{Info: info, Capability: instance.Capability()})
	}
	return details
}

// StrategyCapability returns the capabilities of one strategy.
func (s *BacktestService) StrategyCapability(id string) (strategy.Capability, error) {
	instance, err := strategy.New(id)
	if err != nil {
		return strategy.Capability{}, err
	}
	return instance.Capability(), nil
}

// ValidateConfig checks a backtest configuration without running it: the
// static rules first, then that the symbol actually holds stored data.
func (s *BacktestService) ValidateConfig(ctx context.Context, cfg backtest.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	instance, err := strategy.New(cfg.StrategyID)
	if err != nil {
		return err
	}
	if err := instance.Initialize(cfg.StrategyParams); err != nil {
		return err
	}

	summary, err := s.data.Summary(ctx)
	if err != nil {
		return err
	}
	if !summary.HasSufficientData(cfg.Symbol, 1) {
		return fmt.Errorf("%w: no stored data for symbol %q", models.ErrValidation, cfg.Symbol)
	}
	return nil
}

// Ticks returns raw ticks for a symbol within [start, end).
func (s *BacktestService) Ticks(ctx context.Context, symbol string, start, end time.Time) ([]models.Tick, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", models.ErrValidation)
	}
	return s.data.TicksByRange(ctx, symbol, start, end)
}

// PreviewBars aggregates the most recent bars for a symbol on the given
// timeframe, clamped to a bounded preview size.
func (s *BacktestService) PreviewBars(ctx context.Context, symbol, timeframeKey string, count int) ([]models.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrValidation)
	}
	tf, err := models.ParseTimeframe(timeframeKey)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = defaultPreviewBars
	}
	if count > maxPreviewBars {
		count = maxPreviewBars
	}
	return s.data.RecentBars(ctx, symbol, tf, count)
}

// Run executes one backtest end to end.
func (s *BacktestService) Run(ctx context.Context, cfg backtest.Config) (*backtest.Result, error) {
	return s.engine.Run(ctx, cfg)
}

// RunBatch executes several configurations sequentially, best effort: one
// failing run is reported in its outcome and does not abort the rest. Only
// context cancellation stops the batch early.
func (s *BacktestService) RunBatch(ctx context.Context, configs []backtest.Config) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(configs))
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, BatchOutcome{Config: cfg, Err: err})
			continue
		}
		result, err := s.engine.Run(ctx, cfg)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"symbol":   cfg.Symbol,
				"strategy": cfg.StrategyID,
			}).WithError(err).Warn("Batch run entry failed")
		}
		outcomes = append(outcomes, BatchOutcome{Config: cfg, Result: result, Err: err})
	}
	return outcomes
}

// Ping checks downstream connectivity used by readiness probes.
func (s *BacktestService) Ping(ctx context.Context) error {
	return s.data.Ping(ctx)
}
