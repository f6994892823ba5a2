package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/metrics"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/strategy"
)

// State tracks engine progress through one run
type State int

const (
	StateConfiguring State = iota
	StateLoading
	StateReplaying
	StateFinalized
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateLoading:
		return "loading"
	case StateReplaying:
		return "replaying"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Minimum number of bars requested when a strategy prefers candles.
const minBarCount = 100

// DataSource supplies market records for replay. Implementations return
// records in ascending timestamp order, ties resolved by trade id.
type DataSource interface {
	RecentTicks(ctx context.Context, symbol string, count int) ([]models.Tick, error)
	RecentBars(ctx context.Context, symbol string, timeframe models.Timeframe, count int) ([]models.Bar, error)
}

// Engine orchestrates backtest runs: it validates the configuration, loads
// records, replays them through the strategy and produces an immutable
// result. The same configuration over the same stored data always yields the
// same result.
type Engine struct {
	source DataSource
	logger *logrus.Logger
}

// NewEngine creates a backtest engine over the given data source.
func NewEngine(source DataSource, logger *logrus.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("data source is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{source: source, logger: logger}, nil
}

// Run executes one backtest. Errors wrap the sentinel for their kind:
// models.ErrValidation for bad configuration, models.ErrStrategy for
// strategy setup failures, models.ErrUnavailable for data loading failures.
// A cancelled context aborts the replay without producing a result.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	startedAt := time.Now()
	state := StateConfiguring
	log := e.logger.WithFields(logrus.Fields{
		"symbol":   cfg.Symbol,
		"strategy": cfg.StrategyID,
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strat, err := strategy.New(cfg.StrategyID)
	if err != nil {
		return nil, err
	}
	if err := strat.Initialize(cfg.StrategyParams); err != nil {
		return nil, err
	}

	metrics.BacktestsStartedTotal.Inc()
	timer := prometheus.NewTimer(metrics.BacktestDurationSeconds)
	defer timer.ObserveDuration()

	state = e.transition(log, state, StateLoading)
	ticks, bars, timeframe, err := e.load(ctx, cfg, strat.Capability())
	if err != nil {
		e.fail(log, state, err)
		return nil, err
	}
	usedBars := len(bars) > 0

	state = e.transition(log, state, StateReplaying)
	portfolio := NewPortfolio(cfg.InitialCapital, e.logger)
	curve := EquityCurve{}
	lastPrice := decimal.Zero
	replayed := 0

	if usedBars {
		for _, bar := range bars {
			if err := ctx.Err(); err != nil {
				e.fail(log, state, err)
				return nil, fmt.Errorf("replay aborted: %w", err)
			}
			signal := strat.OnBar(bar)
			e.applySignal(log, portfolio, signal, cfg, bar.Close, bar.IntervalStart)
			lastPrice = bar.Close
			curve.Record(bar.IntervalStart, portfolio.Equity(lastPrice))
			replayed++
		}
	} else {
		for _, tick := range ticks {
			if err := ctx.Err(); err != nil {
				e.fail(log, state, err)
				return nil, fmt.Errorf("replay aborted: %w", err)
			}
			signal := strat.OnTick(tick)
			e.applySignal(log, portfolio, signal, cfg, tick.Price, tick.Timestamp)
			lastPrice = tick.Price
			curve.Record(tick.Timestamp, portfolio.Equity(lastPrice))
			replayed++
		}
	}
	metrics.RecordsReplayedTotal.Add(float64(replayed))

	state = e.transition(log, state, StateFinalized)
	finalValue := cfg.InitialCapital
	if replayed > 0 {
		finalValue = portfolio.Equity(lastPrice)
	}

	result := &Result{
		RunID:           uuid.New(),
		StrategyID:      cfg.StrategyID,
		StrategyName:    strat.Name(),
		Symbol:          cfg.Symbol,
		RecordsReplayed: replayed,
		UsedBars:        usedBars,
		Timeframe:       timeframe,
		InitialCapital:  cfg.InitialCapital,
		FinalValue:      finalValue,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
		Trades:          portfolio.Ledger(),
		EquityCurve:     curve,
		Metrics:         CalculateMetrics(curve, portfolio.Ledger(), cfg.InitialCapital, cfg.RiskFreeRate),
	}

	metrics.BacktestsCompletedTotal.WithLabelValues("success").Inc()
	log.WithFields(logrus.Fields{
		"run_id":      result.RunID,
		"records":     replayed,
		"trades":      result.Metrics.TotalTrades,
		"final_value": result.FinalValue,
	}).Info("Backtest run finished")
	return result, nil
}

// load fetches bars when the strategy prefers them, falling back to raw
// ticks. An empty bar window falls through to ticks when the strategy
// accepts them; a strategy that accepts neither record type replays nothing.
func (e *Engine) load(ctx context.Context, cfg Config, capability strategy.Capability) ([]models.Tick, []models.Bar, string, error) {
	if capability.AcceptsBars && capability.PreferredTimeframe != nil {
		barCount := cfg.DataCount / 50
		if barCount < minBarCount {
			barCount = minBarCount
		}
		bars, err := e.source.RecentBars(ctx, cfg.Symbol, *capability.PreferredTimeframe, barCount)
		if err != nil {
			return nil, nil, "", fmt.Errorf("loading bars: %w", err)
		}
		if len(bars) > 0 {
			return nil, bars, capability.PreferredTimeframe.Key, nil
		}
	}

	if !capability.AcceptsTicks {
		return nil, nil, "", nil
	}
	ticks, err := e.source.RecentTicks(ctx, cfg.Symbol, cfg.DataCount)
	if err != nil {
		return nil, nil, "", fmt.Errorf("loading ticks: %w", err)
	}
	return ticks, nil, "", nil
}

func (e *Engine) applySignal(log *logrus.Entry, p *Portfolio, signal strategy.Signal, cfg Config, price decimal.Decimal, ts time.Time) {
	if signal == strategy.SignalHold {
		return
	}
	entry, ok := p.ApplyFill(signal, cfg.Symbol, price, ts, cfg.CommissionRate)
	if !ok {
		return
	}
	log.WithFields(logrus.Fields{
		"side":     entry.Side,
		"quantity": entry.Quantity,
		"price":    entry.Price,
	}).Debug("Fill applied")
}

func (e *Engine) transition(log *logrus.Entry, from, to State) State {
	log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("Engine state transition")
	return to
}

func (e *Engine) fail(log *logrus.Entry, from State, err error) {
	metrics.BacktestsCompletedTotal.WithLabelValues("failure").Inc()
	log.WithFields(logrus.Fields{"from": from.String(), "to": StateFailed.String()}).WithError(err).Warn("Backtest run failed")
}
