package backtest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/strategy"
)

type stubSource struct {
	ticks []models.Tick
	bars  []models.Bar
	err   error

	tickCalls    int
	barCalls     int
	lastBarCount int
}

func (s *stubSource) RecentTicks(ctx context.Context, symbol string, count int) ([]models.Tick, error) {
	s.tickCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ticks, nil
}

func (s *stubSource) RecentBars(ctx context.Context, symbol string, timeframe models.Timeframe, count int) ([]models.Bar, error) {
	s.barCalls++
	s.lastBarCount = count
	if s.err != nil {
		return nil, s.err
	}
	return s.bars, nil
}

func tickSeries(prices ...string) []models.Tick {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ticks := make([]models.Tick, 0, len(prices))
	for i, p := range prices {
		ticks = append(ticks, models.Tick{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Symbol:    "BTCUSDT",
			Price:     d(p),
			Quantity:  decimal.NewFromInt(1),
			Side:      models.TradeSideBuy,
			TradeID:   fmt.Sprintf("t%d", i),
		})
	}
	return ticks
}

func smaConfig() Config {
	return Config{
		Symbol:         "BTCUSDT",
		DataCount:      1000,
		StrategyID:     strategy.IDSMACrossover,
		StrategyParams: map[string]string{"short_period": "2", "long_period": "4"},
		InitialCapital: d("10000"),
		CommissionRate: d("0.001"),
	}
}

func TestEngineRunProducesTrades(t *testing.T) {
	source := &stubSource{ticks: tickSeries("100", "100", "100", "100", "110", "120", "130", "120", "100", "80", "70")}
	engine, err := NewEngine(source, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), smaConfig())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RecordsReplayed != 11 {
		t.Fatalf("expected 11 records replayed, got %d", result.RecordsReplayed)
	}
	if result.Metrics.TotalTrades != 2 {
		t.Fatalf("expected one round trip (2 fills), got %d", result.Metrics.TotalTrades)
	}
	if result.UsedBars {
		t.Fatal("sma strategy must replay raw ticks")
	}
	if len(result.EquityCurve) != 11 {
		t.Fatalf("expected one equity sample per record, got %d", len(result.EquityCurve))
	}
	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("result must carry a run id")
	}
}

func TestEngineDeterminism(t *testing.T) {
	prices := []string{"100", "100", "100", "100", "110", "120", "130", "120", "100", "80", "70"}

	run := func() *Result {
		source := &stubSource{ticks: tickSeries(prices...)}
		engine, err := NewEngine(source, nil)
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		result, err := engine.Run(context.Background(), smaConfig())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result
	}

	first := run()
	second := run()

	if first.RunID == second.RunID {
		t.Fatal("each run must get a fresh run id")
	}
	if !first.FinalValue.Equal(second.FinalValue) {
		t.Fatalf("final values differ: %s vs %s", first.FinalValue, second.FinalValue)
	}
	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("trade counts differ: %d vs %d", len(first.Trades), len(second.Trades))
	}
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		if a.Side != b.Side || !a.Price.Equal(b.Price) || !a.Quantity.Equal(b.Quantity) {
			t.Fatalf("trade %d differs: %+v vs %+v", i, a, b)
		}
	}
	if first.Metrics.TotalReturn != second.Metrics.TotalReturn {
		t.Fatalf("total return differs: %f vs %f", first.Metrics.TotalReturn, second.Metrics.TotalReturn)
	}
}

func TestEngineEmptyDataYieldsZeroTrades(t *testing.T) {
	engine, err := NewEngine(&stubSource{}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), smaConfig())
	if err != nil {
		t.Fatalf("empty data must not fail the run: %v", err)
	}
	if result.Metrics.TotalTrades != 0 {
		t.Fatalf("expected zero trades, got %d", result.Metrics.TotalTrades)
	}
	if !result.FinalValue.Equal(d("10000")) {
		t.Fatalf("expected final value to equal initial capital, got %s", result.FinalValue)
	}
	if result.Metrics.TotalReturn != 0 {
		t.Fatalf("expected zero return, got %f", result.Metrics.TotalReturn)
	}
}

func TestEngineCancellationAbortsReplay(t *testing.T) {
	source := &stubSource{ticks: tickSeries("100", "101", "102")}
	engine, err := NewEngine(source, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.Run(ctx, smaConfig())
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Fatal("aborted run must not produce a result")
	}
}

func TestEngineValidationFailsFast(t *testing.T) {
	source := &stubSource{}
	engine, err := NewEngine(source, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	cfg := smaConfig()
	cfg.DataCount = 0
	if _, err := engine.Run(context.Background(), cfg); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	cfg = smaConfig()
	cfg.StrategyID = "momentum"
	if _, err := engine.Run(context.Background(), cfg); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for unknown strategy, got %v", err)
	}

	if source.tickCalls != 0 || source.barCalls != 0 {
		t.Fatal("invalid configuration must never reach the data source")
	}
}

func TestEngineStrategyInitFailure(t *testing.T) {
	engine, err := NewEngine(&stubSource{}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	cfg := smaConfig()
	cfg.StrategyParams = map[string]string{"short_period": "oops"}
	if _, err := engine.Run(context.Background(), cfg); !errors.Is(err, models.ErrStrategy) {
		t.Fatalf("expected strategy error, got %v", err)
	}
}

func TestEngineDataUnavailable(t *testing.T) {
	source := &stubSource{err: fmt.Errorf("%w: connection refused", models.ErrUnavailable)}
	engine, err := NewEngine(source, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if _, err := engine.Run(context.Background(), smaConfig()); !errors.Is(err, models.ErrUnavailable) {
		t.Fatalf("expected data unavailable error, got %v", err)
	}
}

func TestEngineUsesBarsForBarPreferringStrategy(t *testing.T) {
	tf, _ := models.ParseTimeframe("1m")
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, 5)
	for i, close := range []string{"100", "101", "102", "103", "104"} {
		bars = append(bars, models.Bar{
			IntervalStart: base.Add(time.Duration(i) * tf.Duration),
			Symbol:        "BTCUSDT",
			Open:          d(close),
			High:          d(close),
			Low:           d(close),
			Close:         d(close),
			Volume:        decimal.NewFromInt(1),
			TradeCount:    1,
		})
	}
	source := &stubSource{bars: bars}
	engine, err := NewEngine(source, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	cfg := smaConfig()
	cfg.StrategyID = strategy.IDRSI
	cfg.StrategyParams = nil
	cfg.DataCount = 1000

	result, err := engine.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.UsedBars || result.Timeframe != "1m" {
		t.Fatalf("expected bar replay on 1m, got used_bars=%v timeframe=%q", result.UsedBars, result.Timeframe)
	}
	if source.tickCalls != 0 {
		t.Fatal("bar replay must not load ticks")
	}
	// 1000 requested records map to max(1000/50, 100) bars.
	if source.lastBarCount != 100 {
		t.Fatalf("expected 100 bars requested, got %d", source.lastBarCount)
	}
}

func TestEngineFallsBackToTicksWhenBarsEmpty(t *testing.T) {
	source := &stubSource{ticks: tickSeries("100", "101", "102")}
	engine, err := NewEngine(source, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	cfg := smaConfig()
	cfg.StrategyID = strategy.IDRSI
	cfg.StrategyParams = nil

	result, err := engine.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.UsedBars {
		t.Fatal("empty bar window must fall back to ticks")
	}
	if source.barCalls != 1 || source.tickCalls != 1 {
		t.Fatalf("expected one bar probe then one tick load, got bars=%d ticks=%d", source.barCalls, source.tickCalls)
	}
	if result.RecordsReplayed != 3 {
		t.Fatalf("expected 3 ticks replayed, got %d", result.RecordsReplayed)
	}
}
