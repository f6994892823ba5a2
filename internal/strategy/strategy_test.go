package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tick-replay/internal/models"
)

func priceTick(price float64) models.Tick {
	return models.Tick{
		Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Symbol:    "BTCUSDT",
		Price:     decimal.NewFromFloat(price),
		Quantity:  decimal.NewFromInt(1),
		Side:      models.TradeSideBuy,
		TradeID:   "t",
	}
}

func feed(s Strategy, prices []float64) []Signal {
	signals := make([]Signal, 0, len(prices))
	for _, p := range prices {
		signals = append(signals, s.OnTick(priceTick(p)))
	}
	return signals
}

func TestSMACrossoverGoldenAndDeathCross(t *testing.T) {
	s := NewSMACrossover()
	if err := s.Initialize(map[string]string{"short_period": "2", "long_period": "4"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Flat, then a rally (golden cross), then a slump (death cross).
	prices := []float64{100, 100, 100, 100, 110, 120, 130, 120, 100, 80, 70}
	signals := feed(s, prices)

	buys, sells := 0, 0
	sawBuyBeforeSell := false
	for i, sig := range signals {
		switch sig {
		case SignalBuy:
			buys++
			if sells == 0 {
				sawBuyBeforeSell = true
			}
		case SignalSell:
			sells++
			_ = i
		}
	}
	if buys != 1 || sells != 1 {
		t.Fatalf("expected one buy and one sell, got %d buys %d sells (%v)", buys, sells, signals)
	}
	if !sawBuyBeforeSell {
		t.Fatal("expected golden cross before death cross")
	}
}

func TestSMACrossoverRejectsInvertedPeriods(t *testing.T) {
	s := NewSMACrossover()
	if err := s.Initialize(map[string]string{"short_period": "20", "long_period": "5"}); err == nil {
		t.Fatal("expected error when short >= long")
	}
	if err := s.Initialize(map[string]string{"short_period": "abc"}); err == nil {
		t.Fatal("expected error for non-numeric period")
	}
}

func TestStrategyDeterminism(t *testing.T) {
	prices := make([]float64, 200)
	for i := range prices {
		// Deterministic zig-zag with drift; no randomness allowed in strategies.
		prices[i] = 100 + float64(i%20) - float64(i%7)*2
	}

	for _, id := range []string{IDSMACrossover, IDRSI} {
		first, err := New(id)
		if err != nil {
			t.Fatalf("new %s: %v", id, err)
		}
		second, err := New(id)
		if err != nil {
			t.Fatalf("new %s: %v", id, err)
		}

		a := feed(first, prices)
		b := feed(second, prices)
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: signal mismatch at %d: %v vs %v", id, i, a[i], b[i])
			}
		}

		// Reset must restore the initial state exactly.
		first.Reset()
		c := feed(first, prices)
		for i := range a {
			if a[i] != c[i] {
				t.Fatalf("%s: reset did not restore initial state at %d", id, i)
			}
		}
	}
}

func TestRSISignalsOnThresholds(t *testing.T) {
	s := NewRSI()
	if err := s.Initialize(map[string]string{"period": "3"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Steep decline drives RSI to oversold, then a steep rally to overbought.
	prices := []float64{100, 95, 90, 85, 80, 75, 85, 95, 105, 115, 125}
	signals := feed(s, prices)

	buys, sells := 0, 0
	for _, sig := range signals {
		switch sig {
		case SignalBuy:
			buys++
		case SignalSell:
			sells++
		}
	}
	if buys != 1 {
		t.Fatalf("expected exactly one buy, got %d (%v)", buys, signals)
	}
	if sells != 1 {
		t.Fatalf("expected exactly one sell, got %d (%v)", sells, signals)
	}
}

func TestRSIRejectsBadThresholds(t *testing.T) {
	s := NewRSI()
	if err := s.Initialize(map[string]string{"oversold": "80", "overbought": "20"}); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}
	if err := s.Initialize(map[string]string{"period": "1"}); err == nil {
		t.Fatal("expected error for period < 2")
	}
}

func TestRegistry(t *testing.T) {
	infos := List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(infos))
	}
	for _, info := range infos {
		if !Exists(info.ID) {
			t.Fatalf("listed strategy %s does not resolve", info.ID)
		}
		if _, err := New(info.ID); err != nil {
			t.Fatalf("failed to construct %s: %v", info.ID, err)
		}
	}
	if _, err := New("momentum"); err == nil {
		t.Fatal("expected error for unknown strategy id")
	}
}

func TestCapabilities(t *testing.T) {
	sma := NewSMACrossover()
	if cap := sma.Capability(); !cap.AcceptsTicks {
		t.Fatal("sma must accept ticks")
	}

	rsi := NewRSI()
	cap := rsi.Capability()
	if !cap.AcceptsBars || cap.PreferredTimeframe == nil {
		t.Fatal("rsi must accept bars with a preferred timeframe")
	}
	if cap.PreferredTimeframe.Key != "1m" {
		t.Fatalf("unexpected preferred timeframe: %s", cap.PreferredTimeframe.Key)
	}
}
