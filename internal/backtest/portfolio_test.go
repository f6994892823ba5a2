package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tick-replay/internal/strategy"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fillTime(i int) time.Time {
	return time.Date(2024, 6, 1, 12, 0, i, 0, time.UTC)
}

func TestPortfolioBuySellRoundTrip(t *testing.T) {
	p := NewPortfolio(d("10000"), nil)
	rate := d("0.001")

	entry, ok := p.ApplyFill(strategy.SignalBuy, "BTCUSDT", d("100"), fillTime(0), rate)
	if !ok {
		t.Fatal("expected buy fill to execute")
	}
	// Quantity reserves cash for commission: floor(10000 / (100 * 1.001)).
	if !entry.Quantity.Equal(d("99")) {
		t.Fatalf("expected quantity 99, got %s", entry.Quantity)
	}
	if !entry.Commission.Equal(d("9.9")) {
		t.Fatalf("expected buy commission 9.9, got %s", entry.Commission)
	}
	if !p.Cash().Equal(d("90.1")) {
		t.Fatalf("expected cash 90.1 after buy, got %s", p.Cash())
	}

	// Hold in between must not touch the portfolio.
	if _, ok := p.ApplyFill(strategy.SignalHold, "BTCUSDT", d("110"), fillTime(1), rate); ok {
		t.Fatal("hold must not produce a fill")
	}

	entry, ok = p.ApplyFill(strategy.SignalSell, "BTCUSDT", d("120"), fillTime(2), rate)
	if !ok {
		t.Fatal("expected sell fill to execute")
	}
	if entry.RealizedPnL == nil {
		t.Fatal("closing fill must carry realized pnl")
	}
	// 99*(120-100) minus both legs' commissions (9.9 + 11.88).
	if !entry.RealizedPnL.Equal(d("1958.22")) {
		t.Fatalf("expected realized pnl 1958.22, got %s", entry.RealizedPnL)
	}
	if !p.Cash().Equal(d("11958.22")) {
		t.Fatalf("expected cash 11958.22 after close, got %s", p.Cash())
	}
	if !p.PositionQuantity().IsZero() {
		t.Fatalf("expected flat position, got %s", p.PositionQuantity())
	}

	ledger := p.Ledger()
	if len(ledger) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(ledger))
	}
	if !p.TotalCommission().Equal(d("21.78")) {
		t.Fatalf("expected total commission 21.78, got %s", p.TotalCommission())
	}
}

func TestPortfolioZeroCommissionDeploysAllCash(t *testing.T) {
	p := NewPortfolio(d("10000"), nil)

	entry, ok := p.ApplyFill(strategy.SignalBuy, "BTCUSDT", d("100"), fillTime(0), decimal.Zero)
	if !ok {
		t.Fatal("expected buy fill to execute")
	}
	if !entry.Quantity.Equal(d("100")) {
		t.Fatalf("expected quantity 100, got %s", entry.Quantity)
	}
	if !p.Cash().IsZero() {
		t.Fatalf("expected zero cash, got %s", p.Cash())
	}
}

func TestPortfolioRejectsShortSell(t *testing.T) {
	p := NewPortfolio(d("10000"), nil)

	if _, ok := p.ApplyFill(strategy.SignalSell, "BTCUSDT", d("100"), fillTime(0), decimal.Zero); ok {
		t.Fatal("sell while flat must degrade to hold")
	}
	if len(p.Ledger()) != 0 {
		t.Fatal("degraded fill must not reach the ledger")
	}
	if !p.Cash().Equal(d("10000")) {
		t.Fatalf("cash must be untouched, got %s", p.Cash())
	}
}

func TestPortfolioIgnoresBuyWhileLong(t *testing.T) {
	p := NewPortfolio(d("10000"), nil)

	if _, ok := p.ApplyFill(strategy.SignalBuy, "BTCUSDT", d("100"), fillTime(0), decimal.Zero); !ok {
		t.Fatal("expected opening buy to execute")
	}
	if _, ok := p.ApplyFill(strategy.SignalBuy, "BTCUSDT", d("90"), fillTime(1), decimal.Zero); ok {
		t.Fatal("second buy while long must degrade to hold")
	}
	if len(p.Ledger()) != 1 {
		t.Fatalf("expected single ledger entry, got %d", len(p.Ledger()))
	}
}

func TestPortfolioInsufficientCash(t *testing.T) {
	p := NewPortfolio(d("50"), nil)

	if _, ok := p.ApplyFill(strategy.SignalBuy, "BTCUSDT", d("100"), fillTime(0), decimal.Zero); ok {
		t.Fatal("buy must be rejected when one unit is unaffordable")
	}
	if !p.Cash().Equal(d("50")) {
		t.Fatalf("cash must be untouched, got %s", p.Cash())
	}
}

func TestPortfolioCashNeverNegative(t *testing.T) {
	p := NewPortfolio(d("1000"), nil)
	rate := d("0.01")

	prices := []string{"3", "7", "11", "5", "13", "2", "17", "9", "21", "4"}
	signals := []strategy.Signal{
		strategy.SignalBuy, strategy.SignalSell, strategy.SignalBuy, strategy.SignalBuy,
		strategy.SignalSell, strategy.SignalBuy, strategy.SignalSell, strategy.SignalSell,
		strategy.SignalBuy, strategy.SignalSell,
	}

	for i, sig := range signals {
		p.ApplyFill(sig, "BTCUSDT", d(prices[i]), fillTime(i), rate)
		if p.Cash().IsNegative() {
			t.Fatalf("cash went negative after fill %d: %s", i, p.Cash())
		}
	}
}

func TestPortfolioEquityMarksOpenPosition(t *testing.T) {
	p := NewPortfolio(d("1000"), nil)

	if _, ok := p.ApplyFill(strategy.SignalBuy, "ETHUSDT", d("10"), fillTime(0), decimal.Zero); !ok {
		t.Fatal("expected buy to execute")
	}
	// 100 units at entry 10; marked at 12 the position is worth 1200.
	if !p.Equity(d("12")).Equal(d("1200")) {
		t.Fatalf("expected equity 1200, got %s", p.Equity(d("12")))
	}
	if !p.UnrealizedPnL(d("12")).Equal(d("200")) {
		t.Fatalf("expected unrealized pnl 200, got %s", p.UnrealizedPnL(d("12")))
	}
}
