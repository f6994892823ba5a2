package backtest

import (
	"math"

	"github.com/shopspring/decimal"
)

// Metrics summarizes backtest performance. Ratio metrics are float64; money
// totals stay decimal. ProfitFactor is +Inf when there are gross profits but
// no gross losses.
type Metrics struct {
	TotalReturn     float64         `json:"total_return"`
	Volatility      float64         `json:"volatility"`
	SharpeRatio     float64         `json:"sharpe_ratio"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	WinRate         float64         `json:"win_rate"`
	ProfitFactor    float64         `json:"-"`
	TotalTrades     int             `json:"total_trades"`
	WinningTrades   int             `json:"winning_trades"`
	LosingTrades    int             `json:"losing_trades"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

// CalculateMetrics derives performance metrics from a finished run. The same
// curve and ledger always produce the same metrics.
func CalculateMetrics(curve EquityCurve, ledger []TradeEntry, initialCapital decimal.Decimal, riskFreeRate float64) Metrics {
	m := Metrics{
		TotalPnL:        decimal.Zero,
		TotalCommission: decimal.Zero,
	}

	if len(curve) > 0 && initialCapital.IsPositive() {
		final := curve[len(curve)-1].Value
		m.TotalReturn = final.Sub(initialCapital).Div(initialCapital).InexactFloat64()
	}
	m.Volatility = curve.GetVolatility()
	m.MaxDrawdown = curve.GetMaxDrawdown()
	m.SharpeRatio = sharpeRatio(curve, riskFreeRate)

	grossProfit := 0.0
	grossLoss := 0.0
	for _, trade := range ledger {
		m.TotalTrades++
		m.TotalCommission = m.TotalCommission.Add(trade.Commission)
		if trade.RealizedPnL == nil {
			continue
		}
		m.TotalPnL = m.TotalPnL.Add(*trade.RealizedPnL)
		pnl := trade.RealizedPnL.InexactFloat64()
		switch {
		case pnl > 0:
			m.WinningTrades++
			grossProfit += pnl
		case pnl < 0:
			m.LosingTrades++
			grossLoss += -pnl
		}
	}

	if closed := m.WinningTrades + m.LosingTrades; closed > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(closed)
	}
	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	}

	return m
}

// sharpeRatio annualizes mean excess return over volatility using the
// sampling frequency observed in the curve itself.
func sharpeRatio(curve EquityCurve, riskFreeRate float64) float64 {
	returns := curve.GetReturns()
	stddev := curve.GetVolatility()
	if len(returns) == 0 || stddev == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	perYear := curve.SamplesPerYear()
	if perYear <= 0 {
		return (mean - riskFreeRate) / stddev
	}
	excess := mean - riskFreeRate/perYear
	return excess / stddev * math.Sqrt(perYear)
}
