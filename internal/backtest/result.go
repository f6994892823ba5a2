package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is the immutable outcome of one finished backtest run. A run either
// produces a complete result or an error, never a partial one.
type Result struct {
	RunID           uuid.UUID       `json:"run_id"`
	StrategyID      string          `json:"strategy_id"`
	StrategyName    string          `json:"strategy_name"`
	Symbol          string          `json:"symbol"`
	RecordsReplayed int             `json:"records_replayed"`
	UsedBars        bool            `json:"used_bars"`
	Timeframe       string          `json:"timeframe,omitempty"`
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	FinalValue      decimal.Decimal `json:"final_value"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Trades          []TradeEntry    `json:"trades"`
	EquityCurve     EquityCurve     `json:"equity_curve"`
	Metrics         Metrics         `json:"metrics"`
}
