package api

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tick-replay/internal/backtest"
	"github.com/yourusername/tick-replay/internal/config"
	"github.com/yourusername/tick-replay/internal/models"
)

// Wire DTOs keep every monetary quantity as a decimal string so clients never
// see binary floating point artifacts.

type runRequest struct {
	Symbol         string            `json:"symbol"`
	DataCount      int               `json:"data_count"`
	StrategyID     string            `json:"strategy_id"`
	StrategyParams map[string]string `json:"strategy_params"`
	InitialCapital string            `json:"initial_capital"`
	CommissionRate string            `json:"commission_rate"`
}

// toConfig resolves a request against configured defaults and parses the
// decimal fields. Range rules are left to Config.Validate.
func (r runRequest) toConfig(defaults config.BacktestConfig) (backtest.Config, error) {
	cfg := backtest.Config{
		Symbol:         r.Symbol,
		DataCount:      r.DataCount,
		StrategyID:     r.StrategyID,
		StrategyParams: r.StrategyParams,
		RiskFreeRate:   defaults.RiskFreeRate,
	}
	if cfg.Symbol == "" {
		cfg.Symbol = defaults.DefaultSymbol
	}
	if cfg.DataCount == 0 {
		cfg.DataCount = defaults.DefaultCount
	}
	if cfg.StrategyID == "" {
		cfg.StrategyID = defaults.DefaultStrategy
	}

	capital := r.InitialCapital
	if capital == "" {
		capital = defaults.InitialCapital
	}
	parsedCapital, err := decimal.NewFromString(capital)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("%w: invalid initial_capital %q", models.ErrValidation, capital)
	}
	cfg.InitialCapital = parsedCapital

	commission := r.CommissionRate
	if commission == "" {
		commission = defaults.CommissionRate
	}
	parsedCommission, err := decimal.NewFromString(commission)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("%w: invalid commission_rate %q", models.ErrValidation, commission)
	}
	cfg.CommissionRate = parsedCommission

	return cfg, nil
}

type tradeDTO struct {
	Timestamp   string  `json:"timestamp"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Quantity    string  `json:"quantity"`
	Price       string  `json:"price"`
	Commission  string  `json:"commission"`
	RealizedPnL *string `json:"realized_pnl,omitempty"`
}

type equityPointDTO struct {
	Time  string `json:"time"`
	Value string `json:"value"`
}

type metricsDTO struct {
	TotalReturn     string `json:"total_return"`
	Volatility      string `json:"volatility"`
	SharpeRatio     string `json:"sharpe_ratio"`
	MaxDrawdown     string `json:"max_drawdown"`
	WinRate         string `json:"win_rate"`
	ProfitFactor    string `json:"profit_factor"`
	TotalTrades     int    `json:"total_trades"`
	WinningTrades   int    `json:"winning_trades"`
	LosingTrades    int    `json:"losing_trades"`
	TotalPnL        string `json:"total_pnl"`
	TotalCommission string `json:"total_commission"`
}

type resultDTO struct {
	RunID           string           `json:"run_id"`
	StrategyID      string           `json:"strategy_id"`
	StrategyName    string           `json:"strategy_name"`
	Symbol          string           `json:"symbol"`
	RecordsReplayed int              `json:"records_replayed"`
	UsedBars        bool             `json:"used_bars"`
	Timeframe       string           `json:"timeframe,omitempty"`
	InitialCapital  string           `json:"initial_capital"`
	FinalValue      string           `json:"final_value"`
	StartedAt       string           `json:"started_at"`
	FinishedAt      string           `json:"finished_at"`
	Trades          []tradeDTO       `json:"trades"`
	EquityCurve     []equityPointDTO `json:"equity_curve"`
	Metrics         metricsDTO       `json:"metrics"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatProfitFactor(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return formatFloat(v)
}

func newMetricsDTO(m backtest.Metrics) metricsDTO {
	return metricsDTO{
		TotalReturn:     formatFloat(m.TotalReturn),
		Volatility:      formatFloat(m.Volatility),
		SharpeRatio:     formatFloat(m.SharpeRatio),
		MaxDrawdown:     formatFloat(m.MaxDrawdown),
		WinRate:         formatFloat(m.WinRate),
		ProfitFactor:    formatProfitFactor(m.ProfitFactor),
		TotalTrades:     m.TotalTrades,
		WinningTrades:   m.WinningTrades,
		LosingTrades:    m.LosingTrades,
		TotalPnL:        m.TotalPnL.String(),
		TotalCommission: m.TotalCommission.String(),
	}
}

func newResultDTO(r *backtest.Result) resultDTO {
	trades := make([]tradeDTO, 0, len(r.Trades))
	for _, trade := range r.Trades {
		dto := tradeDTO{
			Timestamp:  trade.Timestamp.UTC().Format(time.RFC3339Nano),
			Symbol:     trade.Symbol,
			Side:       string(trade.Side),
			Quantity:   trade.Quantity.String(),
			Price:      trade.Price.String(),
			Commission: trade.Commission.String(),
		}
		if trade.RealizedPnL != nil {
			pnl := trade.RealizedPnL.String()
			dto.RealizedPnL = &pnl
		}
		trades = append(trades, dto)
	}

	curve := make([]equityPointDTO, 0, len(r.EquityCurve))
	for _, point := range r.EquityCurve {
		curve = append(curve, equityPointDTO{
			Time:  point.Time.UTC().Format(time.RFC3339Nano),
			Value: point.Value.String(),
		})
	}

	return resultDTO{
		RunID:           r.RunID.String(),
		StrategyID:      r.StrategyID,
		StrategyName:    r.StrategyName,
		Symbol:          r.Symbol,
		RecordsReplayed: r.RecordsReplayed,
		UsedBars:        r.UsedBars,
		Timeframe:       r.Timeframe,
		InitialCapital:  r.InitialCapital.String(),
		FinalValue:      r.FinalValue.String(),
		StartedAt:       r.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:      r.FinishedAt.UTC().Format(time.RFC3339Nano),
		Trades:          trades,
		EquityCurve:     curve,
		Metrics:         newMetricsDTO(r.Metrics),
	}
}

type tickDTO struct {
	Timestamp    string `json:"timestamp"`
	Symbol       string `json:"symbol"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	Side         string `json:"side"`
	TradeID      string `json:"trade_id"`
	IsBuyerMaker bool   `json:"is_buyer_maker"`
}

func newTickDTOs(ticks []models.Tick) []tickDTO {
	dtos := make([]tickDTO, 0, len(ticks))
	for _, tick := range ticks {
		dtos = append(dtos, tickDTO{
			Timestamp:    tick.Timestamp.UTC().Format(time.RFC3339Nano),
			Symbol:       tick.Symbol,
			Price:        tick.Price.String(),
			Quantity:     tick.Quantity.String(),
			Side:         string(tick.Side),
			TradeID:      tick.TradeID,
			IsBuyerMaker: tick.IsBuyerMaker,
		})
	}
	return dtos
}

type barDTO struct {
	IntervalStart string `json:"interval_start"`
	Symbol        string `json:"symbol"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	Volume        string `json:"volume"`
	TradeCount    int    `json:"trade_count"`
}

func newBarDTOs(bars []models.Bar) []barDTO {
	dtos := make([]barDTO, 0, len(bars))
	for _, bar := range bars {
		dtos = append(dtos, barDTO{
			IntervalStart: bar.IntervalStart.UTC().Format(time.RFC3339Nano),
			Symbol:        bar.Symbol,
			Open:          bar.Open.String(),
			High:          bar.High.String(),
			Low:           bar.Low.String(),
			Close:         bar.Close.String(),
			Volume:        bar.Volume.String(),
			TradeCount:    bar.TradeCount,
		})
	}
	return dtos
}
