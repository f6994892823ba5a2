package backtest

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/strategy"
)

// TradeEntry is one row of the append-only trade ledger. RealizedPnL is set
// only on fills that close an existing position.
type TradeEntry struct {
	Timestamp   time.Time        `json:"timestamp"`
	Symbol      string           `json:"symbol"`
	Side        models.TradeSide `json:"side"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Commission  decimal.Decimal  `json:"commission"`
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`
}

// Portfolio holds cash, the open position and the trade ledger. All money
// arithmetic is decimal; nothing here touches floats. The ledger is owned
// exclusively by the portfolio and only ever appended to.
//
// Sizing policy: a Buy while flat deploys available cash at the fill price,
// with quantity reduced so that notional plus commission never overdraws
// cash. A Sell while long closes the entire position. Short positions are not
// taken; fills that would require one degrade to Hold.
type Portfolio struct {
	cash            decimal.Decimal
	positionQty     decimal.Decimal
	avgEntryPrice   decimal.Decimal
	entryCommission decimal.Decimal
	totalCommission decimal.Decimal
	ledger          []TradeEntry
	logger          *logrus.Logger
}

// NewPortfolio creates a portfolio funded with the given capital.
func NewPortfolio(initialCapital decimal.Decimal, logger *logrus.Logger) *Portfolio {
	if logger == nil {
		logger = logrus.New()
	}
	return &Portfolio{
		cash:   initialCapital,
		logger: logger,
	}
}

// ApplyFill executes a signal against the portfolio. It returns the resulting
// ledger entry, or false when the signal was degraded to Hold (no position to
// close, insufficient cash, or an already open position).
func (p *Portfolio) ApplyFill(signal strategy.Signal, symbol string, price decimal.Decimal, ts time.Time, commissionRate decimal.Decimal) (*TradeEntry, bool) {
	switch signal {
	case strategy.SignalBuy:
		return p.openLong(symbol, price, ts, commissionRate)
	case strategy.SignalSell:
		return p.closeLong(symbol, price, ts, commissionRate)
	default:
		return nil, false
	}
}

func (p *Portfolio) openLong(symbol string, price decimal.Decimal, ts time.Time, commissionRate decimal.Decimal) (*TradeEntry, bool) {
	if p.positionQty.IsPositive() {
		p.logger.WithField("symbol", symbol).Debug("Buy signal ignored: position already open")
		return nil, false
	}
	if !price.IsPositive() {
		p.logger.WithField("price", price).Warn("Buy signal ignored: non-positive price")
		return nil, false
	}

	// Whole units; commission is part of the affordability check so cash
	// can never go negative.
	unitCost := price.Mul(decimal.NewFromInt(1).Add(commissionRate))
	quantity := p.cash.Div(unitCost).Floor()
	if !quantity.IsPositive() {
		p.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"price":  price,
			"cash":   p.cash,
		}).Debug("Buy signal ignored: insufficient cash for one unit")
		return nil, false
	}

	cost := quantity.Mul(price)
	commission := cost.Mul(commissionRate)
	p.cash = p.cash.Sub(cost).Sub(commission)
	p.positionQty = quantity
	p.avgEntryPrice = price
	p.entryCommission = commission
	p.totalCommission = p.totalCommission.Add(commission)

	entry := TradeEntry{
		Timestamp:  ts,
		Symbol:     symbol,
		Side:       models.TradeSideBuy,
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
	}
	p.ledger = append(p.ledger, entry)
	return &entry, true
}

func (p *Portfolio) closeLong(symbol string, price decimal.Decimal, ts time.Time, commissionRate decimal.Decimal) (*TradeEntry, bool) {
	if !p.positionQty.IsPositive() {
		p.logger.WithField("symbol", symbol).Debug("Sell signal ignored: no open position")
		return nil, false
	}

	quantity := p.positionQty
	proceeds := quantity.Mul(price)
	commission := proceeds.Mul(commissionRate)
	realized := price.Sub(p.avgEntryPrice).Mul(quantity).Sub(commission).Sub(p.entryCommission)

	p.cash = p.cash.Add(proceeds).Sub(commission)
	p.totalCommission = p.totalCommission.Add(commission)
	p.positionQty = decimal.Zero
	p.avgEntryPrice = decimal.Zero
	p.entryCommission = decimal.Zero

	entry := TradeEntry{
		Timestamp:   ts,
		Symbol:      symbol,
		Side:        models.TradeSideSell,
		Quantity:    quantity,
		Price:       price,
		Commission:  commission,
		RealizedPnL: &realized,
	}
	p.ledger = append(p.ledger, entry)
	return &entry, true
}

// Cash returns the current free cash balance.
func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// PositionQuantity returns the open long quantity, zero when flat.
func (p *Portfolio) PositionQuantity() decimal.Decimal {
	return p.positionQty
}

// UnrealizedPnL marks the open position against the last known price.
func (p *Portfolio) UnrealizedPnL(lastPrice decimal.Decimal) decimal.Decimal {
	if !p.positionQty.IsPositive() {
		return decimal.Zero
	}
	return lastPrice.Sub(p.avgEntryPrice).Mul(p.positionQty)
}

// Equity returns total portfolio value: cash plus the open position marked at
// the last known price.
func (p *Portfolio) Equity(lastPrice decimal.Decimal) decimal.Decimal {
	return p.cash.Add(p.positionQty.Mul(lastPrice))
}

// Ledger returns the trade ledger in fill order.
func (p *Portfolio) Ledger() []TradeEntry {
	return p.ledger
}

// TotalCommission returns commission paid across all fills.
func (p *Portfolio) TotalCommission() decimal.Decimal {
	return p.totalCommission
}
