// Package models defines the market data entities shared across the application.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide indicates the taker side of an executed trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "Buy"
	TradeSideSell TradeSide = "Sell"
)

// ParseTradeSide converts a string into a TradeSide.
func ParseTradeSide(s string) (TradeSide, error) {
	switch s {
	case string(TradeSideBuy):
		return TradeSideBuy, nil
	case string(TradeSideSell):
		return TradeSideSell, nil
	default:
		return "", fmt.Errorf("invalid trade side: %q", s)
	}
}

// Tick represents a single executed trade. Instances are immutable once
// constructed; identity is (symbol, trade_id, timestamp) and uniqueness is
// enforced by the persistence layer.
type Tick struct {
	Timestamp    time.Time       `json:"timestamp"`
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Side         TradeSide       `json:"side"`
	TradeID      string          `json:"trade_id"`
	IsBuyerMaker bool            `json:"is_buyer_maker"`
}

// Validate checks tick invariants
func (t Tick) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrValidation)
	}
	if t.TradeID == "" {
		return fmt.Errorf("%w: trade id cannot be empty", ErrValidation)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if t.Side != TradeSideBuy && t.Side != TradeSideSell {
		return fmt.Errorf("%w: invalid side %q", ErrValidation, t.Side)
	}
	return nil
}
