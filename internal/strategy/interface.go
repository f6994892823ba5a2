// Package strategy defines the trading strategy contract and the built-in
// strategy implementations.
package strategy

import (
	"github.com/yourusername/tick-replay/internal/models"
)

// Signal is a trading decision emitted per processed record.
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "Buy"
	case SignalSell:
		return "Sell"
	default:
		return "Hold"
	}
}

// Capability describes which record types a strategy consumes. The engine
// checks this before choosing a data source; a strategy that only accepts
// bars is never fed ticks.
type Capability struct {
	AcceptsTicks       bool              `json:"accepts_ticks"`
	AcceptsBars        bool              `json:"accepts_bars"`
	PreferredTimeframe *models.Timeframe `json:"preferred_timeframe,omitempty"`
}

// Strategy is the contract implemented by every strategy variant. Strategies
// are deterministic: identical input sequences produce identical signal
// sequences, and internal state mutates only through OnTick/OnBar/Reset.
type Strategy interface {
	// Name returns the stable strategy identifier.
	Name() string

	// Description returns a human-readable summary.
	Description() string

	// Initialize applies user-supplied parameters. Malformed parameters fail
	// here, before any record is processed.
	Initialize(params map[string]string) error

	// Reset clears accumulated state for a fresh replay.
	Reset()

	// OnTick processes one trade record and returns a signal.
	OnTick(tick models.Tick) Signal

	// OnBar processes one aggregated bar and returns a signal.
	OnBar(bar models.Bar) Signal

	// Capability reports which record types this strategy accepts.
	Capability() Capability
}

// Info describes a strategy for listing at the presentation boundary.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
