package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is an OHLCV candle aggregated from ticks over one timeframe window.
// Windows with no contributing ticks are never emitted.
type Bar struct {
	IntervalStart time.Time       `json:"interval_start"`
	Symbol        string          `json:"symbol"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	Volume        decimal.Decimal `json:"volume"`
	TradeCount    int             `json:"trade_count"`
}

// Validate checks bar invariants: low <= open,close <= high, at least one trade.
func (b Bar) Validate() error {
	if b.TradeCount < 1 {
		return fmt.Errorf("%w: bar must contain at least one trade", ErrValidation)
	}
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("%w: bar low exceeds open or close", ErrValidation)
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return fmt.Errorf("%w: bar high below open or close", ErrValidation)
	}
	return nil
}

// BarFromTicks builds a single bar from the ticks of one window. Ticks must
// already be sorted by ascending timestamp. Returns false for an empty window.
func BarFromTicks(ticks []Tick, windowStart time.Time) (Bar, bool) {
	if len(ticks) == 0 {
		return Bar{}, false
	}

	bar := Bar{
		IntervalStart: windowStart,
		Symbol:        ticks[0].Symbol,
		Open:          ticks[0].Price,
		High:          ticks[0].Price,
		Low:           ticks[0].Price,
		Close:         ticks[len(ticks)-1].Price,
		Volume:        decimal.Zero,
		TradeCount:    len(ticks),
	}
	for _, tick := range ticks {
		if tick.Price.GreaterThan(bar.High) {
			bar.High = tick.Price
		}
		if tick.Price.LessThan(bar.Low) {
			bar.Low = tick.Price
		}
		bar.Volume = bar.Volume.Add(tick.Quantity)
	}
	return bar, true
}

// BarsFromTicks aggregates ticks into bars on the timeframe grid. Input order
// within a window is preserved for open/close selection; output is ordered by
// ascending interval start. Empty windows produce no bars.
func BarsFromTicks(ticks []Tick, tf Timeframe) []Bar {
	if len(ticks) == 0 {
		return nil
	}

	windows := make(map[time.Time][]Tick)
	for _, tick := range ticks {
		start := tf.Align(tick.Timestamp)
		windows[start] = append(windows[start], tick)
	}

	starts := make([]time.Time, 0, len(windows))
	for start := range windows {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	bars := make([]Bar, 0, len(starts))
	for _, start := range starts {
		if bar, ok := BarFromTicks(windows[start], start); ok {
			bars = append(bars, bar)
		}
	}
	return bars
}
