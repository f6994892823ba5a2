package strategy

import (
	"fmt"
	"strconv"

	talib "github.com/markcheno/go-talib"
	"github.com/yourusername/tick-replay/internal/models"
)

const (
	defaultRSIPeriod     = 14
	defaultRSIOversold   = 30.0
	defaultRSIOverbought = 70.0
)

// RSI trades on the Relative Strength Index of closing prices: Buy when the
// index drops below the oversold threshold, Sell when it rises above the
// overbought threshold. Prefers 1-minute bars; tick prices work too.
type RSI struct {
	period     int
	oversold   float64
	overbought float64
	closes     []float64
	lastSignal Signal
}

// NewRSI creates the strategy with a 14-period index and 30/70 thresholds.
func NewRSI() *RSI {
	return &RSI{
		period:     defaultRSIPeriod,
		oversold:   defaultRSIOversold,
		overbought: defaultRSIOverbought,
		lastSignal: SignalHold,
	}
}

// Name implements Strategy.
func (s *RSI) Name() string {
	return "RSI Strategy"
}

// Description implements Strategy.
func (s *RSI) Description() string {
	return "Trading strategy based on Relative Strength Index (RSI)"
}

// Initialize applies period / oversold / overbought parameters.
func (s *RSI) Initialize(params map[string]string) error {
	if v, ok := params["period"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			return fmt.Errorf("%w: invalid period %q", models.ErrStrategy, v)
		}
		s.period = n
	}
	if v, ok := params["oversold"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid oversold %q", models.ErrStrategy, v)
		}
		s.oversold = f
	}
	if v, ok := params["overbought"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid overbought %q", models.ErrStrategy, v)
		}
		s.overbought = f
	}
	if s.oversold <= 0 || s.overbought >= 100 || s.oversold >= s.overbought {
		return fmt.Errorf("%w: thresholds must satisfy 0 < oversold < overbought < 100", models.ErrStrategy)
	}
	return nil
}

// Reset clears accumulated close history.
func (s *RSI) Reset() {
	s.closes = s.closes[:0]
	s.lastSignal = SignalHold
}

// OnTick implements Strategy.
func (s *RSI) OnTick(tick models.Tick) Signal {
	return s.observe(tick.Price.InexactFloat64())
}

// OnBar implements Strategy.
func (s *RSI) OnBar(bar models.Bar) Signal {
	return s.observe(bar.Close.InexactFloat64())
}

// Capability implements Strategy.
func (s *RSI) Capability() Capability {
	tf, _ := models.ParseTimeframe("1m")
	return Capability{AcceptsTicks: true, AcceptsBars: true, PreferredTimeframe: &tf}
}

func (s *RSI) observe(price float64) Signal {
	s.closes = append(s.closes, price)
	if len(s.closes) > s.period*3 {
		s.closes = s.closes[1:]
	}
	// talib needs period+1 values before the first defined index value.
	if len(s.closes) <= s.period {
		return SignalHold
	}

	rsi := lastValue(talib.Rsi(s.closes, s.period))

	switch {
	case rsi < s.oversold && s.lastSignal != SignalBuy:
		s.lastSignal = SignalBuy
		return SignalBuy
	case rsi > s.overbought && s.lastSignal == SignalBuy:
		s.lastSignal = SignalSell
		return SignalSell
	default:
		return SignalHold
	}
}
