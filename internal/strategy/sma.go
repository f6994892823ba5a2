package strategy

import (
	"fmt"
	"strconv"

	talib "github.com/markcheno/go-talib"
	"github.com/yourusername/tick-replay/internal/models"
)

const (
	defaultSMAShortPeriod = 5
	defaultSMALongPeriod  = 20
)

// SMACrossover trades on the crossover of a short and a long simple moving
// average of trade prices: a golden cross emits Buy, a death cross emits Sell.
// Each cross fires once until the opposite cross occurs.
type SMACrossover struct {
	shortPeriod int
	longPeriod  int
	prices      []float64
	lastSignal  Signal
}

// NewSMACrossover creates the strategy with default 5/20 periods.
func NewSMACrossover() *SMACrossover {
	return &SMACrossover{
		shortPeriod: defaultSMAShortPeriod,
		longPeriod:  defaultSMALongPeriod,
		lastSignal:  SignalHold,
	}
}

// Name implements Strategy.
func (s *SMACrossover) Name() string {
	return "Simple Moving Average Crossover"
}

// Description implements Strategy.
func (s *SMACrossover) Description() string {
	return "Trading strategy based on short and long-term moving average crossover"
}

// Initialize applies short_period / long_period parameters.
func (s *SMACrossover) Initialize(params map[string]string) error {
	if v, ok := params["short_period"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: invalid short_period %q", models.ErrStrategy, v)
		}
		s.shortPeriod = n
	}
	if v, ok := params["long_period"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			return fmt.Errorf("%w: invalid long_period %q", models.ErrStrategy, v)
		}
		s.longPeriod = n
	}
	if s.shortPeriod >= s.longPeriod {
		return fmt.Errorf("%w: short_period must be less than long_period", models.ErrStrategy)
	}
	return nil
}

// Reset clears accumulated price history.
func (s *SMACrossover) Reset() {
	s.prices = s.prices[:0]
	s.lastSignal = SignalHold
}

// OnTick implements Strategy.
func (s *SMACrossover) OnTick(tick models.Tick) Signal {
	return s.observe(tick.Price.InexactFloat64())
}

// OnBar implements Strategy.
func (s *SMACrossover) OnBar(bar models.Bar) Signal {
	return s.observe(bar.Close.InexactFloat64())
}

// Capability implements Strategy. The crossover runs directly on raw trades.
func (s *SMACrossover) Capability() Capability {
	return Capability{AcceptsTicks: true, AcceptsBars: true}
}

func (s *SMACrossover) observe(price float64) Signal {
	s.prices = append(s.prices, price)
	if len(s.prices) > s.longPeriod*2 {
		s.prices = s.prices[1:]
	}
	if len(s.prices) < s.longPeriod {
		return SignalHold
	}

	shortSMA := lastValue(talib.Sma(s.prices, s.shortPeriod))
	longSMA := lastValue(talib.Sma(s.prices, s.longPeriod))

	switch {
	case shortSMA > longSMA && s.lastSignal != SignalBuy:
		s.lastSignal = SignalBuy
		return SignalBuy
	case shortSMA < longSMA && s.lastSignal == SignalBuy:
		s.lastSignal = SignalSell
		return SignalSell
	default:
		return SignalHold
	}
}

func lastValue(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
