package backtest

import (
	"bytes"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint represents a point in the equity curve
type EquityPoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// EquityCurve represents a time-series of portfolio values
type EquityCurve []EquityPoint

// Record appends a sample to the curve
func (e *EquityCurve) Record(t time.Time, value decimal.Decimal) {
	*e = append(*e, EquityPoint{Time: t, Value: value})
}

// GetReturns calculates periodic returns from equity curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value.InexactFloat64()
		curr := e[i].Value.InexactFloat64()
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// GetVolatility calculates the sample standard deviation of returns
func (e EquityCurve) GetVolatility() float64 {
	returns := e.GetReturns()
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance)
}

// GetMaxDrawdown calculates the largest peak-to-trough decline as a fraction
// of the peak, in a single pass over the curve
func (e EquityCurve) GetMaxDrawdown() float64 {
	if len(e) == 0 {
		return 0
	}
	peak := e[0].Value.InexactFloat64()
	maxDrawdown := 0.0
	for _, point := range e {
		value := point.Value.InexactFloat64()
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}

// SamplesPerYear estimates the sampling frequency from the average spacing
// between points. Returns 0 when the curve spans no time.
func (e EquityCurve) SamplesPerYear() float64 {
	if len(e) < 2 {
		return 0
	}
	span := e[len(e)-1].Time.Sub(e[0].Time)
	if span <= 0 {
		return 0
	}
	spacing := span / time.Duration(len(e)-1)
	const year = 365 * 24 * time.Hour
	return float64(year) / float64(spacing)
}

// ToCSV exports the equity curve as CSV
func (e EquityCurve) ToCSV() []byte {
	var buf bytes.Buffer
	buf.WriteString("time,value\n")
	for _, point := range e {
		buf.WriteString(point.Time.UTC().Format(time.RFC3339Nano))
		buf.WriteByte(',')
		buf.WriteString(point.Value.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
