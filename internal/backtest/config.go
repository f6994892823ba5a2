package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tick-replay/internal/models"
	"github.com/yourusername/tick-replay/internal/strategy"
)

// Config describes one fully specified backtest run. It is immutable for the
// duration of the run.
type Config struct {
	Symbol         string            `json:"symbol"`
	DataCount      int               `json:"data_count"`
	StrategyID     string            `json:"strategy_id"`
	StrategyParams map[string]string `json:"strategy_params,omitempty"`
	InitialCapital decimal.Decimal   `json:"initial_capital"`
	CommissionRate decimal.Decimal   `json:"commission_rate"`
	RiskFreeRate   float64           `json:"risk_free_rate"`
}

// Validate checks the configuration before any data is loaded. All failures
// wrap models.ErrValidation.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrValidation)
	}
	if c.DataCount <= 0 {
		return fmt.Errorf("%w: data count must be positive, got %d", models.ErrValidation, c.DataCount)
	}
	if !strategy.Exists(c.StrategyID) {
		return fmt.Errorf("%w: unknown strategy %q", models.ErrValidation, c.StrategyID)
	}
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("%w: initial capital must be positive, got %s", models.ErrValidation, c.InitialCapital)
	}
	if c.CommissionRate.IsNegative() || c.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: commission rate must be in [0, 1), got %s", models.ErrValidation, c.CommissionRate)
	}
	return nil
}
