package backtest

import (
	"errors"
	"fmt"
	"time"
)

// Configuration minimums. Amounts are KRW.
const (
	MinInitialCapital = 100_000
	MinMaxPerStock    = 10_000
)

// ErrInvalidConfig is returned when a backtest configuration fails
// validation. No simulation is attempted.
var ErrInvalidConfig = errors.New("invalid backtest config")

// Config is the configuration surface of one backtest run.
type Config struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	MaxPerStock    float64

	// BuyExpensive buys a single share of stocks whose opening price exceeds
	// MaxPerStock instead of skipping them.
	BuyExpensive bool
}

// Validate checks the configuration. Violations fail fast before any
// simulation begins.
func (c Config) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidConfig)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidConfig,
			c.EndDate.Format("2006-01-02"),
			c.StartDate.Format("2006-01-02"))
	}
	if c.InitialCapital < MinInitialCapital {
		return fmt.Errorf("%w: initial capital %.0f below minimum %d",
			ErrInvalidConfig, c.InitialCapital, MinInitialCapital)
	}
	if c.MaxPerStock < MinMaxPerStock {
		return fmt.Errorf("%w: max per stock %.0f below minimum %d",
			ErrInvalidConfig, c.MaxPerStock, MinMaxPerStock)
	}
	return nil
}
