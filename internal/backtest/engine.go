package backtest

import (
	"context"
	"errors"
	"log"
	"time"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/observability"
	"stock-backtest-lab/internal/snapshot"
)

// Result holds the output of one backtest run.
type Result struct {
	Config       Config                   `json:"-"`
	Trades       []*domain.SimulatedTrade `json:"trades"`
	EquityCurve  []domain.EquityPoint     `json:"equity_curve"`
	FinalCapital float64                  `json:"final_capital"`

	// Day accounting for diagnostics; missing days never abort a run.
	DaysProcessed int `json:"days_processed"`
	DaysMissing   int `json:"days_missing"`
}

// DayProgress is reported to the progress hook after each processed day.
type DayProgress struct {
	Equity     domain.EquityPoint `json:"equity"`
	TradeCount int                `json:"trade_count"`
	DayIndex   int                `json:"day_index"`
	DayTotal   int                `json:"day_total"`
}

// Engine orchestrates a backtest: it walks the weekday range, pulls one
// snapshot per day from the provider, feeds observations to the simulator
// with the running capital, and accumulates trades plus the equity curve.
//
// Days are strictly sequential. Capital is carried forward across days and
// trade admission is capital-dependent, so day N+1 is never touched before
// day N is fully simulated.
type Engine struct {
	provider snapshot.Provider
	logger   *log.Logger
	onDay    func(DayProgress)
	now      func() time.Time
}

// NewEngine creates a backtest engine over the given snapshot provider.
func NewEngine(provider snapshot.Provider) *Engine {
	return &Engine{
		provider: provider,
		now:      time.Now,
	}
}

// WithLogger sets a logger for per-day skip diagnostics.
func (e *Engine) WithLogger(logger *log.Logger) *Engine {
	e.logger = logger
	return e
}

// WithProgress sets a hook invoked after each processed day.
func (e *Engine) WithProgress(fn func(DayProgress)) *Engine {
	e.onDay = fn
	return e
}

// Run executes the backtest. Configuration violations fail before any
// simulation; per-day and per-observation failures are recovered locally
// and never abort the run.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		observability.RecordBacktestRun("invalid_config", 0)
		return nil, err
	}

	started := e.now()
	days := TradingDays(cfg.StartDate, cfg.EndDate)

	capital := cfg.InitialCapital
	result := &Result{
		Config: cfg,
		Trades: make([]*domain.SimulatedTrade, 0),
		EquityCurve: []domain.EquityPoint{
			{Date: cfg.StartDate.Format(domain.DateLayout), Capital: capital},
		},
	}

	for i, day := range days {
		if err := ctx.Err(); err != nil {
			observability.RecordBacktestRun("canceled", e.now().Sub(started).Seconds())
			return nil, err
		}

		snap, err := e.provider.GetByDate(ctx, day)
		if err != nil {
			// Missing or malformed data skips the day, nothing more.
			if errors.Is(err, snapshot.ErrNoData) {
				observability.RecordDayMissing()
			} else {
				observability.RecordMalformedSnapshot()
				e.logf("skipping %s: %v", day.Format(domain.DateLayout), err)
			}
			result.DaysMissing++
			continue
		}

		date := day.Format(domain.DateLayout)
		dayTrades := 0

		// Native snapshot order; each observation sees the capital left
		// behind by the previous one.
		for _, obs := range snap.Stocks {
			trade, skip := Simulate(obs, date, capital, cfg.MaxPerStock, cfg.BuyExpensive)
			if trade == nil {
				observability.RecordObservationSkipped(skip)
				continue
			}

			capital = trade.CapitalAfter
			result.Trades = append(result.Trades, trade)
			dayTrades++
			observability.RecordTradeSimulated()
		}

		// One equity point per present day, trades or not.
		point := domain.EquityPoint{Date: date, Capital: capital}
		result.EquityCurve = append(result.EquityCurve, point)
		result.DaysProcessed++
		observability.RecordDayProcessed()

		if e.onDay != nil {
			e.onDay(DayProgress{
				Equity:     point,
				TradeCount: dayTrades,
				DayIndex:   i + 1,
				DayTotal:   len(days),
			})
		}
	}

	result.FinalCapital = capital
	observability.RecordBacktestRun("ok", e.now().Sub(started).Seconds())
	return result, nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
