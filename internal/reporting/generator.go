package reporting

import (
	"time"

	"stock-backtest-lab/internal/backtest"
	"stock-backtest-lab/internal/stats"
)

// Generator produces reports from completed backtest results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles a complete report from a backtest result.
func (g *Generator) Generate(res *backtest.Result) *Report {
	return &Report{
		GeneratedAt: g.now(),

		StartDate:      res.Config.StartDate.Format("2006-01-02"),
		EndDate:        res.Config.EndDate.Format("2006-01-02"),
		InitialCapital: res.Config.InitialCapital,
		MaxPerStock:    res.Config.MaxPerStock,
		BuyExpensive:   res.Config.BuyExpensive,

		DaysProcessed: res.DaysProcessed,
		DaysMissing:   res.DaysMissing,

		Overall: stats.Overall(res.Trades, res.FinalCapital, res.Config.InitialCapital),

		ByScoreBand:        stats.ByScoreBand(res.Trades),
		ByDate:             stats.ByDate(res.Trades),
		ByWeekday:          stats.ByWeekday(res.Trades),
		ByReason:           stats.ByReason(res.Trades),
		ByTimeOfDay:        stats.ByTimeOfDay(res.Trades),
		ReturnDistribution: stats.ReturnDistribution(res.Trades),

		EquityCurve: res.EquityCurve,
		Trades:      res.Trades,
	}
}
