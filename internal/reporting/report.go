package reporting

import (
	"time"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/stats"
)

// Report is the complete backtest report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`

	// Run configuration echo
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	InitialCapital float64 `json:"initial_capital"`
	MaxPerStock    float64 `json:"max_per_stock"`
	BuyExpensive   bool    `json:"buy_expensive"`

	DaysProcessed int `json:"days_processed"`
	DaysMissing   int `json:"days_missing"`

	Overall stats.OverallStats `json:"overall"`

	// Breakdowns
	ByScoreBand        []stats.ScoreBandStats `json:"by_score_band"`
	ByDate             []stats.DateStats      `json:"by_date"`
	ByWeekday          []stats.WeekdayStats   `json:"by_weekday"`
	ByReason           []stats.ReasonStats    `json:"by_reason"`
	ByTimeOfDay        []stats.TimeSlotStats  `json:"by_time_of_day"`
	ReturnDistribution []stats.ReturnBucket   `json:"return_distribution"`

	EquityCurve []domain.EquityPoint `json:"equity_curve"`

	Trades []*domain.SimulatedTrade `json:"trades"`
}
