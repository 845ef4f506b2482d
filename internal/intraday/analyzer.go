// Package intraday derives profit/loss analyses from raw minute bars.
package intraday

import (
	"errors"
	"fmt"
	"math"

	"stock-backtest-lab/internal/domain"
)

// ErrNoBars is returned when a stock has no minute bars for the day.
var ErrNoBars = errors.New("intraday: no minute bars")

// Default target percentages applied when a caller passes zero values.
const (
	DefaultProfitTargetPercent = 5.0
	DefaultLossTargetPercent   = 3.0
)

// Analyze builds a ProfitLossAnalysis from one stock's minute bars for a
// single day. Bars must be sorted ascending by time.
//
// The opening price is the first bar's open. Hit detection compares bar
// highs and lows against the exact opening*(1±pct/100) thresholds; only the
// stored target prices are truncated to whole won. Within a bar the profit
// target is checked before the loss target, so a bar that straddles both
// counts as a profit hit. The first hit wins; later bars cannot override it.
func Analyze(bars []*domain.MinuteBar, profitPct, lossPct float64) (*domain.ProfitLossAnalysis, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	if profitPct <= 0 {
		profitPct = DefaultProfitTargetPercent
	}
	if lossPct <= 0 {
		lossPct = DefaultLossTargetPercent
	}

	opening := bars[0].Open
	if opening <= 0 {
		return nil, fmt.Errorf("intraday: invalid opening price %g", opening)
	}

	profitLimit := opening * (1 + profitPct/100)
	lossLimit := opening * (1 - lossPct/100)

	analysis := &domain.ProfitLossAnalysis{
		OpeningPrice:        opening,
		ProfitTargetPercent: profitPct,
		LossTargetPercent:   lossPct,
		ProfitTargetPrice:   math.Trunc(profitLimit),
		LossTargetPrice:     math.Trunc(lossLimit),
		FirstHit:            domain.FirstHitNone,
	}

	for _, bar := range bars {
		if bar.High >= profitLimit {
			analysis.FirstHit = domain.FirstHitProfit
			analysis.FirstHitTime = bar.Time
			analysis.FirstHitPrice = analysis.ProfitTargetPrice
			break
		}
		if bar.Low <= lossLimit {
			analysis.FirstHit = domain.FirstHitLoss
			analysis.FirstHitTime = bar.Time
			analysis.FirstHitPrice = analysis.LossTargetPrice
			break
		}
	}

	last := bars[len(bars)-1]
	analysis.ClosingPrice = last.Close
	analysis.ClosingPercent = (last.Close - opening) / opening * 100

	return analysis, nil
}
