package backtest

import (
	"math"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/idhash"
)

// Skip reasons reported by Simulate when no trade is produced.
const (
	SkipNoAnalysis          = "no_analysis"
	SkipNoOpeningPrice      = "no_opening_price"
	SkipOverCap             = "over_cap"
	SkipInsufficientCapital = "insufficient_capital"
	SkipNoSellPrice         = "no_sell_price"
)

// Simulate evaluates one observation against the available capital and
// produces a simulated trade, or nil plus a skip reason. It is a pure
// function: the caller applies the capital update (trade.Profit) itself.
//
// Sizing: floor(maxPerStock / opening) shares, unless opening exceeds
// maxPerStock, in which case exactly one share is bought when buyExpensive
// is set and the observation is skipped otherwise. A required investment
// above availableCapital is a hard admission-control gate, not a partial
// fill.
func Simulate(obs *domain.StockObservation, date string, availableCapital, maxPerStock float64, buyExpensive bool) (*domain.SimulatedTrade, string) {
	pl := obs.Analysis
	if pl == nil {
		return nil, SkipNoAnalysis
	}

	opening := pl.OpeningPrice
	if opening <= 0 {
		// Also guards the return-percent division downstream.
		return nil, SkipNoOpeningPrice
	}

	var shares int
	var invest float64
	if opening > maxPerStock {
		if !buyExpensive {
			return nil, SkipOverCap
		}
		shares = 1
		invest = opening
	} else {
		shares = int(math.Floor(maxPerStock / opening))
		invest = float64(shares) * opening
	}

	if invest > availableCapital {
		return nil, SkipInsufficientCapital
	}

	sellPrice, result := resolveSellPrice(pl)
	if sellPrice <= 0 {
		// No way to close the position.
		return nil, SkipNoSellPrice
	}

	sellAmount := float64(shares) * sellPrice
	profit := sellAmount - invest
	returnPercent := 0.0
	if invest > 0 {
		returnPercent = profit / invest * 100
	}

	// A skip reason only makes sense on a trade the entry check rejected.
	skipReason := ""
	if !pl.Buyable() {
		skipReason = pl.EffectiveSkipReason()
	}

	return &domain.SimulatedTrade{
		TradeID:         idhash.ComputeTradeID(date, obs.Code, shares, opening),
		Date:            date,
		StockCode:       obs.Code,
		StockName:       obs.Name,
		SelectionScore:  obs.SelectionScore,
		SelectionReason: obs.SelectionReason,
		ShouldBuy:       pl.Buyable(),
		SkipReason:      skipReason,
		BuyPrice:        opening,
		Shares:          shares,
		InvestAmount:    invest,
		SellPrice:       sellPrice,
		SellAmount:      sellAmount,
		Profit:          profit,
		ReturnPercent:   returnPercent,
		Result:          result,
		FirstHitTime:    pl.FirstHitTime,
		CapitalAfter:    availableCapital + profit,
		ActualResult:    pl.ActualResult,
		VirtualResult:   pl.VirtualResult,
	}, ""
}

// priceSource is one accessor in a sell-price fallback chain.
type priceSource func(pl *domain.ProfitLossAnalysis) float64

// Fallback chains tried in order; the first positive price wins. The
// precedence (primary target → actual-result target → closing →
// actual-result closing) is part of the tested contract.
var (
	profitChain = []priceSource{
		func(pl *domain.ProfitLossAnalysis) float64 { return pl.ProfitTargetPrice },
		func(pl *domain.ProfitLossAnalysis) float64 {
			if pl.ActualResult == nil {
				return 0
			}
			return pl.ActualResult.ProfitTargetPrice
		},
		closingPrice,
		actualClosingPrice,
	}

	lossChain = []priceSource{
		func(pl *domain.ProfitLossAnalysis) float64 { return pl.LossTargetPrice },
		func(pl *domain.ProfitLossAnalysis) float64 {
			if pl.ActualResult == nil {
				return 0
			}
			return pl.ActualResult.LossTargetPrice
		},
		closingPrice,
		actualClosingPrice,
	}

	noneChain = []priceSource{
		closingPrice,
		actualClosingPrice,
	}
)

func closingPrice(pl *domain.ProfitLossAnalysis) float64 { return pl.ClosingPrice }

func actualClosingPrice(pl *domain.ProfitLossAnalysis) float64 {
	if pl.ActualResult == nil {
		return 0
	}
	return pl.ActualResult.ClosingPrice
}

// resolveSellPrice picks the exit price chain for the first-hit branch and
// returns the resolved price with the matching result tag. A zero price
// means all sources were empty and the observation cannot be closed.
func resolveSellPrice(pl *domain.ProfitLossAnalysis) (float64, string) {
	switch pl.FirstHit {
	case domain.FirstHitProfit:
		return firstPositive(pl, profitChain), domain.ResultProfit
	case domain.FirstHitLoss:
		return firstPositive(pl, lossChain), domain.ResultLoss
	default:
		return firstPositive(pl, noneChain), domain.ResultNone
	}
}

func firstPositive(pl *domain.ProfitLossAnalysis, chain []priceSource) float64 {
	for _, src := range chain {
		if v := src(pl); v > 0 {
			return v
		}
	}
	return 0
}
