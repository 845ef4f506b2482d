package domain

import "encoding/json"

// DaySnapshot is the set of stock observations recorded for one trading day.
// Stocks preserves the snapshot's native order; the backtest engine must not
// reorder observations within a day.
type DaySnapshot struct {
	Date   string              `json:"date"` // compact YYYYMMDD, matches intraday file naming
	Stocks []*StockObservation `json:"stocks"`
}

// StockObservation is one stock's recorded open/close/target/first-hit data
// for a single trading day. Immutable once loaded.
type StockObservation struct {
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	SelectionScore  int                 `json:"selection_score"`
	SelectionReason string              `json:"selection_reason"`
	Analysis        *ProfitLossAnalysis `json:"profit_loss_analysis"`
}

// ProfitLossAnalysis holds the intraday outcome of a single observation:
// which of the profit/loss targets was struck first, and at what prices the
// position opened and closed.
type ProfitLossAnalysis struct {
	OpeningPrice        float64 `json:"opening_price"`
	ProfitTargetPercent float64 `json:"profit_target_percent,omitempty"`
	LossTargetPercent   float64 `json:"loss_target_percent,omitempty"`
	ProfitTargetPrice   float64 `json:"profit_target_price,omitempty"`
	LossTargetPrice     float64 `json:"loss_target_price,omitempty"`
	FirstHit            string  `json:"first_hit,omitempty"` // "profit" | "loss" | "none"
	FirstHitTime        string  `json:"first_hit_time,omitempty"`
	FirstHitPrice       float64 `json:"first_hit_price,omitempty"`
	ClosingPrice        float64 `json:"closing_price,omitempty"`
	ClosingPercent      float64 `json:"closing_percent,omitempty"`

	// Entry check block. ShouldBuy defaults to true when absent.
	ShouldBuy  *bool       `json:"should_buy,omitempty"`
	SkipReason string      `json:"skip_reason,omitempty"`
	EntryCheck *EntryCheck `json:"entry_check,omitempty"`

	// Opaque pass-through sub-records. Known price fields are decoded for
	// the sell-price fallback chain; everything else rides along untouched.
	ActualResult  *ResultSnapshot `json:"actual_result,omitempty"`
	VirtualResult *ResultSnapshot `json:"virtual_result,omitempty"`
}

// FirstHit values.
const (
	FirstHitProfit = "profit"
	FirstHitLoss   = "loss"
	FirstHitNone   = "none"
)

// Buyable reports the effective should-buy flag. Absent means buy.
func (p *ProfitLossAnalysis) Buyable() bool {
	return p == nil || p.ShouldBuy == nil || *p.ShouldBuy
}

// EffectiveSkipReason resolves the skip reason from the analysis block,
// falling back to the entry-check block.
func (p *ProfitLossAnalysis) EffectiveSkipReason() string {
	if p == nil {
		return ""
	}
	if p.SkipReason != "" {
		return p.SkipReason
	}
	if p.EntryCheck != nil {
		return p.EntryCheck.SkipReason
	}
	return ""
}

// EntryCheck records the pre-entry gate evaluated at market open.
type EntryCheck struct {
	ShouldBuy  *bool   `json:"should_buy,omitempty"`
	SkipReason string  `json:"skip_reason,omitempty"`
	EntryPrice float64 `json:"entry_price,omitempty"`
	EntryTime  string  `json:"entry_time,omitempty"`
}

// ResultSnapshot is an actual/virtual result sub-record. The price fields
// participate in the sell-price fallback chain; the full original JSON is
// retained so the block round-trips untouched through trade output.
type ResultSnapshot struct {
	ProfitTargetPrice float64 `json:"profit_target_price,omitempty"`
	LossTargetPrice   float64 `json:"loss_target_price,omitempty"`
	ClosingPrice      float64 `json:"closing_price,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the known price fields and retains the raw block.
func (r *ResultSnapshot) UnmarshalJSON(data []byte) error {
	type alias ResultSnapshot
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = ResultSnapshot(a)
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the original block verbatim when one was decoded.
func (r ResultSnapshot) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	type alias ResultSnapshot
	return json.Marshal(alias(r))
}
