package domain

// SimulatedTrade is one executed position produced by the trade simulator.
// Created exactly once per qualifying observation; never mutated afterwards.
type SimulatedTrade struct {
	TradeID string `json:"trade_id"`
	Date    string `json:"date"` // YYYY-MM-DD

	StockCode       string `json:"stock_code"`
	StockName       string `json:"stock_name"`
	SelectionScore  int    `json:"selection_score"`
	SelectionReason string `json:"selection_reason"`
	ShouldBuy       bool   `json:"should_buy"`
	SkipReason      string `json:"skip_reason,omitempty"`

	BuyPrice      float64 `json:"buy_price"`
	Shares        int     `json:"shares"`
	InvestAmount  float64 `json:"invest_amount"`
	SellPrice     float64 `json:"sell_price"`
	SellAmount    float64 `json:"sell_amount"`
	Profit        float64 `json:"profit"`         // sell_amount - invest_amount
	ReturnPercent float64 `json:"return_percent"` // profit / invest_amount * 100, 0 when invest is 0

	Result       string  `json:"result"` // "profit" | "loss" | "none"
	FirstHitTime string  `json:"first_hit_time,omitempty"`
	CapitalAfter float64 `json:"capital_after"`

	ActualResult  *ResultSnapshot `json:"actual_result,omitempty"`
	VirtualResult *ResultSnapshot `json:"virtual_result,omitempty"`
}

// Result tags. Mirror the first-hit branch taken during sell-price resolution.
const (
	ResultProfit = "profit"
	ResultLoss   = "loss"
	ResultNone   = "none"
)

// EquityPoint is one (date, capital) snapshot on the equity curve.
type EquityPoint struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Capital float64 `json:"capital"`
}
