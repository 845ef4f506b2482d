package domain

// MinuteBar is one intraday minute candle for a stock. Bars are the raw
// input the intraday analyzer turns into a ProfitLossAnalysis.
type MinuteBar struct {
	Code   string  `json:"code"`
	Date   string  `json:"date"` // compact YYYYMMDD
	Time   string  `json:"time"` // zero-padded HH:MM
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}
