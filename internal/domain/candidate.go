package domain

// MorningCandidateList is the pre-market candidate list for one day.
// It carries the same selection metadata as a StockObservation but no
// intraday outcome fields; consumed by the "today" presentation feed.
type MorningCandidateList struct {
	Date       string              `json:"date"` // YYYY-MM-DD
	Candidates []*MorningCandidate `json:"candidates"`
}

// MorningCandidate is one pre-market pick.
type MorningCandidate struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	TotalScore      int     `json:"total_score"`
	SelectionReason string  `json:"selection_reason"`
	CurrentPrice    float64 `json:"current_price"`
}

// TodayPick is the unified "today" view built from either the morning
// candidate list or the latest intraday snapshot's entry-check data.
type TodayPick struct {
	Date       string          `json:"date"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Score      int             `json:"score"`
	Reason     string          `json:"reason"`
	ShouldBuy  bool            `json:"should_buy"`
	SkipReason string          `json:"skip_reason,omitempty"`
	EntryPrice float64         `json:"entry_price,omitempty"`
	EntryTime  string          `json:"entry_time,omitempty"`
	Actual     *ResultSnapshot `json:"actual_result,omitempty"`
	Virtual    *ResultSnapshot `json:"virtual_result,omitempty"`
}
