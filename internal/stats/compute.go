// Package stats derives performance breakdowns from a completed trade list.
// Every function is pure: same trades in, same report out, no hidden state.
package stats

import (
	"math"
	"sort"
	"time"

	"stock-backtest-lab/internal/domain"
)

// OverallStats summarizes a whole run.
type OverallStats struct {
	FinalCapital float64 `json:"final_capital"`
	TotalReturn  float64 `json:"total_return"` // (final-initial)/initial*100
	TotalTrades  int     `json:"total_trades"`
	WinRate      float64 `json:"win_rate"` // profit trades / total * 100

	ProfitCount int `json:"profit_count"`
	LossCount   int `json:"loss_count"`
	NoneCount   int `json:"none_count"`

	// Three-way split of "none" trades by the sign of their return percent.
	// Strict >0 / <0 / ==0 on a computed float, kept as the source behaves.
	NoneProfitCount  int `json:"none_profit_count"`
	NoneLossCount    int `json:"none_loss_count"`
	NoneNeutralCount int `json:"none_neutral_count"`

	AvgWin  float64 `json:"avg_win"`  // mean return percent of profit trades
	AvgLoss float64 `json:"avg_loss"` // mean return percent of loss trades

	MaxWinStreak  int `json:"max_win_streak"`
	MaxLossStreak int `json:"max_loss_streak"`
}

// Overall computes run-level statistics over the trade list in order.
// Streaks run strictly over trade-list order; a "none" trade resets both
// streak counters.
func Overall(trades []*domain.SimulatedTrade, finalCapital, initialCapital float64) OverallStats {
	s := OverallStats{FinalCapital: finalCapital, TotalTrades: len(trades)}

	var winSum, lossSum float64
	for _, t := range trades {
		switch t.Result {
		case domain.ResultProfit:
			s.ProfitCount++
			winSum += t.ReturnPercent
		case domain.ResultLoss:
			s.LossCount++
			lossSum += t.ReturnPercent
		default:
			s.NoneCount++
			switch {
			case t.ReturnPercent > 0:
				s.NoneProfitCount++
			case t.ReturnPercent < 0:
				s.NoneLossCount++
			default:
				s.NoneNeutralCount++
			}
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.ProfitCount) / float64(s.TotalTrades) * 100
	}
	if initialCapital > 0 {
		s.TotalReturn = (finalCapital - initialCapital) / initialCapital * 100
	}
	if s.ProfitCount > 0 {
		s.AvgWin = winSum / float64(s.ProfitCount)
	}
	if s.LossCount > 0 {
		s.AvgLoss = lossSum / float64(s.LossCount)
	}

	s.MaxWinStreak, s.MaxLossStreak = computeStreaks(trades)
	return s
}

// computeStreaks finds the longest consecutive runs of profit and of loss
// trades. Alternating profit/loss restarts the opposite streak at 1; a
// "none" trade zeroes the running streak entirely.
func computeStreaks(trades []*domain.SimulatedTrade) (maxWin, maxLoss int) {
	current := 0
	streak := "" // "win" | "loss" | ""

	for _, t := range trades {
		switch t.Result {
		case domain.ResultProfit:
			if streak == "win" {
				current++
			} else {
				current = 1
				streak = "win"
			}
			if current > maxWin {
				maxWin = current
			}
		case domain.ResultLoss:
			if streak == "loss" {
				current++
			} else {
				current = 1
				streak = "loss"
			}
			if current > maxLoss {
				maxLoss = current
			}
		default:
			current = 0
			streak = ""
		}
	}
	return maxWin, maxLoss
}

// ScoreBandStats is one fixed score band's performance.
type ScoreBandStats struct {
	Band      string  `json:"band"`
	Count     int     `json:"count"`
	WinRate   float64 `json:"win_rate"`
	AvgReturn float64 `json:"avg_return"`
}

var scoreBands = []struct {
	label    string
	min, max int // inclusive bounds
}{
	{"0-50점", 0, 50},
	{"51-80점", 51, 80},
	{"81-100점", 81, 100},
	{"101점+", 101, 999},
}

// ByScoreBand partitions trades into fixed inclusive score bands.
// Empty bands are dropped.
func ByScoreBand(trades []*domain.SimulatedTrade) []ScoreBandStats {
	var out []ScoreBandStats
	for _, band := range scoreBands {
		var count, profitCount int
		var returnSum float64
		for _, t := range trades {
			if t.SelectionScore < band.min || t.SelectionScore > band.max {
				continue
			}
			count++
			returnSum += t.ReturnPercent
			if t.Result == domain.ResultProfit {
				profitCount++
			}
		}
		if count == 0 {
			continue
		}
		out = append(out, ScoreBandStats{
			Band:      band.label,
			Count:     count,
			WinRate:   float64(profitCount) / float64(count) * 100,
			AvgReturn: returnSum / float64(count),
		})
	}
	return out
}

// DateStats is one trading day's performance.
type DateStats struct {
	Date        string  `json:"date"`
	Count       int     `json:"count"`
	ProfitCount int     `json:"profit_count"`
	LossCount   int     `json:"loss_count"`
	NoneCount   int     `json:"none_count"`
	TotalReturn float64 `json:"total_return"` // summed return percent
}

// ByDate groups trades by date string, ordered by date descending.
// Lexicographic comparison is exact for zero-padded YYYY-MM-DD.
func ByDate(trades []*domain.SimulatedTrade) []DateStats {
	byDate := make(map[string]*DateStats)
	for _, t := range trades {
		d, ok := byDate[t.Date]
		if !ok {
			d = &DateStats{Date: t.Date}
			byDate[t.Date] = d
		}
		d.Count++
		d.TotalReturn += t.ReturnPercent
		switch t.Result {
		case domain.ResultProfit:
			d.ProfitCount++
		case domain.ResultLoss:
			d.LossCount++
		default:
			d.NoneCount++
		}
	}

	out := make([]DateStats, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// WeekdayStats is one weekday's aggregate performance.
type WeekdayStats struct {
	Day         string  `json:"day"`
	Count       int     `json:"count"`
	ProfitCount int     `json:"profit_count"`
	LossCount   int     `json:"loss_count"`
	WinRate     float64 `json:"win_rate"`
	AvgReturn   float64 `json:"avg_return"`

	NoneProfitCount  int `json:"none_profit_count"`
	NoneLossCount    int `json:"none_loss_count"`
	NoneNeutralCount int `json:"none_neutral_count"`
}

// Weekday display labels, Monday through Friday. No weekend keys: trading
// days never fall on weekends.
var weekdayLabels = map[time.Weekday]string{
	time.Monday:    "월",
	time.Tuesday:   "화",
	time.Wednesday: "수",
	time.Thursday:  "목",
	time.Friday:    "금",
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// ByWeekday aggregates trades per weekday Mon-Fri, dropping weekdays with
// no trades. Trades with unparseable dates are ignored.
func ByWeekday(trades []*domain.SimulatedTrade) []WeekdayStats {
	type acc struct {
		stats     WeekdayStats
		returnSum float64
	}
	byDay := make(map[time.Weekday]*acc)

	for _, t := range trades {
		day, err := time.Parse(domain.DateLayout, t.Date)
		if err != nil {
			continue
		}
		label, ok := weekdayLabels[day.Weekday()]
		if !ok {
			continue
		}

		a, ok := byDay[day.Weekday()]
		if !ok {
			a = &acc{stats: WeekdayStats{Day: label}}
			byDay[day.Weekday()] = a
		}

		a.stats.Count++
		a.returnSum += t.ReturnPercent
		switch t.Result {
		case domain.ResultProfit:
			a.stats.ProfitCount++
		case domain.ResultLoss:
			a.stats.LossCount++
		default:
			switch {
			case t.ReturnPercent > 0:
				a.stats.NoneProfitCount++
			case t.ReturnPercent < 0:
				a.stats.NoneLossCount++
			default:
				a.stats.NoneNeutralCount++
			}
		}
	}

	var out []WeekdayStats
	for _, wd := range weekdayOrder {
		a, ok := byDay[wd]
		if !ok {
			continue
		}
		a.stats.WinRate = float64(a.stats.ProfitCount) / float64(a.stats.Count) * 100
		a.stats.AvgReturn = a.returnSum / float64(a.stats.Count)
		out = append(out, a.stats)
	}
	return out
}

// ReasonStats is one normalized selection-reason bucket's performance.
type ReasonStats struct {
	Reason    string  `json:"reason"`
	Count     int     `json:"count"`
	WinRate   float64 `json:"win_rate"`
	AvgReturn float64 `json:"avg_return"`
}

// ByReason groups trades by normalized selection reason, sorted by count
// descending. Ties break by bucket label for deterministic output.
func ByReason(trades []*domain.SimulatedTrade) []ReasonStats {
	type acc struct {
		stats       ReasonStats
		profitCount int
		returnSum   float64
	}
	byReason := make(map[string]*acc)

	for _, t := range trades {
		reason := NormalizeReason(t.SelectionReason)
		a, ok := byReason[reason]
		if !ok {
			a = &acc{stats: ReasonStats{Reason: reason}}
			byReason[reason] = a
		}
		a.stats.Count++
		a.returnSum += t.ReturnPercent
		if t.Result == domain.ResultProfit {
			a.profitCount++
		}
	}

	out := make([]ReasonStats, 0, len(byReason))
	for _, a := range byReason {
		a.stats.WinRate = float64(a.profitCount) / float64(a.stats.Count) * 100
		a.stats.AvgReturn = a.returnSum / float64(a.stats.Count)
		out = append(out, a.stats)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// TimeSlotStats counts first hits inside one half-hour slot.
type TimeSlotStats struct {
	Slot       string `json:"slot"`
	ProfitHits int    `json:"profit_hits"`
	LossHits   int    `json:"loss_hits"`
}

type timeSlot struct {
	label      string
	start, end string // [start, end)
}

// Half-hour slots covering the KRX session 09:00-15:30.
var timeSlots = []timeSlot{
	{"09:00-09:30", "09:00", "09:30"},
	{"09:30-10:00", "09:30", "10:00"},
	{"10:00-10:30", "10:00", "10:30"},
	{"10:30-11:00", "10:30", "11:00"},
	{"11:00-11:30", "11:00", "11:30"},
	{"11:30-12:00", "11:30", "12:00"},
	{"12:00-12:30", "12:00", "12:30"},
	{"12:30-13:00", "12:30", "13:00"},
	{"13:00-13:30", "13:00", "13:30"},
	{"13:30-14:00", "13:30", "14:00"},
	{"14:00-14:30", "14:00", "14:30"},
	{"14:30-15:00", "14:30", "15:00"},
	{"15:00-15:30", "15:00", "15:30"},
}

// ByTimeOfDay counts profit and loss first hits per half-hour slot. The
// comparison is lexicographic on the first-hit string, which is exact for
// zero-padded 24-hour HH:MM. All slots are returned, empty or not.
func ByTimeOfDay(trades []*domain.SimulatedTrade) []TimeSlotStats {
	out := make([]TimeSlotStats, len(timeSlots))
	for i, slot := range timeSlots {
		out[i].Slot = slot.label
		for _, t := range trades {
			if t.FirstHitTime == "" {
				continue
			}
			if t.FirstHitTime < slot.start || t.FirstHitTime >= slot.end {
				continue
			}
			switch t.Result {
			case domain.ResultProfit:
				out[i].ProfitHits++
			case domain.ResultLoss:
				out[i].LossHits++
			}
		}
	}
	return out
}

// ReturnBucket is one return-percent distribution bucket.
type ReturnBucket struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type returnRange struct {
	label    string
	min, max float64 // [min, max)
}

// Distribution buckets: half-open [min, max), unbounded at the edges.
// -5.0 lands in "-5% ~ -3%", not "-10% ~ -5%".
var returnRanges = []returnRange{
	{"-10% 이하", math.Inf(-1), -10},
	{"-10% ~ -5%", -10, -5},
	{"-5% ~ -3%", -5, -3},
	{"-3% ~ -1%", -3, -1},
	{"-1% ~ 0%", -1, 0},
	{"0% ~ 1%", 0, 1},
	{"1% ~ 3%", 1, 3},
	{"3% ~ 5%", 3, 5},
	{"5% ~ 10%", 5, 10},
	{"10% 이상", 10, math.Inf(1)},
}

// ReturnDistribution counts trades per return-percent bucket. All buckets
// are returned, empty or not.
func ReturnDistribution(trades []*domain.SimulatedTrade) []ReturnBucket {
	out := make([]ReturnBucket, len(returnRanges))
	for i, r := range returnRanges {
		out[i].Bucket = r.label
		for _, t := range trades {
			if t.ReturnPercent >= r.min && t.ReturnPercent < r.max {
				out[i].Count++
			}
		}
	}
	return out
}
