package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Period: %s ~ %s | Days processed: %d | Days missing: %d\n\n",
		r.StartDate, r.EndDate, r.DaysProcessed, r.DaysMissing))

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %s |\n", formatAmount(r.InitialCapital)))
	sb.WriteString(fmt.Sprintf("| Max Per Stock | %s |\n", formatAmount(r.MaxPerStock)))
	sb.WriteString(fmt.Sprintf("| Buy Expensive | %t |\n", r.BuyExpensive))
	sb.WriteString("\n")

	// Overall
	sb.WriteString("## Overall\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Final Capital | %s |\n", formatAmount(r.Overall.FinalCapital)))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", r.Overall.TotalReturn))
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Overall.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Overall.WinRate))
	sb.WriteString(fmt.Sprintf("| Profit / Loss / None | %d / %d / %d |\n",
		r.Overall.ProfitCount, r.Overall.LossCount, r.Overall.NoneCount))
	sb.WriteString(fmt.Sprintf("| None Split (+/-/0) | %d / %d / %d |\n",
		r.Overall.NoneProfitCount, r.Overall.NoneLossCount, r.Overall.NoneNeutralCount))
	sb.WriteString(fmt.Sprintf("| Avg Win | %.2f%% |\n", r.Overall.AvgWin))
	sb.WriteString(fmt.Sprintf("| Avg Loss | %.2f%% |\n", r.Overall.AvgLoss))
	sb.WriteString(fmt.Sprintf("| Max Win Streak | %d |\n", r.Overall.MaxWinStreak))
	sb.WriteString(fmt.Sprintf("| Max Loss Streak | %d |\n", r.Overall.MaxLossStreak))
	sb.WriteString("\n")

	// Score Bands
	sb.WriteString("## By Score Band\n\n")
	if len(r.ByScoreBand) > 0 {
		sb.WriteString("| Band | Trades | Win Rate | Avg Return |\n")
		sb.WriteString("|------|--------|----------|------------|\n")
		for _, b := range r.ByScoreBand {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% | %.2f%% |\n",
				b.Band, b.Count, b.WinRate, b.AvgReturn))
		}
	} else {
		sb.WriteString("No trades.\n")
	}
	sb.WriteString("\n")

	// By Date
	sb.WriteString("## By Date\n\n")
	if len(r.ByDate) > 0 {
		sb.WriteString("| Date | Trades | Profit | Loss | None | Total Return |\n")
		sb.WriteString("|------|--------|--------|------|------|-------------|\n")
		for _, d := range r.ByDate {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %.2f%% |\n",
				d.Date, d.Count, d.ProfitCount, d.LossCount, d.NoneCount, d.TotalReturn))
		}
	} else {
		sb.WriteString("No trades.\n")
	}
	sb.WriteString("\n")

	// By Weekday
	sb.WriteString("## By Weekday\n\n")
	if len(r.ByWeekday) > 0 {
		sb.WriteString("| Day | Trades | Win Rate | Avg Return | None (+/-/0) |\n")
		sb.WriteString("|-----|--------|----------|------------|-------------|\n")
		for _, w := range r.ByWeekday {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% | %.2f%% | %d / %d / %d |\n",
				w.Day, w.Count, w.WinRate, w.AvgReturn,
				w.NoneProfitCount, w.NoneLossCount, w.NoneNeutralCount))
		}
	} else {
		sb.WriteString("No trades.\n")
	}
	sb.WriteString("\n")

	// By Reason
	sb.WriteString("## By Selection Reason\n\n")
	if len(r.ByReason) > 0 {
		sb.WriteString("| Reason | Trades | Win Rate | Avg Return |\n")
		sb.WriteString("|--------|--------|----------|------------|\n")
		for _, rr := range r.ByReason {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% | %.2f%% |\n",
				rr.Reason, rr.Count, rr.WinRate, rr.AvgReturn))
		}
	} else {
		sb.WriteString("No trades.\n")
	}
	sb.WriteString("\n")

	// Time of Day
	sb.WriteString("## First Hits By Time Of Day\n\n")
	sb.WriteString("| Slot | Profit Hits | Loss Hits |\n")
	sb.WriteString("|------|-------------|----------|\n")
	for _, s := range r.ByTimeOfDay {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", s.Slot, s.ProfitHits, s.LossHits))
	}
	sb.WriteString("\n")

	// Return Distribution
	sb.WriteString("## Return Distribution\n\n")
	sb.WriteString("| Bucket | Trades |\n")
	sb.WriteString("|--------|--------|\n")
	for _, b := range r.ReturnDistribution {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", b.Bucket, b.Count))
	}
	sb.WriteString("\n")

	// Equity Curve
	sb.WriteString("## Equity Curve\n\n")
	if len(r.EquityCurve) > 0 {
		sb.WriteString("| Date | Capital |\n")
		sb.WriteString("|------|--------|\n")
		for _, p := range r.EquityCurve {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date, formatAmount(p.Capital)))
		}
	} else {
		sb.WriteString("No equity points.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
