package reporting

import (
	"fmt"
	"strings"

	"stock-backtest-lab/internal/domain"
)

// resultLabels maps result tags to Korean display labels.
var resultLabels = map[string]string{
	domain.ResultProfit: "익절",
	domain.ResultLoss:   "손절",
	domain.ResultNone:   "미달",
}

// RenderTradesCSV renders the trade list as a CSV string with Korean
// headers. Every trade is exported, including ones whose entry check said
// not to buy. The output starts with a UTF-8 BOM so spreadsheet tools
// detect the encoding.
func RenderTradesCSV(trades []*domain.SimulatedTrade) string {
	var sb strings.Builder

	sb.WriteString("\uFEFF")

	// Header
	sb.WriteString("날짜,종목명,종목코드,총점,선정사유,매수가,주식수,매도가,수익률,손익금액,결과\n")

	// Rows
	for _, t := range trades {
		label, ok := resultLabels[t.Result]
		if !ok {
			label = t.Result
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%s,%d,%s,%.2f%%,%s,%s\n",
			csvEscape(t.Date),
			csvEscape(t.StockName),
			csvEscape(t.StockCode),
			t.SelectionScore,
			csvEscape(t.SelectionReason),
			formatAmount(t.BuyPrice),
			t.Shares,
			formatAmount(t.SellPrice),
			t.ReturnPercent,
			formatAmount(t.Profit),
			label,
		))
	}

	return sb.String()
}

// csvEscape quotes a field containing commas, quotes, or newlines.
// Embedded quotes are doubled per RFC 4180.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
}

// formatAmount renders a won amount without a trailing fraction when the
// value is whole.
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
