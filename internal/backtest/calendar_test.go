package backtest

import (
	"testing"
	"time"
)

func TestTradingDays_SkipsWeekends(t *testing.T) {
	// Fri 2025-02-28 through Tue 2025-03-04: Sat and Sun drop out.
	start := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	days := TradingDays(start, end)
	if len(days) != 3 {
		t.Fatalf("days = %d, want 3", len(days))
	}

	want := []string{"2025-02-28", "2025-03-03", "2025-03-04"}
	for i, d := range days {
		if got := d.Format("2006-01-02"); got != want[i] {
			t.Errorf("day[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestTradingDays_InclusiveBounds(t *testing.T) {
	// Single weekday range.
	d := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	days := TradingDays(d, d)
	if len(days) != 1 {
		t.Fatalf("days = %d, want 1", len(days))
	}

	// Weekend-only range yields nothing.
	sat := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	if days := TradingDays(sat, sun); len(days) != 0 {
		t.Errorf("weekend days = %d, want 0", len(days))
	}
}

func TestTradingDays_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 3, 3, 15, 30, 0, 0, time.UTC)
	end := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	days := TradingDays(start, end)
	if len(days) != 1 {
		t.Fatalf("days = %d, want 1 (same calendar day)", len(days))
	}
}

func TestQuickRange(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		period Period
		start  string
	}{
		{PeriodYear, "2025-01-01"},
		{PeriodMonth, "2025-03-01"},
		{PeriodWeek, "2025-03-08"},
		{Period7Days, "2025-03-08"},
		{Period30Days, "2025-02-13"},
	}

	for _, tc := range cases {
		start, end := QuickRange(now, tc.period)
		if got := start.Format("2006-01-02"); got != tc.start {
			t.Errorf("%s: start = %s, want %s", tc.period, got, tc.start)
		}
		if got := end.Format("2006-01-02"); got != "2025-03-15" {
			t.Errorf("%s: end = %s, want 2025-03-15", tc.period, got)
		}
	}
}
