package backtest

import "time"

// TradingDays enumerates weekdays between start and end inclusive, in
// ascending order. Weekends are excluded; market holidays are not modeled,
// they simply show up as days with no snapshot data.
func TradingDays(start, end time.Time) []time.Time {
	start = truncateDay(start)
	end = truncateDay(end)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// Period names accepted by QuickRange.
type Period string

const (
	PeriodYear   Period = "year"   // since January 1st
	PeriodMonth  Period = "month"  // since the 1st of the month
	PeriodWeek   Period = "week"   // last 7 days
	Period7Days  Period = "7days"  // last 7 days
	Period30Days Period = "30days" // last 30 days
)

// QuickRange resolves a named period to a (start, end) date pair ending at
// now. Unknown periods default to now..now.
func QuickRange(now time.Time, period Period) (time.Time, time.Time) {
	end := truncateDay(now)
	start := end

	switch period {
	case PeriodYear:
		start = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location())
	case PeriodMonth:
		start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	case PeriodWeek, Period7Days:
		start = end.AddDate(0, 0, -7)
	case Period30Days:
		start = end.AddDate(0, 0, -30)
	}
	return start, end
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
