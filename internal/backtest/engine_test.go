package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/snapshot"
)

// fakeProvider serves snapshots from a map keyed by compact date.
type fakeProvider struct {
	snaps  map[string]*domain.DaySnapshot
	broken map[string]bool
}

func (p *fakeProvider) GetByDate(_ context.Context, day time.Time) (*domain.DaySnapshot, error) {
	date := day.Format(domain.CompactDateLayout)
	if p.broken[date] {
		return nil, errors.New("corrupt snapshot")
	}
	snap, ok := p.snaps[date]
	if !ok {
		return nil, snapshot.ErrNoData
	}
	return snap, nil
}

func day(date string, stocks ...*domain.StockObservation) *domain.DaySnapshot {
	return &domain.DaySnapshot{Date: date, Stocks: stocks}
}

func profitObs(code string, opening, target float64) *domain.StockObservation {
	return &domain.StockObservation{
		Code: code,
		Analysis: &domain.ProfitLossAnalysis{
			OpeningPrice:      opening,
			ProfitTargetPrice: target,
			FirstHit:          domain.FirstHitProfit,
		},
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestEngine_Run_CapitalCompounds(t *testing.T) {
	// Mon 2025-03-03 and Tue 2025-03-04, one profitable trade each.
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{
		"20250303": day("20250303", profitObs("005930", 10000, 10500)),
		"20250304": day("20250304", profitObs("000660", 20000, 21000)),
	}}

	engine := NewEngine(provider)
	result, err := engine.Run(context.Background(), Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-04"),
		InitialCapital: 10_000_000,
		MaxPerStock:    1_000_000,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(result.Trades))
	}

	// Day 1: 100 shares * 500 profit = 50_000. Day 2: 50 shares * 1000 = 50_000.
	if result.Trades[0].CapitalAfter != 10_050_000 {
		t.Errorf("day 1 capital = %f, want 10050000", result.Trades[0].CapitalAfter)
	}
	if result.FinalCapital != 10_100_000 {
		t.Errorf("final capital = %f, want 10100000", result.FinalCapital)
	}

	// Final capital always equals the last equity point.
	last := result.EquityCurve[len(result.EquityCurve)-1]
	if last.Capital != result.FinalCapital {
		t.Errorf("last equity %f != final capital %f", last.Capital, result.FinalCapital)
	}
}

func TestEngine_Run_EquityCurveSeed(t *testing.T) {
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{}}

	result, err := NewEngine(provider).Run(context.Background(), Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-05"),
		InitialCapital: 10_000_000,
		MaxPerStock:    1_000_000,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// No data at all: the curve still opens with the seed point.
	if len(result.EquityCurve) != 1 {
		t.Fatalf("equity points = %d, want 1", len(result.EquityCurve))
	}
	seed := result.EquityCurve[0]
	if seed.Date != "2025-03-03" {
		t.Errorf("seed date = %q, want 2025-03-03", seed.Date)
	}
	if seed.Capital != 10_000_000 {
		t.Errorf("seed capital = %f, want 10000000", seed.Capital)
	}
	if result.FinalCapital != 10_000_000 {
		t.Errorf("final capital = %f, want initial", result.FinalCapital)
	}
	if result.DaysMissing != 3 {
		t.Errorf("days missing = %d, want 3", result.DaysMissing)
	}
}

func TestEngine_Run_MissingAndMalformedDaysSkip(t *testing.T) {
	// Mon has data, Tue is missing, Wed is corrupt, Thu has data.
	provider := &fakeProvider{
		snaps: map[string]*domain.DaySnapshot{
			"20250303": day("20250303", profitObs("005930", 10000, 10500)),
			"20250306": day("20250306", profitObs("000660", 10000, 10500)),
		},
		broken: map[string]bool{"20250305": true},
	}

	result, err := NewEngine(provider).Run(context.Background(), Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-06"),
		InitialCapital: 10_000_000,
		MaxPerStock:    1_000_000,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.DaysProcessed != 2 {
		t.Errorf("days processed = %d, want 2", result.DaysProcessed)
	}
	if result.DaysMissing != 2 {
		t.Errorf("days missing = %d, want 2", result.DaysMissing)
	}
	if len(result.Trades) != 2 {
		t.Errorf("trades = %d, want 2", len(result.Trades))
	}
	// Seed + one point per present day.
	if len(result.EquityCurve) != 3 {
		t.Errorf("equity points = %d, want 3", len(result.EquityCurve))
	}
}

func TestEngine_Run_SequentialAdmission(t *testing.T) {
	// Two stocks on one day, each needing 1_000_000. Capital only covers
	// the first; the second must be rejected by the admission gate.
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{
		"20250303": day("20250303",
			profitObs("005930", 10000, 10500),
			profitObs("000660", 10000, 10500),
		),
	}}

	result, err := NewEngine(provider).Run(context.Background(), Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-03"),
		InitialCapital: 1_500_000,
		MaxPerStock:    1_000_000,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(result.Trades))
	}
	if result.Trades[0].StockCode != "005930" {
		t.Errorf("traded %q, want first observation 005930", result.Trades[0].StockCode)
	}
}

func TestEngine_Run_NativeObservationOrder(t *testing.T) {
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{
		"20250303": day("20250303",
			profitObs("900001", 10000, 10500),
			profitObs("000001", 10000, 10500),
			profitObs("500001", 10000, 10500),
		),
	}}

	result, err := NewEngine(provider).Run(context.Background(), Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-03"),
		InitialCapital: 10_000_000,
		MaxPerStock:    1_000_000,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"900001", "000001", "500001"}
	if len(result.Trades) != len(want) {
		t.Fatalf("trades = %d, want %d", len(result.Trades), len(want))
	}
	for i, code := range want {
		if result.Trades[i].StockCode != code {
			t.Errorf("trade[%d] = %q, want %q", i, result.Trades[i].StockCode, code)
		}
	}
}

func TestEngine_Run_InvalidConfig(t *testing.T) {
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{}}

	cases := []Config{
		{}, // no dates
		{StartDate: mustDate(t, "2025-03-04"), EndDate: mustDate(t, "2025-03-03"),
			InitialCapital: 10_000_000, MaxPerStock: 1_000_000}, // reversed range
		{StartDate: mustDate(t, "2025-03-03"), EndDate: mustDate(t, "2025-03-04"),
			InitialCapital: 50_000, MaxPerStock: 1_000_000}, // capital below minimum
		{StartDate: mustDate(t, "2025-03-03"), EndDate: mustDate(t, "2025-03-04"),
			InitialCapital: 10_000_000, MaxPerStock: 5_000}, // per-stock below minimum
	}

	for i, cfg := range cases {
		if _, err := NewEngine(provider).Run(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: err = %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestEngine_Run_ProgressHook(t *testing.T) {
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{
		"20250303": day("20250303", profitObs("005930", 10000, 10500)),
		"20250304": day("20250304"),
	}}

	var progress []DayProgress
	engine := NewEngine(provider).WithProgress(func(p DayProgress) {
		progress = append(progress, p)
	})

	if _, err := engine.Run(context.Background(), Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-04"),
		InitialCapital: 10_000_000,
		MaxPerStock:    1_000_000,
	}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(progress) != 2 {
		t.Fatalf("progress calls = %d, want 2", len(progress))
	}
	if progress[0].TradeCount != 1 || progress[1].TradeCount != 0 {
		t.Errorf("trade counts = %d, %d; want 1, 0", progress[0].TradeCount, progress[1].TradeCount)
	}
	if progress[1].DayIndex != 2 || progress[1].DayTotal != 2 {
		t.Errorf("day index/total = %d/%d, want 2/2", progress[1].DayIndex, progress[1].DayTotal)
	}
}

func TestEngine_Run_Canceled(t *testing.T) {
	provider := &fakeProvider{snaps: map[string]*domain.DaySnapshot{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(provider).Run(ctx, Config{
		StartDate:      mustDate(t, "2025-03-03"),
		EndDate:        mustDate(t, "2025-03-04"),
		InitialCapital: 10_000_000,
		MaxPerStock:    1_000_000,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
