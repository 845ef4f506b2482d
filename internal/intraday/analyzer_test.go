package intraday

import (
	"context"
	"errors"
	"math"
	"testing"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage/memory"
)

func bar(tm string, open, high, low, close float64) *domain.MinuteBar {
	return &domain.MinuteBar{
		Code: "005930", Date: "20250303", Time: tm,
		Open: open, High: high, Low: low, Close: close,
	}
}

func TestAnalyze_TargetsFromOpening(t *testing.T) {
	bars := []*domain.MinuteBar{
		bar("09:00", 10000, 10050, 9950, 10020),
		bar("09:01", 10020, 10100, 10000, 10080),
	}

	pl, err := Analyze(bars, 5, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if pl.OpeningPrice != 10000 {
		t.Errorf("OpeningPrice = %f, want 10000 (first bar open)", pl.OpeningPrice)
	}
	if pl.ProfitTargetPrice != 10500 {
		t.Errorf("ProfitTargetPrice = %f, want 10500", pl.ProfitTargetPrice)
	}
	if pl.LossTargetPrice != 9700 {
		t.Errorf("LossTargetPrice = %f, want 9700", pl.LossTargetPrice)
	}
	if pl.FirstHit != domain.FirstHitNone {
		t.Errorf("FirstHit = %q, want none", pl.FirstHit)
	}
	if pl.ClosingPrice != 10080 {
		t.Errorf("ClosingPrice = %f, want 10080 (last bar close)", pl.ClosingPrice)
	}
	if math.Abs(pl.ClosingPercent-0.8) > 1e-9 {
		t.Errorf("ClosingPercent = %f, want 0.8", pl.ClosingPercent)
	}
}

func TestAnalyze_TargetTruncation(t *testing.T) {
	// 10333 * 1.05 = 10849.65 -> 10849; 10333 * 0.97 = 10023.01 -> 10023
	bars := []*domain.MinuteBar{bar("09:00", 10333, 10400, 10300, 10350)}

	pl, err := Analyze(bars, 5, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.ProfitTargetPrice != 10849 {
		t.Errorf("ProfitTargetPrice = %f, want 10849 (truncated)", pl.ProfitTargetPrice)
	}
	if pl.LossTargetPrice != 10023 {
		t.Errorf("LossTargetPrice = %f, want 10023 (truncated)", pl.LossTargetPrice)
	}
}

func TestAnalyze_HitUsesUntruncatedThresholds(t *testing.T) {
	// Opening 1001 at 3%: profit threshold 1031.03, stored target 1031.
	// A high equal to the truncated target is below the real threshold.
	bars := []*domain.MinuteBar{bar("09:00", 1001, 1031, 1000, 1005)}

	pl, err := Analyze(bars, 3, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.ProfitTargetPrice != 1031 {
		t.Errorf("ProfitTargetPrice = %f, want 1031", pl.ProfitTargetPrice)
	}
	if pl.FirstHit != domain.FirstHitNone {
		t.Errorf("FirstHit = %q, want none below the 1031.03 threshold", pl.FirstHit)
	}

	bars = []*domain.MinuteBar{bar("09:00", 1001, 1032, 1000, 1005)}
	pl, err = Analyze(bars, 3, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.FirstHit != domain.FirstHitProfit {
		t.Errorf("FirstHit = %q, want profit at 1032", pl.FirstHit)
	}

	// Loss threshold 970.97, stored target 970. A low of 970.5 is above
	// the truncated target but below the real threshold.
	bars = []*domain.MinuteBar{bar("09:00", 1001, 1010, 970.5, 1005)}
	pl, err = Analyze(bars, 3, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.LossTargetPrice != 970 {
		t.Errorf("LossTargetPrice = %f, want 970", pl.LossTargetPrice)
	}
	if pl.FirstHit != domain.FirstHitLoss {
		t.Errorf("FirstHit = %q, want loss below the 970.97 threshold", pl.FirstHit)
	}
}

func TestAnalyze_FirstHitProfit(t *testing.T) {
	bars := []*domain.MinuteBar{
		bar("09:00", 10000, 10100, 9950, 10050),
		bar("09:30", 10050, 10520, 10000, 10400), // crosses 10500
		bar("10:00", 10400, 10600, 9600, 9700),   // would cross both, too late
	}

	pl, err := Analyze(bars, 5, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.FirstHit != domain.FirstHitProfit {
		t.Errorf("FirstHit = %q, want profit", pl.FirstHit)
	}
	if pl.FirstHitTime != "09:30" {
		t.Errorf("FirstHitTime = %q, want 09:30", pl.FirstHitTime)
	}
	if pl.FirstHitPrice != 10500 {
		t.Errorf("FirstHitPrice = %f, want target 10500", pl.FirstHitPrice)
	}
}

func TestAnalyze_ProfitCheckedBeforeLoss(t *testing.T) {
	// One wide bar straddling both targets counts as a profit hit.
	bars := []*domain.MinuteBar{
		bar("09:00", 10000, 10600, 9600, 10100),
	}

	pl, err := Analyze(bars, 5, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.FirstHit != domain.FirstHitProfit {
		t.Errorf("FirstHit = %q, want profit (checked before loss)", pl.FirstHit)
	}
}

func TestAnalyze_FirstHitLoss(t *testing.T) {
	bars := []*domain.MinuteBar{
		bar("09:00", 10000, 10100, 9950, 10000),
		bar("11:00", 10000, 10050, 9650, 9700), // drops through 9700
		bar("14:00", 9700, 10600, 9700, 10550), // recovery is too late
	}

	pl, err := Analyze(bars, 5, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.FirstHit != domain.FirstHitLoss {
		t.Errorf("FirstHit = %q, want loss (first hit wins)", pl.FirstHit)
	}
	if pl.FirstHitTime != "11:00" {
		t.Errorf("FirstHitTime = %q, want 11:00", pl.FirstHitTime)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	if _, err := Analyze(nil, 5, 3); !errors.Is(err, ErrNoBars) {
		t.Errorf("no bars: err = %v, want ErrNoBars", err)
	}

	bars := []*domain.MinuteBar{bar("09:00", 0, 100, 0, 50)}
	if _, err := Analyze(bars, 5, 3); err == nil {
		t.Error("zero opening price should fail")
	}
}

func TestAnalyze_DefaultTargets(t *testing.T) {
	bars := []*domain.MinuteBar{bar("09:00", 10000, 10100, 9900, 10000)}

	pl, err := Analyze(bars, 0, 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if pl.ProfitTargetPercent != DefaultProfitTargetPercent {
		t.Errorf("ProfitTargetPercent = %f, want default", pl.ProfitTargetPercent)
	}
	if pl.LossTargetPercent != DefaultLossTargetPercent {
		t.Errorf("LossTargetPercent = %f, want default", pl.LossTargetPercent)
	}
}

func TestCollector_CollectDay(t *testing.T) {
	ctx := context.Background()
	barStore := memory.NewMinuteBarStore()
	snapStore := memory.NewSnapshotStore()
	candStore := memory.NewMorningCandidateStore()

	if err := barStore.InsertBulk(ctx, []*domain.MinuteBar{
		bar("09:00", 10000, 10100, 9950, 10050),
		bar("09:30", 10050, 10520, 10000, 10400),
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	if err := candStore.Put(ctx, &domain.MorningCandidateList{
		Date: "2025-03-03",
		Candidates: []*domain.MorningCandidate{
			{Code: "005930", Name: "삼성전자", TotalScore: 85, SelectionReason: "AI 수혜주"},
		},
	}); err != nil {
		t.Fatalf("Put candidates failed: %v", err)
	}

	snap, err := NewCollector(barStore, snapStore, candStore).CollectDay(ctx, "20250303")
	if err != nil {
		t.Fatalf("CollectDay failed: %v", err)
	}

	if len(snap.Stocks) != 1 {
		t.Fatalf("stocks = %d, want 1", len(snap.Stocks))
	}
	obs := snap.Stocks[0]
	if obs.Name != "삼성전자" || obs.SelectionScore != 85 {
		t.Errorf("candidate metadata not merged: %q/%d", obs.Name, obs.SelectionScore)
	}
	if obs.Analysis == nil || obs.Analysis.FirstHit != domain.FirstHitProfit {
		t.Errorf("analysis missing or wrong: %+v", obs.Analysis)
	}

	// The snapshot must be persisted.
	stored, err := snapStore.GetByDate(ctx, "20250303")
	if err != nil {
		t.Fatalf("stored snapshot missing: %v", err)
	}
	if len(stored.Stocks) != 1 {
		t.Errorf("stored stocks = %d, want 1", len(stored.Stocks))
	}
}

func TestCollector_NoBarsForDay(t *testing.T) {
	ctx := context.Background()
	c := NewCollector(memory.NewMinuteBarStore(), memory.NewSnapshotStore(), nil)

	if _, err := c.CollectDay(ctx, "20250303"); err == nil {
		t.Error("expected error for day without bars")
	}
}
