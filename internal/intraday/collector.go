package intraday

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/observability"
	"stock-backtest-lab/internal/storage"
)

// Collector turns a day's stored minute bars into a snapshot and persists
// it. Candidate metadata (name, score, reason) is merged in when a morning
// candidate list covers the stock.
type Collector struct {
	bars       storage.MinuteBarStore
	snapshots  storage.SnapshotStore
	candidates storage.MorningCandidateStore
	logger     *log.Logger

	profitPct float64
	lossPct   float64
}

// NewCollector creates a collector over the given stores. candidateStore
// may be nil; observations then carry codes only.
func NewCollector(barStore storage.MinuteBarStore, snapStore storage.SnapshotStore, candidateStore storage.MorningCandidateStore) *Collector {
	return &Collector{
		bars:       barStore,
		snapshots:  snapStore,
		candidates: candidateStore,
		profitPct:  DefaultProfitTargetPercent,
		lossPct:    DefaultLossTargetPercent,
	}
}

// WithTargets overrides the profit and loss target percentages.
func (c *Collector) WithTargets(profitPct, lossPct float64) *Collector {
	c.profitPct = profitPct
	c.lossPct = lossPct
	return c
}

// WithLogger sets a logger for per-stock diagnostics.
func (c *Collector) WithLogger(l *log.Logger) *Collector {
	c.logger = l
	return c
}

// CollectDay analyzes every stock with bars on the given compact date and
// inserts the resulting snapshot. Stocks whose bars cannot be analyzed are
// skipped with a log line rather than failing the day.
func (c *Collector) CollectDay(ctx context.Context, date string) (*domain.DaySnapshot, error) {
	codes, err := c.bars.ListCodes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list codes for %s: %w", date, err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no bars for %s: %w", date, storage.ErrNotFound)
	}

	meta := c.loadCandidateMeta(ctx)

	snap := &domain.DaySnapshot{Date: date}
	for _, code := range codes {
		bars, err := c.bars.GetByCodeDate(ctx, code, date)
		if err != nil {
			return nil, fmt.Errorf("load bars for %s/%s: %w", code, date, err)
		}

		analysis, err := Analyze(bars, c.profitPct, c.lossPct)
		if err != nil {
			if c.logger != nil {
				c.logger.Printf("skipping %s on %s: %v", code, date, err)
			}
			continue
		}

		obs := &domain.StockObservation{Code: code, Analysis: analysis}
		if m, ok := meta[code]; ok {
			obs.Name = m.Name
			obs.SelectionScore = m.TotalScore
			obs.SelectionReason = m.SelectionReason
		}
		snap.Stocks = append(snap.Stocks, obs)
		observability.RecordAnalysisBuilt()
	}

	if len(snap.Stocks) == 0 {
		return nil, fmt.Errorf("no analyzable stocks for %s: %w", date, storage.ErrInvalidInput)
	}

	if err := c.snapshots.Insert(ctx, snap); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("snapshot for %s already stored: %w", date, err)
		}
		return nil, fmt.Errorf("insert snapshot for %s: %w", date, err)
	}
	observability.RecordSnapshotIngested()

	return snap, nil
}

func (c *Collector) loadCandidateMeta(ctx context.Context) map[string]*domain.MorningCandidate {
	meta := make(map[string]*domain.MorningCandidate)
	if c.candidates == nil {
		return meta
	}
	list, err := c.candidates.GetLatest(ctx)
	if err != nil {
		return meta
	}
	for _, cand := range list.Candidates {
		meta[cand.Code] = cand
	}
	return meta
}
