// Package snapshot supplies per-day intraday snapshots to the backtest
// engine. A provider either returns the day's observations or reports
// ErrNoData; the engine treats both missing and malformed days as
// skip-the-day, but providers keep the two distinguishable.
package snapshot

import (
	"context"
	"errors"
	"time"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

// ErrNoData is returned when no snapshot exists for the requested day.
var ErrNoData = errors.New("no snapshot data for day")

// Provider returns the snapshot for one trading day.
type Provider interface {
	// GetByDate returns the day's snapshot. Returns ErrNoData when the day
	// has no recorded data; any other error indicates malformed data.
	GetByDate(ctx context.Context, day time.Time) (*domain.DaySnapshot, error)
}

// StoreProvider serves snapshots from a storage.SnapshotStore.
type StoreProvider struct {
	store storage.SnapshotStore
}

// NewStoreProvider creates a provider backed by a snapshot store.
func NewStoreProvider(store storage.SnapshotStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// GetByDate implements Provider.
func (p *StoreProvider) GetByDate(ctx context.Context, day time.Time) (*domain.DaySnapshot, error) {
	snap, err := p.store.GetByDate(ctx, day.Format(domain.CompactDateLayout))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return snap, nil
}

var _ Provider = (*StoreProvider)(nil)
