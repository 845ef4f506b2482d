package memory

import (
	"context"
	"sort"
	"sync"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DaySnapshot // keyed by compact date
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.DaySnapshot),
	}
}

// Insert adds a day's snapshot. Returns ErrDuplicateKey if the date exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.DaySnapshot) error {
	if snap == nil || snap.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.Date]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[snap.Date] = copySnapshot(snap)
	return nil
}

// GetByDate retrieves the snapshot for a date. Returns ErrNotFound if absent.
func (s *SnapshotStore) GetByDate(_ context.Context, date string) (*domain.DaySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[date]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copySnapshot(snap), nil
}

// ListDates returns all stored dates in ascending order.
func (s *SnapshotStore) ListDates(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.data))
	for d := range s.data {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// copySnapshot makes a shallow-safe copy preserving observation order.
// Observations themselves are immutable once loaded, so the slice copy is
// enough to isolate callers from each other.
func copySnapshot(snap *domain.DaySnapshot) *domain.DaySnapshot {
	out := &domain.DaySnapshot{
		Date:   snap.Date,
		Stocks: make([]*domain.StockObservation, len(snap.Stocks)),
	}
	copy(out.Stocks, snap.Stocks)
	return out
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
