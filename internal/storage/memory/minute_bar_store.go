package memory

import (
	"context"
	"sort"
	"sync"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

type barKey struct {
	code string
	date string
	time string
}

// MinuteBarStore is an in-memory implementation of storage.MinuteBarStore.
type MinuteBarStore struct {
	mu   sync.RWMutex
	data map[barKey]*domain.MinuteBar
}

// NewMinuteBarStore creates a new in-memory minute bar store.
func NewMinuteBarStore() *MinuteBarStore {
	return &MinuteBarStore{
		data: make(map[barKey]*domain.MinuteBar),
	}
}

// InsertBulk adds multiple bars. Fails the entire batch on any duplicate.
func (s *MinuteBarStore) InsertBulk(_ context.Context, bars []*domain.MinuteBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: detect duplicates, existing and intra-batch.
	batchKeys := make(map[barKey]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Code == "" || b.Date == "" || b.Time == "" {
			return storage.ErrInvalidInput
		}
		k := barKey{code: b.Code, date: b.Date, time: b.Time}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert all.
	for _, b := range bars {
		cp := *b
		s.data[barKey{code: b.Code, date: b.Date, time: b.Time}] = &cp
	}
	return nil
}

// GetByCodeDate retrieves all bars for a stock on a day, ordered by time ASC.
func (s *MinuteBarStore) GetByCodeDate(_ context.Context, code, date string) ([]*domain.MinuteBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MinuteBar
	for k, b := range s.data {
		if k.code == code && k.date == date {
			cp := *b
			result = append(result, &cp)
		}
	}

	// Zero-padded HH:MM sorts correctly as a string.
	sort.Slice(result, func(i, j int) bool {
		return result[i].Time < result[j].Time
	})
	return result, nil
}

// ListCodes returns the distinct stock codes with bars on a day.
func (s *MinuteBarStore) ListCodes(_ context.Context, date string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range s.data {
		if k.date == date {
			seen[k.code] = struct{}{}
		}
	}

	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes, nil
}

var _ storage.MinuteBarStore = (*MinuteBarStore)(nil)
