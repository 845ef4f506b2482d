package memory

import (
	"context"
	"sync"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

// MorningCandidateStore is an in-memory implementation of
// storage.MorningCandidateStore.
type MorningCandidateStore struct {
	mu     sync.RWMutex
	latest *domain.MorningCandidateList
}

// NewMorningCandidateStore creates a new in-memory morning candidate store.
func NewMorningCandidateStore() *MorningCandidateStore {
	return &MorningCandidateStore{}
}

// Put stores the candidate list, replacing the previous list.
func (s *MorningCandidateStore) Put(_ context.Context, l *domain.MorningCandidateList) error {
	if l == nil || l.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	cp.Candidates = make([]*domain.MorningCandidate, len(l.Candidates))
	copy(cp.Candidates, l.Candidates)
	s.latest = &cp
	return nil
}

// GetLatest retrieves the most recent list. Returns ErrNotFound if none.
func (s *MorningCandidateStore) GetLatest(_ context.Context) (*domain.MorningCandidateList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, storage.ErrNotFound
	}

	cp := *s.latest
	cp.Candidates = make([]*domain.MorningCandidate, len(s.latest.Candidates))
	copy(cp.Candidates, s.latest.Candidates)
	return &cp, nil
}

var _ storage.MorningCandidateStore = (*MorningCandidateStore)(nil)
