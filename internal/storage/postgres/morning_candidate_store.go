package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/observability"
	"stock-backtest-lab/internal/storage"
)

// MorningCandidateStore implements storage.MorningCandidateStore using
// PostgreSQL. One row per list; Put upserts on the list date so re-running
// the morning pipeline replaces that day's list.
type MorningCandidateStore struct {
	pool *Pool
}

// NewMorningCandidateStore creates a new MorningCandidateStore.
func NewMorningCandidateStore(pool *Pool) *MorningCandidateStore {
	return &MorningCandidateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MorningCandidateStore = (*MorningCandidateStore)(nil)

// Put stores the candidate list, replacing any list for the same date.
func (s *MorningCandidateStore) Put(ctx context.Context, l *domain.MorningCandidateList) error {
	start := time.Now()
	err := s.put(ctx, l)
	observability.RecordDBQuery("postgres", "put_morning_candidates", time.Since(start).Seconds(), err)
	return err
}

func (s *MorningCandidateStore) put(ctx context.Context, l *domain.MorningCandidateList) error {
	payload, err := json.Marshal(l.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	query := `
		INSERT INTO morning_candidates (list_date, candidates)
		VALUES ($1, $2)
		ON CONFLICT (list_date) DO UPDATE SET candidates = EXCLUDED.candidates
	`

	if _, err := s.pool.Exec(ctx, query, l.Date, payload); err != nil {
		return fmt.Errorf("put morning candidates: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent list. Returns ErrNotFound if none.
func (s *MorningCandidateStore) GetLatest(ctx context.Context) (*domain.MorningCandidateList, error) {
	start := time.Now()
	l, err := s.getLatest(ctx)
	observability.RecordDBQuery("postgres", "get_latest_morning_candidates", time.Since(start).Seconds(), err)
	return l, err
}

func (s *MorningCandidateStore) getLatest(ctx context.Context) (*domain.MorningCandidateList, error) {
	query := `
		SELECT list_date, candidates
		FROM morning_candidates
		ORDER BY list_date DESC
		LIMIT 1
	`

	var l domain.MorningCandidateList
	var payload []byte
	err := s.pool.QueryRow(ctx, query).Scan(&l.Date, &payload)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest morning candidates: %w", err)
	}

	if err := json.Unmarshal(payload, &l.Candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	return &l, nil
}
