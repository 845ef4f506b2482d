package storage

import (
	"context"

	"stock-backtest-lab/internal/domain"
)

// SnapshotStore provides access to per-day intraday snapshot storage.
// Observation order within a day is significant and must survive a
// round trip through the store.
type SnapshotStore interface {
	// Insert adds a day's snapshot. Returns ErrDuplicateKey if the date exists.
	Insert(ctx context.Context, s *domain.DaySnapshot) error

	// GetByDate retrieves the snapshot for a compact YYYYMMDD date.
	// Returns ErrNotFound if no data exists for that day.
	GetByDate(ctx context.Context, date string) (*domain.DaySnapshot, error)

	// ListDates returns all stored dates in ascending order.
	ListDates(ctx context.Context) ([]string, error)
}

// MorningCandidateStore provides access to the pre-market candidate list.
// Only the most recent list is meaningful; Put replaces any previous one.
type MorningCandidateStore interface {
	// Put stores the candidate list, replacing the previous list.
	Put(ctx context.Context, l *domain.MorningCandidateList) error

	// GetLatest retrieves the most recent list. Returns ErrNotFound if none.
	GetLatest(ctx context.Context) (*domain.MorningCandidateList, error)
}

// MinuteBarStore provides access to raw intraday minute bars.
type MinuteBarStore interface {
	// InsertBulk adds multiple bars. Fails the entire batch on any
	// duplicate (code, date, time).
	InsertBulk(ctx context.Context, bars []*domain.MinuteBar) error

	// GetByCodeDate retrieves all bars for a stock on a day, ordered by
	// time ASC.
	GetByCodeDate(ctx context.Context, code, date string) ([]*domain.MinuteBar, error)

	// ListCodes returns the distinct stock codes with bars on a day,
	// sorted ascending.
	ListCodes(ctx context.Context, date string) ([]string, error)
}
