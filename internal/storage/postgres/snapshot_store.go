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

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Each observation is one JSONB row keyed (trade_date, seq); seq preserves
// the snapshot's native observation order across a round trip.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a day's snapshot. Returns ErrDuplicateKey if the date exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.DaySnapshot) error {
	start := time.Now()
	err := s.insert(ctx, snap)
	observability.RecordDBQuery("postgres", "insert_snapshot", time.Since(start).Seconds(), err)
	return err
}

func (s *SnapshotStore) insert(ctx context.Context, snap *domain.DaySnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO day_snapshots (trade_date, seq, stock_code, observation)
		VALUES ($1, $2, $3, $4)
	`

	for i, obs := range snap.Stocks {
		payload, err := json.Marshal(obs)
		if err != nil {
			return fmt.Errorf("marshal observation %s: %w", obs.Code, err)
		}
		if _, err := tx.Exec(ctx, query, snap.Date, i, obs.Code, payload); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert observation %s: %w", obs.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot insert: %w", err)
	}
	return nil
}

// GetByDate retrieves the snapshot for a compact YYYYMMDD date.
// Returns ErrNotFound if no rows exist for that day.
func (s *SnapshotStore) GetByDate(ctx context.Context, date string) (*domain.DaySnapshot, error) {
	start := time.Now()
	snap, err := s.getByDate(ctx, date)
	observability.RecordDBQuery("postgres", "get_snapshot", time.Since(start).Seconds(), err)
	return snap, err
}

func (s *SnapshotStore) getByDate(ctx context.Context, date string) (*domain.DaySnapshot, error) {
	query := `
		SELECT observation
		FROM day_snapshots
		WHERE trade_date = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("get snapshot by date: %w", err)
	}
	defer rows.Close()

	snap := &domain.DaySnapshot{Date: date}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		var obs domain.StockObservation
		if err := json.Unmarshal(payload, &obs); err != nil {
			return nil, fmt.Errorf("unmarshal observation: %w", err)
		}
		snap.Stocks = append(snap.Stocks, &obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}

	if len(snap.Stocks) == 0 {
		return nil, storage.ErrNotFound
	}
	return snap, nil
}

// ListDates returns all stored dates in ascending order.
func (s *SnapshotStore) ListDates(ctx context.Context) ([]string, error) {
	start := time.Now()
	dates, err := s.listDates(ctx)
	observability.RecordDBQuery("postgres", "list_snapshot_dates", time.Since(start).Seconds(), err)
	return dates, err
}

func (s *SnapshotStore) listDates(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT trade_date
		FROM day_snapshots
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date row: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate date rows: %w", err)
	}
	return dates, nil
}
