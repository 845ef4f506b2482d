package clickhouse

import (
	"context"
	"fmt"
	"time"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/observability"
	"stock-backtest-lab/internal/storage"
)

// MinuteBarStore implements storage.MinuteBarStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are rejected by
// explicit checks before the batch insert.
type MinuteBarStore struct {
	conn *Conn
}

// NewMinuteBarStore creates a new MinuteBarStore.
func NewMinuteBarStore(conn *Conn) *MinuteBarStore {
	return &MinuteBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MinuteBarStore = (*MinuteBarStore)(nil)

// InsertBulk adds multiple bars. Fails the entire batch on any duplicate
// (code, date, time).
func (s *MinuteBarStore) InsertBulk(ctx context.Context, bars []*domain.MinuteBar) error {
	start := time.Now()
	err := s.insertBulk(ctx, bars)
	observability.RecordDBQuery("clickhouse", "insert_minute_bars", time.Since(start).Seconds(), err)
	if err == nil {
		observability.RecordMinuteBarsStored(len(bars))
	}
	return err
}

func (s *MinuteBarStore) insertBulk(ctx context.Context, bars []*domain.MinuteBar) error {
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		code string
		date string
		tm   string
	}
	seen := make(map[key]struct{})
	for _, b := range bars {
		k := key{b.Code, b.Date, b.Time}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, b := range bars {
		exists, err := s.exists(ctx, b.Code, b.Date, b.Time)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO minute_bars (
			stock_code, trade_date, bar_time, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Code, b.Date, b.Time,
			b.Open, b.High, b.Low, b.Close, uint64(b.Volume),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCodeDate retrieves all bars for a stock on a day, ordered by time ASC.
func (s *MinuteBarStore) GetByCodeDate(ctx context.Context, code, date string) ([]*domain.MinuteBar, error) {
	start := time.Now()
	bars, err := s.getByCodeDate(ctx, code, date)
	observability.RecordDBQuery("clickhouse", "get_minute_bars", time.Since(start).Seconds(), err)
	return bars, err
}

func (s *MinuteBarStore) getByCodeDate(ctx context.Context, code, date string) ([]*domain.MinuteBar, error) {
	query := `
		SELECT stock_code, trade_date, bar_time, open, high, low, close, volume
		FROM minute_bars
		WHERE stock_code = ? AND trade_date = ?
		ORDER BY bar_time ASC
	`

	rows, err := s.conn.Query(ctx, query, code, date)
	if err != nil {
		return nil, fmt.Errorf("query bars by code and date: %w", err)
	}
	defer rows.Close()

	return scanMinuteBars(rows)
}

// ListCodes returns the distinct stock codes with bars on a day, sorted
// ascending.
func (s *MinuteBarStore) ListCodes(ctx context.Context, date string) ([]string, error) {
	start := time.Now()
	codes, err := s.listCodes(ctx, date)
	observability.RecordDBQuery("clickhouse", "list_minute_bar_codes", time.Since(start).Seconds(), err)
	return codes, err
}

func (s *MinuteBarStore) listCodes(ctx context.Context, date string) ([]string, error) {
	query := `
		SELECT DISTINCT stock_code
		FROM minute_bars
		WHERE trade_date = ?
		ORDER BY stock_code ASC
	`

	rows, err := s.conn.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code row: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate code rows: %w", err)
	}
	return codes, nil
}

// exists checks if a bar with the given key exists.
func (s *MinuteBarStore) exists(ctx context.Context, code, date, barTime string) (bool, error) {
	query := `
		SELECT count(*) FROM minute_bars
		WHERE stock_code = ? AND trade_date = ? AND bar_time = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, code, date, barTime).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanMinuteBars scans multiple rows.
func scanMinuteBars(rows chRows) ([]*domain.MinuteBar, error) {
	var bars []*domain.MinuteBar

	for rows.Next() {
		var b domain.MinuteBar
		var volume uint64

		err := rows.Scan(
			&b.Code, &b.Date, &b.Time,
			&b.Open, &b.High, &b.Low, &b.Close, &volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan minute bar row: %w", err)
		}

		b.Volume = int64(volume)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate minute bar rows: %w", err)
	}

	return bars, nil
}
