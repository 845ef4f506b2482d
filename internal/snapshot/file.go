package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"stock-backtest-lab/internal/domain"
)

// FileProvider serves snapshots from the on-disk layout used by the
// collector: <dir>/intraday_YYYYMMDD.json, one file per trading day.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider reading intraday JSON files from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// GetByDate implements Provider.
func (p *FileProvider) GetByDate(_ context.Context, day time.Time) (*domain.DaySnapshot, error) {
	date := day.Format(domain.CompactDateLayout)
	path := filepath.Join(p.dir, fmt.Sprintf("intraday_%s.json", date))

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	snap, err := DecodeDaySnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", date, err)
	}
	if snap.Date == "" {
		snap.Date = date
	}
	return snap, nil
}

var _ Provider = (*FileProvider)(nil)

// DecodeDaySnapshot decodes a day snapshot from its JSON form:
//
//	{"date": "YYYYMMDD", "stocks": {"005930": {...}, ...}}
//
// The stocks object is walked token-by-token so observations come out in the
// file's key order. A plain map decode would randomize the order and break
// the engine's native-order guarantee.
func DecodeDaySnapshot(r io.Reader) (*domain.DaySnapshot, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	snap := &domain.DaySnapshot{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		switch key {
		case "date":
			if err := dec.Decode(&snap.Date); err != nil {
				return nil, fmt.Errorf("decode date: %w", err)
			}
		case "stocks":
			stocks, err := decodeStocksInOrder(dec)
			if err != nil {
				return nil, err
			}
			snap.Stocks = stocks
		default:
			// Skip unknown top-level fields.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("skip field %q: %w", key, err)
			}
		}
	}

	// Consume closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return snap, nil
}

// decodeStocksInOrder decodes the stocks object preserving key order.
func decodeStocksInOrder(dec *json.Decoder) ([]*domain.StockObservation, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected stocks object, got %v", tok)
	}

	var stocks []*domain.StockObservation
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		code, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected stock code key, got %v", keyTok)
		}

		var obs domain.StockObservation
		if err := dec.Decode(&obs); err != nil {
			return nil, fmt.Errorf("decode stock %s: %w", code, err)
		}
		if obs.Code == "" {
			obs.Code = code
		}
		stocks = append(stocks, &obs)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return stocks, nil
}
