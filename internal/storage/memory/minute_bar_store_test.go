package memory

import (
	"context"
	"errors"
	"testing"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

func makeBar(code, date, tm string, open float64) *domain.MinuteBar {
	return &domain.MinuteBar{
		Code: code, Date: date, Time: tm,
		Open: open, High: open + 50, Low: open - 50, Close: open + 10,
		Volume: 1000,
	}
}

func TestMinuteBarStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMinuteBarStore()

	bars := []*domain.MinuteBar{
		makeBar("005930", "20250303", "09:02", 10020),
		makeBar("005930", "20250303", "09:00", 10000),
		makeBar("005930", "20250303", "09:01", 10010),
		makeBar("000660", "20250303", "09:00", 20000),
	}
	if err := store.InsertBulk(ctx, bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByCodeDate(ctx, "005930", "20250303")
	if err != nil {
		t.Fatalf("GetByCodeDate failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("bars = %d, want 3", len(got))
	}
	// Sorted by time regardless of insert order.
	for i, tm := range []string{"09:00", "09:01", "09:02"} {
		if got[i].Time != tm {
			t.Errorf("bar[%d].Time = %s, want %s", i, got[i].Time, tm)
		}
	}
}

func TestMinuteBarStore_DuplicateInBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMinuteBarStore()

	err := store.InsertBulk(ctx, []*domain.MinuteBar{
		makeBar("005930", "20250303", "09:00", 10000),
		makeBar("005930", "20250303", "09:00", 10010),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}

	// The failed batch must not be partially applied.
	got, err := store.GetByCodeDate(ctx, "005930", "20250303")
	if err != nil {
		t.Fatalf("GetByCodeDate failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bars = %d, want 0 after failed batch", len(got))
	}
}

func TestMinuteBarStore_DuplicateAgainstExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMinuteBarStore()

	if err := store.InsertBulk(ctx, []*domain.MinuteBar{
		makeBar("005930", "20250303", "09:00", 10000),
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.MinuteBar{
		makeBar("005930", "20250303", "09:00", 10010),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestMinuteBarStore_ListCodes(t *testing.T) {
	ctx := context.Background()
	store := NewMinuteBarStore()

	if err := store.InsertBulk(ctx, []*domain.MinuteBar{
		makeBar("005930", "20250303", "09:00", 10000),
		makeBar("000660", "20250303", "09:00", 20000),
		makeBar("005930", "20250304", "09:00", 10100),
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	codes, err := store.ListCodes(ctx, "20250303")
	if err != nil {
		t.Fatalf("ListCodes failed: %v", err)
	}
	want := []string{"000660", "005930"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes[%d] = %s, want %s", i, codes[i], want[i])
		}
	}
}
