package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

func sampleSnapshot(date string, codes ...string) *domain.DaySnapshot {
	snap := &domain.DaySnapshot{Date: date}
	for _, code := range codes {
		snap.Stocks = append(snap.Stocks, &domain.StockObservation{
			Code:            code,
			Name:            "종목 " + code,
			SelectionScore:  85,
			SelectionReason: "AI 수혜주",
			Analysis: &domain.ProfitLossAnalysis{
				OpeningPrice:        10000,
				ProfitTargetPercent: 5,
				LossTargetPercent:   3,
				ProfitTargetPrice:   10500,
				LossTargetPrice:     9700,
				FirstHit:            domain.FirstHitProfit,
				FirstHitTime:        "09:45",
				FirstHitPrice:       10500,
				ClosingPrice:        10300,
				ClosingPercent:      3,
			},
		})
	}
	return snap
}

func TestSnapshotStore_InsertAndGetByDate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	snap := sampleSnapshot("20250303", "005930", "000660")

	err := store.Insert(ctx, snap)
	require.NoError(t, err)

	retrieved, err := store.GetByDate(ctx, "20250303")
	require.NoError(t, err)

	assert.Equal(t, "20250303", retrieved.Date)
	require.Len(t, retrieved.Stocks, 2)

	obs := retrieved.Stocks[0]
	assert.Equal(t, "005930", obs.Code)
	assert.Equal(t, "종목 005930", obs.Name)
	assert.Equal(t, 85, obs.SelectionScore)
	assert.Equal(t, "AI 수혜주", obs.SelectionReason)
	require.NotNil(t, obs.Analysis)
	assert.Equal(t, domain.FirstHitProfit, obs.Analysis.FirstHit)
	assert.Equal(t, "09:45", obs.Analysis.FirstHitTime)
	assert.Equal(t, 10500.0, obs.Analysis.ProfitTargetPrice)
}

func TestSnapshotStore_PreservesObservationOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	// Non-lexical code order must survive the round trip.
	codes := []string{"900001", "000001", "500001"}
	err := store.Insert(ctx, sampleSnapshot("20250304", codes...))
	require.NoError(t, err)

	retrieved, err := store.GetByDate(ctx, "20250304")
	require.NoError(t, err)

	require.Len(t, retrieved.Stocks, len(codes))
	for i, code := range codes {
		assert.Equal(t, code, retrieved.Stocks[i].Code)
	}
}

func TestSnapshotStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	snap := sampleSnapshot("20250305", "005930")

	err := store.Insert(ctx, snap)
	require.NoError(t, err)

	err = store.Insert(ctx, snap)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The failed insert must not add rows.
	retrieved, err := store.GetByDate(ctx, "20250305")
	require.NoError(t, err)
	assert.Len(t, retrieved.Stocks, 1)
}

func TestSnapshotStore_GetByDateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	_, err := store.GetByDate(ctx, "19990101")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotStore_ListDates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	for _, date := range []string{"20250305", "20250303", "20250304"} {
		err := store.Insert(ctx, sampleSnapshot(date, "005930"))
		require.NoError(t, err)
	}

	dates, err := store.ListDates(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"20250303", "20250304", "20250305"}, dates)
}
