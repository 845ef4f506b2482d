package memory

import (
	"context"
	"errors"
	"testing"

	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/storage"
)

func TestMorningCandidateStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMorningCandidateStore()

	if _, err := store.GetLatest(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("empty store: err = %v, want ErrNotFound", err)
	}

	first := &domain.MorningCandidateList{
		Date:       "2025-03-03",
		Candidates: []*domain.MorningCandidate{{Code: "005930", Name: "삼성전자"}},
	}
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	second := &domain.MorningCandidateList{
		Date: "2025-03-04",
		Candidates: []*domain.MorningCandidate{
			{Code: "000660", Name: "SK하이닉스"},
			{Code: "035420", Name: "네이버"},
		},
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.Date != "2025-03-04" {
		t.Errorf("Date = %s, want 2025-03-04", got.Date)
	}
	if len(got.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(got.Candidates))
	}
}

func TestMorningCandidateStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewMorningCandidateStore()

	if err := store.Put(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil list: err = %v, want ErrInvalidInput", err)
	}
	if err := store.Put(ctx, &domain.MorningCandidateList{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty date: err = %v, want ErrInvalidInput", err)
	}
}
