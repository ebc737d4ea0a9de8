package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/usecase"
	"github.com/iho/txsummary/internal/usecase/mocks"
)

type summaryMocks struct {
	accounts  *mocks.MockAccountRepository
	txs       *mocks.MockTransactionRepository
	cache     *mocks.MockSummaryCache
	sequences *mocks.MockSequenceStore
}

func newSummaryUseCase(ctrl *gomock.Controller) (*usecase.SummaryUseCase, summaryMocks) {
	m := summaryMocks{
		accounts:  mocks.NewMockAccountRepository(ctrl),
		txs:       mocks.NewMockTransactionRepository(ctrl),
		cache:     mocks.NewMockSummaryCache(ctrl),
		sequences: mocks.NewMockSequenceStore(ctrl),
	}
	return usecase.NewSummaryUseCase(m.accounts, m.txs, m.cache, m.sequences, nil), m
}

func TestSummaryUseCase_GetSummary_ComputesOnMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, m := newSummaryUseCase(ctrl)

	m.accounts.EXPECT().GetByID(gomock.Any(), testAccountID).Return(testAccount(), nil)
	m.sequences.EXPECT().Current(gomock.Any(), testAccountID).Return(int64(4), nil)
	m.cache.EXPECT().Get(gomock.Any(), testAccountID).Return(nil, false, nil)
	m.txs.EXPECT().ListAllByAccount(gomock.Any(), testAccountID).Return([]*domain.Transaction{
		mkTx("t1", 100, "2024-01-15"),
		mkTx("t2", -40, "2024-01-20"),
		mkTx("t3", 50, "2024-02-01"),
	}, nil)
	m.cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := uc.GetSummary(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Sequence != 4 {
		t.Errorf("expected sequence 4, got %d", summary.Sequence)
	}
	if !summary.Summary.TotalBalance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("expected total 110, got %s", summary.Summary.TotalBalance)
	}
	if len(summary.Monthly) != 2 {
		t.Errorf("expected 2 months, got %d", len(summary.Monthly))
	}
}

func TestSummaryUseCase_GetSummary_ServesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, m := newSummaryUseCase(ctrl)

	cached := domain.Aggregate(testAccountID, []*domain.Transaction{mkTx("t1", 5, "2024-03-01")})
	cached.Sequence = 9

	m.accounts.EXPECT().GetByID(gomock.Any(), testAccountID).Return(testAccount(), nil)
	m.sequences.EXPECT().Current(gomock.Any(), testAccountID).Return(int64(9), nil)
	m.cache.EXPECT().Get(gomock.Any(), testAccountID).Return(cached, true, nil)

	summary, err := uc.GetSummary(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != cached || summary.Sequence != 9 {
		t.Fatalf("expected cached summary with sequence 9, got %+v", summary)
	}
}

func TestSummaryUseCase_GetSummary_CacheErrorFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, m := newSummaryUseCase(ctrl)

	m.accounts.EXPECT().GetByID(gomock.Any(), testAccountID).Return(testAccount(), nil)
	m.sequences.EXPECT().Current(gomock.Any(), testAccountID).Return(int64(0), nil)
	m.cache.EXPECT().Get(gomock.Any(), testAccountID).Return(nil, false, errBoom)
	m.txs.EXPECT().ListAllByAccount(gomock.Any(), testAccountID).Return(nil, nil)
	m.cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(errBoom)

	summary, err := uc.GetSummary(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("cache failures must not fail the request: %v", err)
	}
	if summary.Summary.TotalCount != 0 {
		t.Fatalf("expected empty summary, got %+v", summary.Summary)
	}
}

func TestSummaryUseCase_GetSummary_UnknownAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, m := newSummaryUseCase(ctrl)

	m.accounts.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, domain.ErrAccountNotFound)

	if _, err := uc.GetSummary(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestSummaryUseCase_Refresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, m := newSummaryUseCase(ctrl)

	gomock.InOrder(
		m.cache.EXPECT().Invalidate(gomock.Any(), testAccountID).Return(nil),
		m.txs.EXPECT().ListAllByAccount(gomock.Any(), testAccountID).Return([]*domain.Transaction{mkTx("t1", 10, "2024-01-01")}, nil),
		m.sequences.EXPECT().Next(gomock.Any(), testAccountID).Return(int64(3), nil),
		m.cache.EXPECT().Set(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, s *domain.TransactionSummary) error {
				if s.Sequence != 3 {
					t.Errorf("cached summary must carry the new sequence, got %d", s.Sequence)
				}
				return nil
			}),
	)

	summary, err := uc.Refresh(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Sequence != 3 {
		t.Fatalf("expected sequence 3, got %d", summary.Sequence)
	}
}

func TestSummaryUseCase_GetSummary_IgnoresOlderCacheEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, m := newSummaryUseCase(ctrl)

	old := domain.Aggregate(testAccountID, []*domain.Transaction{mkTx("t1", 5, "2024-03-01")})
	old.Sequence = 1

	m.accounts.EXPECT().GetByID(gomock.Any(), testAccountID).Return(testAccount(), nil)
	m.sequences.EXPECT().Current(gomock.Any(), testAccountID).Return(int64(2), nil)
	m.cache.EXPECT().Get(gomock.Any(), testAccountID).Return(old, true, nil)
	m.txs.EXPECT().ListAllByAccount(gomock.Any(), testAccountID).Return([]*domain.Transaction{
		mkTx("t1", 5, "2024-03-01"),
		mkTx("t2", 7, "2024-03-02"),
	}, nil)
	m.cache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := uc.GetSummary(context.Background(), testAccountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Sequence != 2 || summary.Summary.TotalCount != 2 {
		t.Fatalf("expected a fresh summary at sequence 2, got seq=%d count=%d", summary.Sequence, summary.Summary.TotalCount)
	}
}

// memSummaryCache and memSequences are in-memory stand-ins for Redis.
type memSummaryCache struct {
	entries map[string]domain.TransactionSummary
}

func (c *memSummaryCache) Get(_ context.Context, id string) (*domain.TransactionSummary, bool, error) {
	s, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *memSummaryCache) Set(_ context.Context, s *domain.TransactionSummary) error {
	c.entries[s.AccountID] = *s
	return nil
}

func (c *memSummaryCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	return nil
}

type memSequences struct{ seq map[string]int64 }

func (s *memSequences) Next(_ context.Context, id string) (int64, error) {
	s.seq[id]++
	return s.seq[id], nil
}

func (s *memSequences) Current(_ context.Context, id string) (int64, error) {
	return s.seq[id], nil
}

// racingTxRepo commits a new row and runs onFirstRead while the first reader
// still holds its older snapshot.
type racingTxRepo struct {
	usecase.TransactionRepository
	rows        []*domain.Transaction
	reads       int
	onFirstRead func()
}

func (r *racingTxRepo) ListAllByAccount(context.Context, string) ([]*domain.Transaction, error) {
	snapshot := append([]*domain.Transaction(nil), r.rows...)
	r.reads++
	if r.reads == 1 && r.onFirstRead != nil {
		r.onFirstRead()
	}
	return snapshot, nil
}

func TestSummaryUseCase_SlowReadDoesNotMaskRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountRepository(ctrl)
	accounts.EXPECT().GetByID(gomock.Any(), testAccountID).Return(testAccount(), nil).AnyTimes()

	repo := &racingTxRepo{rows: []*domain.Transaction{mkTx("t1", 100, "2024-01-01")}}
	cache := &memSummaryCache{entries: map[string]domain.TransactionSummary{}}
	uc := usecase.NewSummaryUseCase(accounts, repo, cache, &memSequences{seq: map[string]int64{}}, nil)

	ctx := context.Background()
	var pushed *domain.TransactionSummary
	repo.onFirstRead = func() {
		repo.rows = append(repo.rows, mkTx("t2", -40, "2024-01-02"))
		var err error
		if pushed, err = uc.Refresh(ctx, testAccountID); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}

	slow, err := uc.GetSummary(ctx, testAccountID)
	if err != nil {
		t.Fatalf("slow read: %v", err)
	}
	if slow.Sequence >= pushed.Sequence {
		t.Fatalf("older snapshot labelled seq %d, not below the push at %d", slow.Sequence, pushed.Sequence)
	}

	later, err := uc.GetSummary(ctx, testAccountID)
	if err != nil {
		t.Fatalf("later read: %v", err)
	}
	if later.Sequence != pushed.Sequence || !later.Summary.TotalBalance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60 at seq %d, got %s at seq %d",
			pushed.Sequence, later.Summary.TotalBalance, later.Sequence)
	}
}
