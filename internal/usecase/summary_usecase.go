package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

// SummaryUseCase computes per-account transaction summaries.
type SummaryUseCase struct {
	accountRepo AccountRepository
	txRepo      TransactionRepository
	cache       SummaryCache
	sequences   SequenceStore
	metrics     *metrics.Metrics
}

// NewSummaryUseCase creates a new SummaryUseCase. cache may be nil.
func NewSummaryUseCase(
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	cache SummaryCache,
	sequences SequenceStore,
	metrics *metrics.Metrics,
) *SummaryUseCase {
	return &SummaryUseCase{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		cache:       cache,
		sequences:   sequences,
		metrics:     metrics,
	}
}

// GetSummary returns the summary for an account, served from cache when the
// cached entry was computed at the account's current sequence. A recomputed
// summary is labelled with the sequence read before the transactions, so a
// concurrent Refresh always wins on sequence.
func (uc *SummaryUseCase) GetSummary(ctx context.Context, accountID string) (*domain.TransactionSummary, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	seq, err := uc.sequences.Current(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		cached, ok, err := uc.cache.Get(ctx, accountID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("account_id", accountID).Msg("summary cache read failed")
		}
		if ok && cached.Sequence == seq {
			uc.observe("cache", time.Time{})
			return cached, nil
		}
	}

	summary, err := uc.compute(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary.Sequence = seq
	uc.store(ctx, summary)
	return summary, nil
}

// Refresh drops any cached summary, recomputes it and advances the
// account's sequence. It is called after the account's transactions change.
func (uc *SummaryUseCase) Refresh(ctx context.Context, accountID string) (*domain.TransactionSummary, error) {
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, accountID); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("account_id", accountID).Msg("summary cache invalidation failed")
		}
	}

	summary, err := uc.compute(ctx, accountID)
	if err != nil {
		return nil, err
	}

	seq, err := uc.sequences.Next(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary.Sequence = seq
	uc.store(ctx, summary)
	return summary, nil
}

func (uc *SummaryUseCase) compute(ctx context.Context, accountID string) (*domain.TransactionSummary, error) {
	txs, err := uc.txRepo.ListAllByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := domain.Aggregate(accountID, txs)
	uc.observe("computed", start)

	if err := summary.CheckConsistency(); err != nil {
		return nil, fmt.Errorf("summary for %s: %w", accountID, err)
	}

	if len(summary.Skipped) > 0 {
		zerolog.Ctx(ctx).Warn().
			Str("account_id", accountID).
			Int("skipped", len(summary.Skipped)).
			Msg("transactions skipped during aggregation")
		if uc.metrics != nil {
			uc.metrics.RowsSkipped.WithLabelValues("aggregate").Add(float64(len(summary.Skipped)))
		}
	}
	return summary, nil
}

// store caches summary under the sequence it already carries.
func (uc *SummaryUseCase) store(ctx context.Context, summary *domain.TransactionSummary) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, summary); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("account_id", summary.AccountID).Msg("summary cache write failed")
	}
}

func (uc *SummaryUseCase) observe(source string, start time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.SummariesComputed.WithLabelValues(source).Inc()
	if !start.IsZero() {
		uc.metrics.SummaryDuration.Observe(time.Since(start).Seconds())
	}
}
