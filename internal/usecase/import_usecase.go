package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

// ImportUseCase stores uploaded statements and announces the new summary.
type ImportUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	parser      StatementParser
	summaries   *SummaryUseCase
	updates     UpdatePublisher
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewImportUseCase creates a new ImportUseCase. retrier may be nil.
func NewImportUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	parser StatementParser,
	summaries *SummaryUseCase,
	updates UpdatePublisher,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *ImportUseCase {
	return &ImportUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		parser:      parser,
		summaries:   summaries,
		updates:     updates,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
	}
}

// ImportResult reports the outcome of one import job.
type ImportResult struct {
	JobID    string
	Account  *domain.Account
	Imported int
	Skipped  []domain.RowError
	// Summary is nil when the refresh after commit failed.
	Summary   *domain.TransactionSummary
	Published bool
	// Replayed is set when the job's rows were stored by an earlier delivery.
	Replayed bool
}

// Import parses the job's statement, stores the valid rows in a single
// database transaction, refreshes the account summary and publishes it to
// live subscribers. Unparsable rows are reported in the result.
func (uc *ImportUseCase) Import(ctx context.Context, job *domain.ImportJob) (*ImportResult, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().Str("job_id", job.ID).Str("account_id", job.AccountID).Logger()

	account, err := uc.accountRepo.GetByID(ctx, job.AccountID)
	if err != nil {
		return nil, err
	}

	drafts, rowErrs, err := uc.parser.Parse(bytes.NewReader(job.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadStatement, err)
	}
	if len(drafts) > MaxImportRows {
		return nil, fmt.Errorf("%w: %d rows", domain.ErrTooManyRows, len(drafts))
	}

	result := &ImportResult{JobID: job.ID, Account: account, Skipped: rowErrs}
	if len(rowErrs) > 0 {
		logger.Warn().Int("skipped", len(rowErrs)).Msg("statement rows skipped")
		if uc.metrics != nil {
			uc.metrics.RowsSkipped.WithLabelValues("parse").Add(float64(len(rowErrs)))
		}
	}

	if len(drafts) == 0 {
		logger.Info().Msg("statement contained no usable rows")
		return result, nil
	}

	// A redelivered job whose rows are already committed only finishes the
	// post-commit steps.
	stored, err := uc.txRepo.CountByInputFile(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if stored > 0 {
		logger.Warn().Int("stored", stored).Msg("import already committed, skipping insert")
		result.Imported = stored
		result.Replayed = true
		return uc.announce(ctx, logger, result), nil
	}

	now := time.Now().UTC()
	txs := make([]*domain.Transaction, 0, len(drafts))
	total := decimal.Zero
	for _, d := range drafts {
		txs = append(txs, &domain.Transaction{
			ID:          uc.idGen.Generate(),
			AccountID:   account.ID,
			Amount:      d.Amount,
			Date:        d.Date,
			InputFileID: job.ID,
			CreatedAt:   now,
		})
		total = total.Add(d.Amount)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), account.ID, domain.EventTypeTransactionsImported, map[string]any{
		"input_file_id": job.ID,
		"file_name":     job.FileName,
		"imported":      len(txs),
		"skipped":       len(rowErrs),
		"net_amount":    total.String(),
	}, now)

	store := func() error { return uc.store(ctx, txs, event) }
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, store)
	} else {
		err = store()
	}
	if err != nil {
		return nil, err
	}
	result.Imported = len(txs)

	if uc.metrics != nil {
		uc.metrics.TransactionsImported.Add(float64(len(txs)))
		uc.metrics.ImportDuration.Observe(time.Since(start).Seconds())
	}

	return uc.announce(ctx, logger, result), nil
}

// announce refreshes the summary and pushes it to subscribers. The rows are
// already committed, so failures here are logged and never fail the job.
func (uc *ImportUseCase) announce(ctx context.Context, logger zerolog.Logger, result *ImportResult) *ImportResult {
	summary, err := uc.summaries.Refresh(ctx, result.Account.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to refresh summary after import")
		return result
	}
	result.Summary = summary

	update := &domain.SummaryUpdate{AccountID: result.Account.ID, Sequence: summary.Sequence, Summary: summary}
	if err := uc.updates.PublishUpdate(ctx, update); err != nil {
		// Subscribers catch up on their next fetch.
		logger.Error().Err(err).Int64("sequence", summary.Sequence).Msg("failed to publish summary update")
	} else {
		result.Published = true
	}

	logger.Info().
		Int("imported", result.Imported).
		Int("skipped", len(result.Skipped)).
		Int64("sequence", summary.Sequence).
		Msg("statement imported")
	return result
}

func (uc *ImportUseCase) store(ctx context.Context, txs []*domain.Transaction, event *domain.OutboxEvent) error {
	return withTx(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		if err := uc.txRepo.CreateBatch(ctx, tx, txs); err != nil {
			return err
		}
		return uc.outboxRepo.Create(ctx, tx, event)
	})
}
