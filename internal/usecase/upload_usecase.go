package usecase

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
)

// UploadUseCase accepts statement uploads and queues them for import.
type UploadUseCase struct {
	accountRepo AccountRepository
	queue       JobQueue
	idGen       IDGenerator
	maxBytes    int64
	metrics     *metrics.Metrics
}

// NewUploadUseCase creates a new UploadUseCase.
func NewUploadUseCase(accountRepo AccountRepository, queue JobQueue, idGen IDGenerator, maxBytes int64, metrics *metrics.Metrics) *UploadUseCase {
	return &UploadUseCase{
		accountRepo: accountRepo,
		queue:       queue,
		idGen:       idGen,
		maxBytes:    maxBytes,
		metrics:     metrics,
	}
}

// UploadInput represents an uploaded statement file.
type UploadInput struct {
	AccountID string
	UserID    string
	FileName  string
	Content   []byte
}

// Submit validates the upload and enqueues an import job for it.
func (uc *UploadUseCase) Submit(ctx context.Context, input UploadInput) (*domain.ImportJob, error) {
	if len(input.Content) == 0 {
		return nil, domain.ErrEmptyUpload
	}
	if uc.maxBytes > 0 && int64(len(input.Content)) > uc.maxBytes {
		return nil, domain.ErrUploadTooLarge
	}
	if input.UserID != "" {
		if err := domain.ValidateUserID(input.UserID); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateID(input.AccountID); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	job := &domain.ImportJob{
		ID:          uc.idGen.Generate(),
		AccountID:   input.AccountID,
		UserID:      input.UserID,
		FileName:    sanitizeFileName(input.FileName),
		Content:     input.Content,
		SubmittedAt: time.Now().UTC(),
	}

	if err := uc.queue.EnqueueImport(ctx, job); err != nil {
		if uc.metrics != nil {
			uc.metrics.ImportJobs.WithLabelValues("enqueue_failed").Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ImportJobs.WithLabelValues("queued").Inc()
	}

	return job, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.csv"
	}
	return name
}
