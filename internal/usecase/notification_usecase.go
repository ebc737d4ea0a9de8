package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
	"github.com/iho/txsummary/internal/render"
)

// SummarySubject is the subject line of summary emails.
const SummarySubject = "Your transaction summary"

// NotificationUseCase emails account summaries to their owners.
type NotificationUseCase struct {
	accountRepo AccountRepository
	summaries   *SummaryUseCase
	mailer      Mailer
	metrics     *metrics.Metrics
}

// NewNotificationUseCase creates a new NotificationUseCase.
func NewNotificationUseCase(accountRepo AccountRepository, summaries *SummaryUseCase, mailer Mailer, metrics *metrics.Metrics) *NotificationUseCase {
	return &NotificationUseCase{
		accountRepo: accountRepo,
		summaries:   summaries,
		mailer:      mailer,
		metrics:     metrics,
	}
}

// SendSummary computes the account's summary and emails it to the account.
func (uc *NotificationUseCase) SendSummary(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summary, err := uc.summaries.GetSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := uc.Deliver(ctx, account, summary); err != nil {
		return nil, err
	}
	return account, nil
}

// Deliver emails an already computed summary.
func (uc *NotificationUseCase) Deliver(ctx context.Context, account *domain.Account, summary *domain.TransactionSummary) error {
	msg, err := BuildSummaryEmail(account, summary)
	if err != nil {
		return err
	}

	if err := uc.mailer.Send(ctx, msg); err != nil {
		if uc.metrics != nil {
			uc.metrics.EmailsFailed.Inc()
		}
		return fmt.Errorf("send summary email: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.EmailsSent.Inc()
	}
	return nil
}

// BuildSummaryEmail renders the HTML and text bodies for a summary email.
// Every month is expanded.
func BuildSummaryEmail(account *domain.Account, summary *domain.TransactionSummary) (*domain.EmailMessage, error) {
	view := render.Render(summary, render.ExpandAll(summary))

	html, err := render.HTML(render.EmailData{Nickname: account.Nickname, View: view})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	if err := render.WriteText(&text, view); err != nil {
		return nil, err
	}

	return &domain.EmailMessage{
		To:       account.Email,
		Subject:  SummarySubject,
		HTMLBody: html,
		TextBody: text.String(),
	}, nil
}
