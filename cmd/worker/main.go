package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iho/txsummary/internal/adapter/csvimport"
	"github.com/iho/txsummary/internal/adapter/email"
	"github.com/iho/txsummary/internal/adapter/queue/amqp"
	postgresRepo "github.com/iho/txsummary/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/txsummary/internal/adapter/repository/redis"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/config"
	"github.com/iho/txsummary/internal/infrastructure/logger"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
	"github.com/iho/txsummary/internal/infrastructure/postgres"
	"github.com/iho/txsummary/internal/infrastructure/redis"
	"github.com/iho/txsummary/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "txsummary-worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(log.Logger.WithContext(ctx), cfg); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
	log.Info().Msg("worker stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, "txsummary-worker")
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	queue, err := amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPImportQueue, cfg.AMQPPrefetch, cfg.AMQPDialTimeout)
	if err != nil {
		return fmt.Errorf("connect to amqp: %w", err)
	}
	defer queue.Close()

	mailer, err := email.NewSMTPMailer(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		return fmt.Errorf("configure smtp: %w", err)
	}

	m := metrics.New()

	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	summaryUC := usecase.NewSummaryUseCase(
		accountRepo,
		transactionRepo,
		redisRepo.NewSummaryCache(redisClient, cfg.SummaryTTL),
		redisRepo.NewSequenceStore(redisClient),
		m,
	)
	importUC := usecase.NewImportUseCase(
		postgresRepo.NewTxManager(pool),
		accountRepo,
		transactionRepo,
		postgresRepo.NewOutboxRepository(pool),
		csvimport.NewParser(),
		summaryUC,
		redisRepo.NewUpdateBus(redisClient, cfg.UpdatesChannel, m),
		postgresRepo.NewULIDGenerator(),
		postgresRepo.NewRetrier(),
		m,
	)
	notificationUC := usecase.NewNotificationUseCase(accountRepo, summaryUC, mailer, m)

	processor := newJobProcessor(importUC, notificationUC, m)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return queue.Consume(gctx, processor.Handle)
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.WorkerMetricsPort).Msg("serving worker metrics")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type importer interface {
	Import(ctx context.Context, job *domain.ImportJob) (*usecase.ImportResult, error)
}

type notifier interface {
	Deliver(ctx context.Context, account *domain.Account, summary *domain.TransactionSummary) error
}

// jobProcessor imports one queued statement and emails the refreshed summary.
type jobProcessor struct {
	importer importer
	notifier notifier
	metrics  *metrics.Metrics
}

func newJobProcessor(imp importer, n notifier, m *metrics.Metrics) *jobProcessor {
	return &jobProcessor{importer: imp, notifier: n, metrics: m}
}

// Handle implements amqp.Handler. Once the import has committed it never asks for a
// redelivery, so an email failure cannot cause the rows to be stored twice.
func (p *jobProcessor) Handle(ctx context.Context, job *domain.ImportJob) error {
	logger := zerolog.Ctx(ctx)

	result, err := p.importer.Import(ctx, job)
	if err != nil {
		if isPermanent(err) {
			p.record("rejected")
			return amqp.Permanent(err)
		}
		p.record("failed")
		return err
	}
	p.record("ok")

	if result.Summary == nil || result.Account == nil {
		return nil
	}

	if err := p.notifier.Deliver(ctx, result.Account, result.Summary); err != nil {
		logger.Error().Err(err).Str("email", result.Account.Email).Msg("failed to email summary")
		return nil
	}
	logger.Info().Str("email", result.Account.Email).Msg("summary emailed")
	return nil
}

func (p *jobProcessor) record(status string) {
	if p.metrics != nil {
		p.metrics.ImportJobs.WithLabelValues(status).Inc()
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrBadStatement) ||
		errors.Is(err, domain.ErrTooManyRows) ||
		errors.Is(err, domain.ErrEmptyUpload) ||
		errors.Is(err, domain.ErrInvalidIDFormat)
}
