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
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iho/txsummary/internal/adapter/email"
	"github.com/iho/txsummary/internal/adapter/events/kafka"
	httpAdapter "github.com/iho/txsummary/internal/adapter/http"
	"github.com/iho/txsummary/internal/adapter/http/handler"
	"github.com/iho/txsummary/internal/adapter/http/middleware"
	"github.com/iho/txsummary/internal/adapter/queue/amqp"
	postgresRepo "github.com/iho/txsummary/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/txsummary/internal/adapter/repository/redis"
	"github.com/iho/txsummary/internal/adapter/ws"
	"github.com/iho/txsummary/internal/domain"
	"github.com/iho/txsummary/internal/infrastructure/config"
	"github.com/iho/txsummary/internal/infrastructure/eventpublisher"
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

	logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "txsummary-api"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(log.Logger.WithContext(ctx), cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

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
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, "txsummary-api")
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	queue, err := amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPImportQueue, cfg.AMQPPrefetch, cfg.AMQPDialTimeout)
	if err != nil {
		return fmt.Errorf("connect to amqp: %w", err)
	}
	defer queue.Close()
	log.Info().Str("queue", cfg.AMQPImportQueue).Msg("connected to amqp")

	mailer, err := email.NewSMTPMailer(smtpConfig(cfg))
	if err != nil {
		return fmt.Errorf("configure smtp: %w", err)
	}

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	summaryCache := redisRepo.NewSummaryCache(redisClient, cfg.SummaryTTL)
	sequences := redisRepo.NewSequenceStore(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	updateBus := redisRepo.NewUpdateBus(redisClient, cfg.UpdatesChannel, m)

	// Use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen, m)
	summaryUC := usecase.NewSummaryUseCase(accountRepo, transactionRepo, summaryCache, sequences, m)
	transactionUC := usecase.NewTransactionUseCase(accountRepo, transactionRepo)
	uploadUC := usecase.NewUploadUseCase(accountRepo, queue, idGen, cfg.MaxUploadBytes, m)
	notificationUC := usecase.NewNotificationUseCase(accountRepo, summaryUC, mailer, m)

	hub := ws.NewHub(log.Logger, m)
	defer hub.Close()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(summaryUC, transactionUC, notificationUC),
		UploadHandler:      handler.NewUploadHandler(uploadUC, cfg.MaxUploadBytes),
		WebSocketHandler:   handler.NewWebSocketHandler(hub),
		HealthHandler:      handler.NewHealthHandler(pool, redisPinger(redisClient)),
		Logger:             log.Logger,
		Metrics:            m,
		RateLimiter:        rateLimiter,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
	})

	sink, closeSink := newEventSink(cfg, log.Logger)
	defer closeSink()

	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		Outbox:    outboxRepo,
		Publisher: sink,
		Metrics:   m,
		BatchSize: cfg.OutboxBatchSize,
		Interval:  cfg.OutboxPollPeriod,
		Retention: cfg.OutboxRetention,
	})

	server := newHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return updateBus.Subscribe(gctx, func(update *domain.SummaryUpdate) {
			hub.Broadcast(update)
		})
	})

	g.Go(func() error {
		if err := relay.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, time.Minute, 10*time.Minute)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           h,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}

// newEventSink ships outbox events to Kafka when brokers are configured and to the log
// otherwise.
func newEventSink(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func()) {
	if !cfg.KafkaEnabled() {
		logger.Info().Msg("kafka disabled, outbox events are logged")
		return eventpublisher.NewLogPublisher(logger), func() {}
	}

	producer := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing outbox events to kafka")
	return producer, func() {
		if err := producer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}
}

func smtpConfig(cfg *config.Config) email.Config {
	return email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

func redisPinger(client *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
