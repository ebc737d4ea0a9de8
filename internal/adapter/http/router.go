package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/txsummary/internal/adapter/http/handler"
	"github.com/iho/txsummary/internal/adapter/http/middleware"
	"github.com/iho/txsummary/internal/infrastructure/metrics"
	"github.com/iho/txsummary/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional fields may be nil.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	UploadHandler      *handler.UploadHandler
	WebSocketHandler   *handler.WebSocketHandler
	HealthHandler      *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/api", func(r chi.Router) {
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.List)
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/{id}", cfg.AccountHandler.Get)
				r.Get("/{id}/transactions", cfg.TransactionHandler.ListByAccount)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/summary/{id}", cfg.TransactionHandler.Summary)
				r.Post("/send-summary/{id}", cfg.TransactionHandler.SendSummary)
			})
		})

		r.Post("/upload", cfg.UploadHandler.Upload)
		r.Get("/ws", cfg.WebSocketHandler.Connect)
		r.Get("/ws/", cfg.WebSocketHandler.Connect)
	})

	return r
}
