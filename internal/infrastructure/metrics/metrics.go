package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Account metrics
	AccountsCreated prometheus.Counter

	// Import metrics
	TransactionsImported prometheus.Counter
	RowsSkipped          *prometheus.CounterVec
	ImportJobs           *prometheus.CounterVec
	ImportDuration       prometheus.Histogram

	// Summary metrics
	SummariesComputed *prometheus.CounterVec
	SummaryDuration   prometheus.Histogram

	// Notification metrics
	EmailsSent   prometheus.Counter
	EmailsFailed prometheus.Counter

	// Live update metrics
	UpdatesPublished prometheus.Counter
	UpdatesPushed    prometheus.Counter
	UpdatesDropped   prometheus.Counter
	WSSessions       prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		TransactionsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_transactions_imported_total",
			Help: "Total number of transactions imported from uploads",
		}),
		RowsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txsummary_rows_skipped_total",
				Help: "Rows or transactions skipped by stage",
			},
			[]string{"stage"},
		),
		ImportJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txsummary_import_jobs_total",
				Help: "Import jobs by status",
			},
			[]string{"status"},
		),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txsummary_import_duration_seconds",
			Help:    "Duration of import jobs",
			Buckets: prometheus.DefBuckets,
		}),

		SummariesComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txsummary_summaries_total",
				Help: "Summaries served by source",
			},
			[]string{"source"},
		),
		SummaryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txsummary_summary_duration_seconds",
			Help:    "Duration of summary aggregation",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_emails_sent_total",
			Help: "Summary emails delivered",
		}),
		EmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_emails_failed_total",
			Help: "Summary emails that failed to send",
		}),

		UpdatesPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_updates_published_total",
			Help: "Live summary updates published to the bus",
		}),
		UpdatesPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_updates_pushed_total",
			Help: "Live summary updates written to websocket sessions",
		}),
		UpdatesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_updates_dropped_total",
			Help: "Live summary updates dropped as stale",
		}),
		WSSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txsummary_ws_sessions",
			Help: "Current number of websocket sessions",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txsummary_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txsummary_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txsummary_http_in_flight",
			Help: "HTTP requests currently being served",
		}),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txsummary_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_outbox_published_total",
			Help: "Outbox events shipped to the event sink",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "txsummary_outbox_errors_total",
			Help: "Outbox events that failed to ship",
		}),
	}
}
