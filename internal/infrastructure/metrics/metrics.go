package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntryChanges          *prometheus.CounterVec
	IDCollisions          *prometheus.CounterVec
	TransactionOperations *prometheus.CounterVec
	TxRetries             *prometheus.CounterVec
	OutboxPublished       prometheus.Counter
	OutboxErrors          prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntryChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketledger_entry_changes_total",
				Help: "Entries handled by reconciliation, by change kind",
			},
			[]string{"kind"},
		),
		IDCollisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketledger_id_collisions_total",
				Help: "Primary key collisions resolved by regenerating the id",
			},
			[]string{"entity"},
		),
		TransactionOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketledger_transaction_operations_total",
				Help: "Transaction create/update/delete calls by outcome",
			},
			[]string{"operation", "status"},
		),
		TxRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketledger_tx_retries_total",
				Help: "Database transactions rerun after a conflict, by SQLSTATE",
			},
			[]string{"code"},
		),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_outbox_published_total",
			Help: "Outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_outbox_errors_total",
			Help: "Outbox polling or publishing failures",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pocketledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pocketledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Authentication metrics
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketledger_auth_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"status"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "pocketledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// RecordEntryChange implements usecase.MetricsRecorder.
func (m *Metrics) RecordEntryChange(kind string) {
	m.EntryChanges.WithLabelValues(kind).Inc()
}

// RecordIDCollision implements usecase.MetricsRecorder.
func (m *Metrics) RecordIDCollision(entity string) {
	m.IDCollisions.WithLabelValues(entity).Inc()
}

// RecordTransactionOperation implements usecase.MetricsRecorder.
func (m *Metrics) RecordTransactionOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.TransactionOperations.WithLabelValues(operation, status).Inc()
}

// RecordTxRetry counts a transaction rerun after a conflict.
func (m *Metrics) RecordTxRetry(code string) {
	m.TxRetries.WithLabelValues(code).Inc()
}

// RecordOutboxPublished counts an event handed to the publisher.
func (m *Metrics) RecordOutboxPublished() {
	m.OutboxPublished.Inc()
}

// RecordOutboxError counts an outbox poll or publish failure.
func (m *Metrics) RecordOutboxError() {
	m.OutboxErrors.Inc()
}
