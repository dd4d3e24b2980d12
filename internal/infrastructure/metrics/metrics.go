package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesCreated *prometheus.CounterVec
	EntriesSettled *prometheus.CounterVec
	BankMovements  *prometheus.CounterVec
	BankBalance    *prometheus.GaugeVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Idempotency metrics
	IdempotencyReplays prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapajos_entries_created_total",
				Help: "Total number of entries recorded by type",
			},
			[]string{"type"},
		),
		EntriesSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapajos_entries_settled_total",
				Help: "Total number of entries moved to paid by type",
			},
			[]string{"type"},
		),
		BankMovements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapajos_bank_movements_total",
				Help: "Total number of automatic bank movements",
			},
			[]string{"bank_id"},
		),
		BankBalance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tapajos_bank_balance",
				Help: "Bank balance after the last movement",
			},
			[]string{"bank_id"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapajos_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tapajos_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		IdempotencyReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "tapajos_idempotency_replays_total",
			Help: "Total responses replayed from idempotency keys",
		}),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tapajos_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tapajos_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// EntryCreated implements usecase.LedgerMetrics.
func (m *Metrics) EntryCreated(entryType domain.EntryType) {
	m.EntriesCreated.WithLabelValues(string(entryType)).Inc()
}

// EntrySettled implements usecase.LedgerMetrics.
func (m *Metrics) EntrySettled(entryType domain.EntryType) {
	m.EntriesSettled.WithLabelValues(string(entryType)).Inc()
}

// BankMovement implements usecase.LedgerMetrics.
func (m *Metrics) BankMovement(bankID string, balance decimal.Decimal) {
	m.BankMovements.WithLabelValues(bankID).Inc()
	m.BankBalance.WithLabelValues(bankID).Set(balance.InexactFloat64())
}
