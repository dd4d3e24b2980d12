package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ariondjunior/tapajos/internal/adapter/http/handler"
	"github.com/ariondjunior/tapajos/internal/adapter/http/middleware"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/infrastructure/metrics"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional parts are nil
// when disabled.
type RouterConfig struct {
	EntityHandler *handler.EntityHandler
	BankHandler   *handler.BankHandler
	EntryHandler  *handler.EntryHandler
	ReportHandler *handler.ReportHandler
	SyncHandler   *handler.SyncHandler
	HealthHandler *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	Gatherer         prometheus.Gatherer
	Auth             *middleware.Auth
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger, "/health", "/ready", "/metrics").Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth.Require)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			var replays prometheus.Counter
			if cfg.Metrics != nil {
				replays = cfg.Metrics.IdempotencyReplays
			}
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, replays).Wrap)
		}

		view := middleware.RequirePermission(domain.Role.CanViewAll)
		write := middleware.RequirePermission(domain.Role.CanCreate)
		manage := middleware.RequirePermission(domain.Role.CanManageRegistries)

		r.Route("/entities", func(r chi.Router) {
			r.With(manage).Post("/", cfg.EntityHandler.Create)
			r.With(view).Get("/", cfg.EntityHandler.List)
			r.With(view).Get("/{id}", cfg.EntityHandler.Get)
		})

		r.Route("/banks", func(r chi.Router) {
			r.With(manage).Post("/", cfg.BankHandler.Create)
			r.With(view).Get("/", cfg.BankHandler.List)
			r.With(view).Get("/{id}", cfg.BankHandler.Get)
			r.With(view).Get("/{id}/statement", cfg.BankHandler.Statement)
			r.With(view).Get("/{id}/reconciliation", cfg.BankHandler.Reconcile)
		})

		r.Route("/entries", func(r chi.Router) {
			r.With(write).Post("/", cfg.EntryHandler.Add)
			r.With(view).Get("/", cfg.EntryHandler.List)
			r.With(view).Get("/{id}", cfg.EntryHandler.Get)
			r.With(write).Post("/{id}/pay", cfg.EntryHandler.Pay)
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(view).Get("/summary", cfg.ReportHandler.Summary)
			r.With(view).Get("/reconciliation", cfg.ReportHandler.Reconciliation)
		})

		r.Route("/sync", func(r chi.Router) {
			r.With(view).Get("/status", cfg.SyncHandler.Status)
			r.With(manage).Post("/{resource}", cfg.SyncHandler.Trigger)
		})
	})

	return r
}
