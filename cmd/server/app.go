package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/ariondjunior/tapajos/internal/adapter/http"
	"github.com/ariondjunior/tapajos/internal/adapter/http/handler"
	"github.com/ariondjunior/tapajos/internal/adapter/http/middleware"
	"github.com/ariondjunior/tapajos/internal/adapter/remote"
	"github.com/ariondjunior/tapajos/internal/adapter/repository/memory"
	postgresRepo "github.com/ariondjunior/tapajos/internal/adapter/repository/postgres"
	redisRepo "github.com/ariondjunior/tapajos/internal/adapter/repository/redis"
	"github.com/ariondjunior/tapajos/internal/infrastructure/auth"
	"github.com/ariondjunior/tapajos/internal/infrastructure/config"
	"github.com/ariondjunior/tapajos/internal/infrastructure/eventpublisher"
	"github.com/ariondjunior/tapajos/internal/infrastructure/idgen"
	"github.com/ariondjunior/tapajos/internal/infrastructure/metrics"
	"github.com/ariondjunior/tapajos/internal/infrastructure/postgres"
	"github.com/ariondjunior/tapajos/internal/infrastructure/redis"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// storage is one backend's repositories plus its lifecycle.
type storage struct {
	txManager  usecase.TransactionManager
	entityRepo usecase.EntityRepository
	bankRepo   usecase.BankRepository
	entryRepo  usecase.EntryRepository
	retrier    usecase.Retrier
	check      handler.Check
	close      func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	logger := zerolog.Ctx(ctx)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, *logger); err != nil {
			return nil, err
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")

		return &storage{
			txManager:  postgresRepo.NewTxManager(pool),
			entityRepo: postgresRepo.NewEntityRepository(pool),
			bankRepo:   postgresRepo.NewBankRepository(pool),
			entryRepo:  postgresRepo.NewEntryRepository(pool),
			retrier:    postgresRepo.NewRetrier(postgresRepo.WithMaxRetries(cfg.DatabaseMaxRetries)),
			check:      handler.Check{Name: "postgres", Ping: pool.Ping},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		store := memory.NewStore()
		if cfg.SnapshotPath != "" {
			loaded, err := memory.LoadStore(cfg.SnapshotPath)
			if err != nil {
				return nil, err
			}
			store = loaded
			logger.Info().Str("path", cfg.SnapshotPath).Msg("loaded snapshot")
		}

		return &storage{
			txManager:  memory.NewTxManager(store),
			entityRepo: memory.NewEntityRepository(store),
			bankRepo:   memory.NewBankRepository(store),
			entryRepo:  memory.NewEntryRepository(store),
			check:      handler.Check{Name: "storage", Ping: store.Ping},
			close: func(ctx context.Context) error {
				if cfg.SnapshotPath == "" {
					return nil
				}
				if err := store.SaveSnapshot(ctx, cfg.SnapshotPath); err != nil {
					return err
				}
				logger.Info().Str("path", cfg.SnapshotPath).Msg("saved snapshot")
				return nil
			},
		}, nil
	}
}

// events is the configured publisher. run drains it until the base context
// is cancelled; close releases the sink afterwards.
type events struct {
	publisher usecase.EventPublisher
	run       func(ctx context.Context) error
	close     func() error
}

// openEventsFunc is replaced in tests to observe the sink lifecycle.
var openEventsFunc = openEvents

func openEvents(cfg *config.Config, logger zerolog.Logger) (*events, error) {
	var (
		sink    eventpublisher.Publisher
		closeFn = func() error { return nil }
	)

	switch cfg.EventsSink {
	case config.EventsNone:
		return &events{
			publisher: eventpublisher.NopPublisher{},
			run:       func(context.Context) error { return nil },
			close:     closeFn,
		}, nil
	case config.EventsKafka:
		kp, err := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return nil, err
		}
		sink, closeFn = kp, kp.Close
	default:
		sink = eventpublisher.NewLogPublisher(logger)
	}

	async := eventpublisher.NewAsyncPublisher(eventpublisher.Config{Sink: sink, Logger: logger})
	return &events{publisher: async, run: async.Start, close: closeFn}, nil
}

func openRemote(cfg *config.Config) usecase.RemoteSource {
	if cfg.RemoteAPIURL == "" {
		return nil
	}
	return remote.New(remote.Config{
		BaseURL:  cfg.RemoteAPIURL,
		Token:    cfg.RemoteAPIToken,
		PageSize: cfg.RemotePageSize,
		Workers:  cfg.RemoteWorkers,
		MaxPages: cfg.RemoteMaxPages,
		Timeout:  cfg.RemoteTimeout,
	})
}

// app is the wired service.
type app struct {
	handler  http.Handler
	store    *storage
	events   *events
	syncUC   *usecase.SyncUseCase
	limiter  *middleware.RateLimiter
	redis    *goredis.Client
	registry *prometheus.Registry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := *zerolog.Ctx(ctx)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	ev, err := openEventsFunc(cfg, logger)
	if err != nil {
		store.close(ctx)
		return nil, fmt.Errorf("events: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	a := &app{store: store, events: ev, registry: registry}
	checks := []handler.Check{store.check}

	routerCfg := httpAdapter.RouterConfig{
		Logger:         logger,
		Metrics:        m,
		Gatherer:       registry,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}

	// Redis is optional; without it Idempotency-Key is ignored.
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize})
		if err != nil {
			ev.close()
			store.close(ctx)
			return nil, err
		}
		logger.Info().Msg("connected to redis")
		a.redis = client
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(client, cfg.RedisKeyPrefix)
		checks = append(checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redis.Ping(client)(ctx, 0) },
		})
	}

	if cfg.AuthEnabled {
		routerCfg.Auth = middleware.NewAuth(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), m.AuthFailures)
	}
	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
		routerCfg.RateLimiter = a.limiter
	}

	idGen := idgen.NewULIDGenerator()

	ledgerOpts := []usecase.LedgerOption{
		usecase.WithEventPublisher(ev.publisher),
		usecase.WithLedgerMetrics(m),
	}
	if store.retrier != nil {
		ledgerOpts = append(ledgerOpts, usecase.WithRetrier(store.retrier))
	}

	ledgerUC := usecase.NewLedgerUseCase(store.txManager, store.entityRepo, store.bankRepo, store.entryRepo, idGen, ledgerOpts...)
	entityUC := usecase.NewEntityUseCase(store.entityRepo, idGen)
	bankUC := usecase.NewBankUseCase(store.bankRepo, store.entryRepo, idGen)
	entryUC := usecase.NewEntryUseCase(store.entryRepo)
	reconUC := usecase.NewReconciliationUseCase(store.bankRepo, store.entryRepo)
	reportUC := usecase.NewReportUseCase(store.bankRepo, store.entryRepo)
	a.syncUC = usecase.NewSyncUseCase(openRemote(cfg), store.entityRepo, store.bankRepo, idGen)

	routerCfg.EntityHandler = handler.NewEntityHandler(entityUC)
	routerCfg.BankHandler = handler.NewBankHandler(bankUC, reconUC)
	routerCfg.EntryHandler = handler.NewEntryHandler(ledgerUC, entryUC)
	routerCfg.ReportHandler = handler.NewReportHandler(reportUC, reconUC)
	routerCfg.SyncHandler = handler.NewSyncHandler(ctx, a.syncUC)
	routerCfg.HealthHandler = handler.NewHealthHandler(checks...)

	a.handler = httpAdapter.NewRouter(routerCfg)

	return a, nil
}

// shutdown releases resources in dependency order. Background work bound to
// the base context must already be cancelled.
func (a *app) shutdown(ctx context.Context) error {
	var errs []error

	a.syncUC.Wait()

	if err := a.events.close(); err != nil {
		errs = append(errs, fmt.Errorf("events: %w", err))
	}
	if err := a.store.close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	return errors.Join(errs...)
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := zerolog.Ctx(ctx)

	// Sync runs and the event loop live on bgCtx, which is cancelled only
	// after the HTTP server has drained.
	bgCtx, cancelBg := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBg()

	a, err := newApp(bgCtx, cfg)
	if err != nil {
		return err
	}

	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		a.events.run(bgCtx)
	}()

	if a.limiter != nil {
		go a.limiter.RunCleanup(bgCtx, time.Minute, 10*time.Minute)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down server...")
	case runErr = <-serverErr:
		logger.Error().Err(runErr).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	cancelBg()
	<-eventsDone

	return errors.Join(runErr, a.shutdown(shutdownCtx))
}

// migrateDB runs "up" or "down" (one step) against DATABASE_URL and exits
// without serving.
func migrateDB(ctx context.Context, cfg *config.Config, args []string) error {
	logger := *zerolog.Ctx(ctx)

	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up":
		return postgres.RunMigrations(cfg.DatabaseURL, logger)
	case "down":
		return postgres.RunMigrationsDown(cfg.DatabaseURL, logger)
	default:
		return fmt.Errorf("unknown migrate direction %q: want up or down", direction)
	}
}
