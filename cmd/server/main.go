package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/pocketledger/internal/adapter/http"
	"github.com/iho/pocketledger/internal/adapter/http/handler"
	"github.com/iho/pocketledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/pocketledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/pocketledger/internal/adapter/repository/redis"
	"github.com/iho/pocketledger/internal/infrastructure/auth"
	"github.com/iho/pocketledger/internal/infrastructure/config"
	"github.com/iho/pocketledger/internal/infrastructure/eventpublisher"
	"github.com/iho/pocketledger/internal/infrastructure/logger"
	"github.com/iho/pocketledger/internal/infrastructure/metrics"
	"github.com/iho/pocketledger/internal/infrastructure/postgres"
	"github.com/iho/pocketledger/internal/infrastructure/redis"
	"github.com/iho/pocketledger/internal/usecase"
)

const limiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "pocketledger",
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(ctx, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
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

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	a := newApp(cfg, pool, redisClient, registry, m, log)

	ln, err := net.Listen("tcp", ":"+cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		return serve(gctx, a.server, ln, cfg.HTTPShutdownTimeout)
	})
	g.Go(func() error {
		return ignoreCanceled(a.publisher.Start(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(a.limiter.Run(gctx, time.Minute, limiterIdle))
	})
	return g.Wait()
}

func txRetryConfig(cfg *config.Config, m *metrics.Metrics) postgresRepo.RetryConfig {
	return postgresRepo.RetryConfig{
		MaxRetries:      cfg.TxMaxRetries,
		InitialInterval: cfg.TxRetryInitialInterval,
		MaxInterval:     cfg.TxRetryMaxInterval,
		OnRetry:         m.RecordTxRetry,
	}
}

// app is the wired server and its background workers.
type app struct {
	server    *http.Server
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
}

func newApp(
	cfg *config.Config,
	pool *pgxpool.Pool,
	redisClient *goredis.Client,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	log zerolog.Logger,
) *app {
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	outbox := postgresRepo.NewOutboxRepository(pool)

	services := usecase.NewServices(usecase.Dependencies{
		TxManager:    postgresRepo.NewTxManager(pool, txRetryConfig(cfg, m)),
		Users:        postgresRepo.NewUserRepository(pool),
		Accounts:     postgresRepo.NewAccountRepository(pool),
		Transactions: postgresRepo.NewTransactionRepository(pool),
		Entries:      postgresRepo.NewEntryRepository(pool),
		Operations:   postgresRepo.NewOperationRepository(pool),
		Outbox:       outbox,
		Ledger:       postgresRepo.NewLedgerRepository(pool),
		Tokens:       jwt,
		Metrics:      m,
		IDRetries:    cfg.IDRetryAttempts,
	})

	authHandler := handler.NewAuthHandler(services.Users)
	authHandler.OnLogin = func(status string) {
		m.AuthAttempts.WithLabelValues(status).Inc()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.OnLimited = m.RateLimitHits.Inc

	routerCfg := httpAdapter.RouterConfig{
		AuthHandler:        authHandler,
		AccountHandler:     handler.NewAccountHandler(services.Accounts),
		TransactionHandler: handler.NewTransactionHandler(services.Transactions),
		LedgerHandler:      handler.NewLedgerHandler(services.Ledger),
		HealthHandler: handler.NewHealthHandler(
			handler.PingFunc(pool.Ping),
			handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		),
		TokenVerifier: jwt,
		Logging:       middleware.NewLoggingMiddleware(log),
		Metrics:       m,
		RateLimiter:   limiter,
		Idempotency:   middleware.NewIdempotencyMiddleware(redisRepo.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL),
	}
	if cfg.MetricsEnabled {
		routerCfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	publisher := eventpublisher.NewBreakerPublisher(
		eventpublisher.NewLogPublisher(log),
		eventpublisher.BreakerConfig{Logger: log},
	)

	return &app{
		server:  newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg)),
		limiter: limiter,
		publisher: eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outbox,
			Publisher:  publisher,
			Metrics:    m,
			Logger:     log,
			Locker:     redis.NewLocker(redisClient, cfg.OutboxPollInterval*6),
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
		}),
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
