package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/resilience/internal/core/config"
	"github.com/vietddude/resilience/internal/core/worker"
	"github.com/vietddude/resilience/internal/handling"
	"github.com/vietddude/resilience/internal/handling/classify"
	"github.com/vietddude/resilience/internal/handling/health"
	"github.com/vietddude/resilience/internal/handling/metrics"
	"github.com/vietddude/resilience/internal/handling/recovery"
	"github.com/vietddude/resilience/internal/handling/report"
	"github.com/vietddude/resilience/internal/handling/retry"
	redisclient "github.com/vietddude/resilience/internal/infra/redis"
	"github.com/vietddude/resilience/internal/infra/session"
	"github.com/vietddude/resilience/internal/infra/storage"
	"github.com/vietddude/resilience/internal/infra/storage/memory"
	"github.com/vietddude/resilience/internal/infra/storage/postgres"
)

// App wires the error handler to its reporters, storage and HTTP surface.
type App struct {
	cfg          *config.AppConfig
	handler      *handling.Handler
	registry     *prometheus.Registry
	collector    *metrics.Collector
	errorLog     storage.ErrorLogRepository
	db           *postgres.DB
	redisClient  *redisclient.Client
	pruner       *worker.Pruner
	healthServer *health.Server
	log          *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewApp creates a new App with all dependencies initialized. Postgres is
// used when database.url is set, otherwise the error log lives in memory.
// An unreachable Redis disables the stream reporter instead of failing.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default()

	// 1. Storage
	var errorLog storage.ErrorLogRepository
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		errorLog = postgres.NewErrorLogRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		errorLog = memory.NewErrorLogRepo()
		log.Info("Using Memory storage")
	}

	// 2. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)
	tracker := metrics.NewTracker(
		metrics.WithWindow(cfg.Metrics.RateWindow),
		metrics.WithCollector(collector),
	)

	// 3. Recovery
	sessionClient := session.NewClient(cfg.Session, log)
	strategies := recovery.DefaultRegistry(recovery.Defaults{
		Refresher:       sessionClient,
		Redirector:      sessionClient,
		NetworkBackoff:  recovery.Backoff(cfg.Recovery.Network),
		DatabaseBackoff: recovery.Backoff(cfg.Recovery.Database),
	})

	// 4. Reporters
	reporters := []report.Reporter{
		report.NewConsoleReporter(
			report.WithLogger(log),
			report.WithNotificationSink(report.LogSink{Logger: log}),
			report.WithMinSeverity(cfg.Notifications.MinSeverity),
		),
	}
	if cfg.Reporting.RemoteURL != "" {
		reporters = append(reporters, report.NewHTTPReporter(cfg.Reporting.RemoteURL, cfg.Reporting.RemoteTimeout))
	}
	if cfg.Reporting.StoreErrors {
		reporters = append(reporters, report.NewStoreReporter(errorLog))
	}

	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, stream reporter disabled", "error", err)
			redisClient = nil
		} else if cfg.Reporting.RedisStream != "" {
			stream := redisClient.Stream(cfg.Reporting.RedisStream, cfg.Reporting.StreamMaxLen)
			reporters = append(reporters, report.NewStreamReporter(stream))
			log.Info("Streaming errors to Redis", "stream", stream.Name())
		}
	}

	handler := handling.New(
		handling.WithLogger(log),
		handling.WithTracker(tracker),
		handling.WithStrategies(strategies),
		handling.WithReporters(reporters...),
		handling.WithClassifier(classify.Classify),
	)

	// 5. Health
	monitor := health.NewMonitor(handler, cfg.Metrics.DegradedRate)
	if db != nil {
		monitor.AddCheck("postgres", db)
	}
	if redisClient != nil {
		monitor.AddCheck("redis", redisClient)
	}
	healthServer := health.NewServer(monitor, handler, errorLog, registry, cfg.Server.Port, health.WithDispatcher(handler))

	return &App{
		cfg:          cfg,
		handler:      handler,
		registry:     registry,
		collector:    collector,
		errorLog:     errorLog,
		db:           db,
		redisClient:  redisClient,
		pruner:       worker.NewPruner(errorLog, cfg.Retention.Period),
		healthServer: healthServer,
		log:          log,
	}, nil
}

// Handler returns the error dispatcher.
func (a *App) Handler() *handling.Handler {
	return a.handler
}

// ErrorLog returns the persisted error log.
func (a *App) ErrorLog() storage.ErrorLogRepository {
	return a.errorLog
}

// RetryOptions returns the configured retry defaults.
func (a *App) RetryOptions() []retry.Option {
	opts := []retry.Option{
		retry.WithMaxRetries(a.cfg.Retry.MaxRetries),
		retry.WithRetryDelay(a.cfg.Retry.RetryDelay),
		retry.WithCollector(a.collector),
	}
	if a.cfg.Retry.SuppressUntilLastAttempt {
		opts = append(opts, retry.SuppressUntilLastAttempt())
	}
	return opts
}

// Start runs the health server and the pruner in the background.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		a.pruner.Start(gctx)
		return nil
	})

	a.cancel = cancel
	a.group = g
	a.log.Info("Resilience service started", "port", a.cfg.Server.Port)
	return nil
}

// Stop shuts the server down, waits for background work and closes
// connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping resilience service...")

	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop health server: %w", err))
	}
	if a.cancel != nil {
		a.cancel()
		if err := a.group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
	return errors.Join(errs...)
}
