// Package main is the entry point for the decision governance service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adityaaa08012006/decivue-sub004/internal/api"
	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/config"
	"github.com/adityaaa08012006/decivue-sub004/internal/database/postgres"
	"github.com/adityaaa08012006/decivue-sub004/internal/engine"
	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
	"github.com/adityaaa08012006/decivue-sub004/internal/history"
	"github.com/adityaaa08012006/decivue-sub004/internal/identity"
	"github.com/adityaaa08012006/decivue-sub004/internal/metrics"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
	"github.com/adityaaa08012006/decivue-sub004/internal/migrations"
	"github.com/adityaaa08012006/decivue-sub004/internal/notify"
	"github.com/adityaaa08012006/decivue-sub004/internal/orchestrator"
	"github.com/adityaaa08012006/decivue-sub004/internal/propagation"
	"github.com/adityaaa08012006/decivue-sub004/internal/scheduler"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
	applogger "github.com/adityaaa08012006/decivue-sub004/pkg/logger"
)

const (
	serviceName    = "decivue-sentinel"
	serviceVersion = "0.1.0"

	// defaultDecisionCacheSize is the LRU entry count for the standard
	// profile's decision read cache. cfg.Cache only tunes TTL-based
	// caches elsewhere; NewCachedStore's LRU is unbounded by time.
	defaultDecisionCacheSize = 2048
)

// propagationBackend is satisfied by the raw store backends
// (*store.SQLiteStore, *store.PostgresStore), never by CachedStore: the
// dirty-marking queries propagation.New needs aren't part of
// collaborators.Store, so CachedStore's embedded interface doesn't promote
// them.
type propagationBackend interface {
	propagation.Reader
	propagation.Marker
}

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var configPath = flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", serviceName, serviceVersion)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := applogger.NewLogger(applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	slog.SetDefault(logger)

	logger.Info("starting "+serviceName,
		"version", serviceVersion,
		"profile", cfg.GetProfileName(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.DefaultRegisterer
	metricsRegistry := metrics.NewMetricsRegistry(cfg.App.Name)
	if err := metricsRegistry.Register(reg); err != nil {
		logger.Error("register metrics", "error", err)
		os.Exit(1)
	}

	collabStore, propBackend, closeStore, err := buildStore(ctx, cfg, logger, metricsRegistry)
	if err != nil {
		logger.Error("build store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	ident, err := identity.LoadFromEnv()
	if err != nil {
		logger.Error("build identity", "error", err)
		os.Exit(1)
	}

	propagator := propagation.New(propBackend, propBackend)
	gov := governance.New(collabStore)
	eng := engine.New(logger)
	recorder := history.New(collabStore)

	schedulerCfg := scheduler.Config{
		StalenessThreshold: cfg.Scheduler.StalenessWindow,
		BatchSize:          cfg.Scheduler.BatchSize,
		TickWallClockCap:   cfg.Scheduler.BatchWallClock,
	}
	sched := scheduler.New(collabStore, eng, recorder, propagator, schedulerCfg, logger, metricsRegistry.Scheduler())

	bus := notify.NewBus(logger, notify.NewMetrics(cfg.App.Name, reg))
	feed := notify.NewFeed(bus)

	busCtx, stopBus := context.WithCancel(ctx)
	defer stopBus()
	if err := bus.Start(busCtx); err != nil {
		logger.Error("start notification bus", "error", err)
		os.Exit(1)
	}

	handlers := &api.DecisionHandlers{
		Store:      collabStore,
		Workflow:   gov,
		Engine:     eng,
		Recorder:   recorder,
		Propagator: propagator,
		Scheduler:  sched,
		Notifier:   feed,
		Logger:     logger,
	}

	chainCfg := middleware.DefaultChainConfig(logger, middleware.NewMetrics(reg), identityOrNil(ident, cfg))
	router := api.NewRouter(api.RouterConfig{
		Handlers: handlers,
		Chain:    chainCfg,
		Bus:      bus,
		Logger:   logger,
	})

	tick := func(tickCtx context.Context, now time.Time) error {
		_, tickErr := sched.RunEvaluationBatch(tickCtx, "", now)
		return tickErr
	}

	orch, err := orchestrator.New(cfg.IsStandardProfile(), cfg.App.Name, tick, cfg.Scheduler.TickInterval, orchestrator.ClientConfig{}, logger)
	if err != nil {
		logger.Error("build orchestrator", "error", err)
		os.Exit(1)
	}

	orchCtx, stopOrch := context.WithCancel(ctx)
	defer stopOrch()
	go func() {
		if runErr := orch.Run(orchCtx); runErr != nil && runErr != context.Canceled {
			logger.Error("orchestrator stopped", "error", runErr)
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("http server starting", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("http server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()

	stopOrch()
	stopBus()
	_ = bus.Stop(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

// buildStore opens the profile-appropriate backend and runs its
// migrations. It returns both the collaborators.Store the rest of the
// service talks to (cached, for the standard profile) and the raw
// propagationBackend, since CachedStore doesn't promote the dirty-marking
// methods propagation.New needs. metricsRegistry is shared with main so
// Store() is never instantiated (and registered with Prometheus) twice.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, metricsRegistry *metrics.MetricsRegistry) (collaborators.Store, propagationBackend, func(), error) {
	if cfg.UsesEmbeddedStorage() {
		if err := runMigrations(ctx, "sqlite", "file:"+cfg.Storage.FilesystemPath, logger); err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		sqliteStore, err := store.OpenSQLiteStore(cfg.Storage.FilesystemPath, logger, metricsRegistry.Store())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return sqliteStore, sqliteStore, func() { _ = sqliteStore.Close() }, nil
	}

	pgCfg := &postgres.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.Username,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	}

	pool := postgres.NewPostgresPool(pgCfg, logger)
	if err := pool.Connect(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := runMigrations(ctx, "postgres", cfg.GetDatabaseURL(), logger); err != nil {
		_ = pool.Disconnect(ctx)
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	pgStore := store.NewPostgresStore(pool.Pool(), logger, metricsRegistry.Store())

	cachedStore, err := store.NewCachedStore(pgStore, defaultDecisionCacheSize, metricsRegistry.Store())
	if err != nil {
		_ = pool.Disconnect(ctx)
		return nil, nil, nil, fmt.Errorf("build cached store: %w", err)
	}

	return cachedStore, pgStore, func() { _ = pool.Disconnect(ctx) }, nil
}

func runMigrations(ctx context.Context, dialect, dsn string, logger *slog.Logger) error {
	manager, err := migrations.NewManager(migrations.Config{
		Driver:  dialect,
		DSN:     dsn,
		Dialect: dialect,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	return manager.Up(ctx)
}

// identityOrNil disables the Auth middleware layer for the lite profile
// when no API keys were configured at all, so a single local operator
// isn't locked out of their own instance.
func identityOrNil(resolver *identity.StaticResolver, cfg *config.Config) collaborators.Identity {
	if cfg.IsLiteProfile() && os.Getenv(identity.DefaultEnvVar) == "" {
		return nil
	}
	return resolver
}
