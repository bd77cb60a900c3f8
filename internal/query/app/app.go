package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/dpquery/internal/query/http"
	"github.com/aussiebroadwan/dpquery/internal/query/dataset"
	"github.com/aussiebroadwan/dpquery/internal/query/service"
	"github.com/aussiebroadwan/dpquery/internal/query/store"
	"github.com/aussiebroadwan/dpquery/internal/query/store/drivers/sqlite"
	"github.com/aussiebroadwan/dpquery/pkg/dp"
	"github.com/aussiebroadwan/dpquery/pkg/httpx"
	"github.com/aussiebroadwan/dpquery/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the query server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	queryService        *service.QueryService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New initialises the database, privacy policy and services. A dataset that
// fails to load is logged and the server still starts; queries then answer
// 500 until a dataset is ingested.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dpquery",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	policy, err := app.loadPolicy()
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(policy)
	app.loadDataset(context.Background())

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("query server starting", "addr", app.server.Addr, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down query server...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("query server stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	if app.cfg.DatabaseFile == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) loadPolicy() (service.Policy, error) {
	if app.cfg.PolicyFile == "" {
		app.logger.Info("using built-in privacy policy")
		return service.DefaultPolicy(), nil
	}

	policy, err := service.LoadPolicy(app.cfg.PolicyFile)
	if err != nil {
		return service.Policy{}, fmt.Errorf("failed to load privacy policy: %w", err)
	}

	app.logger.Info("privacy policy loaded", "path", app.cfg.PolicyFile)
	return policy, nil
}

func (app *Application) initServices(policy service.Policy) {
	app.queryService = &service.QueryService{
		Store:     app.db,
		Policy:    policy,
		Mechanism: dp.NewMechanism(),
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)
}

func (app *Application) loadDataset(ctx context.Context) {
	log := app.logger.With("path", app.cfg.DataFile)
	ctx = slogx.WithContext(ctx, log)

	start := time.Now()
	rows, stats, err := dataset.LoadFile(app.cfg.DataFile)
	if err != nil {
		log.Error("failed to load dataset, queries will be rejected", "error", err)
		return
	}

	if err := app.queryService.Ingest(ctx, rows); err != nil {
		log.Error("failed to ingest dataset, queries will be rejected", "error", err)
		return
	}

	log.Info("dataset loaded",
		"rows_read", stats.Read,
		"rows_kept", stats.Kept,
		"rows_dropped", stats.Dropped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (app *Application) initHTTP() error {
	trusted, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.QueryService = app.queryService
	router.TrustedProxies = trusted
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
