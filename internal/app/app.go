package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/RIKASH04/Resulyhub/common/logger"
	"github.com/RIKASH04/Resulyhub/common/telemetry"
	"github.com/RIKASH04/Resulyhub/internal/config"
	"github.com/RIKASH04/Resulyhub/internal/db"
	"github.com/RIKASH04/Resulyhub/internal/events"
	"github.com/RIKASH04/Resulyhub/internal/grading"
	"github.com/RIKASH04/Resulyhub/internal/grpcserver"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"
	"github.com/RIKASH04/Resulyhub/internal/reconcile"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config     *config.Config
	server     *http.Server
	grpcServer *grpcserver.Server
	reconciler *reconcile.Reconciler
	db         *bun.DB
	publisher  *events.Publisher
	telemetry  *telemetry.Telemetry
	logger     *slog.Logger
}

// initTelemetry is swapped in tests.
var initTelemetry = telemetry.Init

// New wires the application. On failure every resource opened so far is
// released before returning.
func New(ctx context.Context) (_ *App, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := logger.NewWithServiceContext(ServiceName, Version, cfg.Env)
	slog.SetDefault(slogLogger)
	slogLogger.Info("initializing application", "env", cfg.Env, "commit", GitCommit)

	endpoint := ""
	if cfg.Telemetry.Enabled {
		endpoint = cfg.Telemetry.Endpoint
	}
	tel, err := initTelemetry(ctx, telemetry.Options{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Env:            cfg.Env,
		Endpoint:       endpoint,
	}, slogLogger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tel.Shutdown(shutdownCtx); shutdownErr != nil {
			slogLogger.Error("telemetry shutdown after failed init", "error", shutdownErr)
		}
	}()
	m := tel.Metrics

	counters, err := svcmetrics.New(otel.Meter(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize service metrics: %w", err)
	}

	policy, err := grading.NewPolicy(cfg.Grading.Policy, cfg.Grading.PassMark, cfg.Grading.MarksMax)
	if err != nil {
		return nil, err
	}
	slogLogger.Info("grading policy selected", "policy", policy.Name())

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close(database)
		}
	}()
	if err := db.EnsureSchema(ctx, database, cfg.Database.AutoMigrate, slogLogger); err != nil {
		return nil, err
	}
	if err := m.Database.ObservePool(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to observe connection pool", "error", err)
	}

	publisher, err := events.NewFromConfig(cfg.Events, slogLogger, m)
	if err != nil {
		// Results stay correct without events; run degraded.
		slogLogger.Warn("event producer unavailable, events disabled", "driver", cfg.Events.Driver, "error", err)
		publisher = nil
	}

	services := NewServices(Dependencies{
		Config:    cfg,
		DB:        database,
		Policy:    policy,
		Metrics:   m,
		Counters:  counters,
		Publisher: publisher,
		Logger:    slogLogger,
	})

	a := &App{
		config:     cfg,
		grpcServer: grpcserver.New(cfg.Grpc.Port, m, slogLogger),
		db:         database,
		publisher:  publisher,
		telemetry:  tel,
		logger:     slogLogger,
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      NewRouter(cfg, database, services, m, slogLogger),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	if cfg.Reconcile.Enabled {
		a.reconciler, err = reconcile.New(cfg.Reconcile.Schedule, services.Results, services.Auth, slogLogger)
		if err != nil {
			a.publisher.Close()
			return nil, err
		}
	}

	slogLogger.Info("application initialized successfully")
	return a, nil
}

// Run starts the gRPC listener and the reconciler in the background and
// blocks serving HTTP.
func (a *App) Run() error {
	go func() {
		if err := a.grpcServer.Run(); err != nil {
			a.logger.Error("gRPC server stopped", "error", err)
		}
	}()

	if a.reconciler != nil {
		a.reconciler.Start()
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var errs []error
	a.grpcServer.SetServing(false)

	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	a.grpcServer.Stop()

	if a.reconciler != nil {
		if err := a.reconciler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reconciler stop: %w", err))
		}
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("event producer close error", "error", err)
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	db.Close(a.db)
	return errors.Join(errs...)
}
