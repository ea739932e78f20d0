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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	apierrors "namefinder/internal/errors"
	"namefinder/internal/infrastructure"
	customMiddleware "namefinder/internal/middleware"
	"namefinder/internal/reference"
	"namefinder/internal/services"
	handlers "namefinder/internal/transport/http"
)

const (
	VERSION = config.AppVersion
	AppName = config.AppName
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Telemetry     *infrastructure.Telemetry
	Metrics       *infrastructure.Metrics
	Dataset       *dataprocessing.Dataset
	NamesService  *services.NamesService
	HealthService *services.HealthService
}

// NewApplication loads the configuration, initializes the process logger
// and builds the application
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds the dataset and wires the services and the router. The
// server does not accept requests before the dataset is complete, so a
// returned Application always serves a finished, read-only dataset.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Bool("prediction_only", cfg.Dataset.PredictionOnly))

	telemetry, err := infrastructure.InitTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	metrics, err := infrastructure.NewMetrics(telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:    cfg,
		Paths:     cfg.Paths.Resolve(),
		Logger:    logger,
		Telemetry: telemetry,
		Metrics:   metrics,
	}

	if err := a.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices builds or loads the dataset and creates the services
// over it
func (a *Application) initializeServices(ctx context.Context) error {
	store := reference.NewStore(a.Paths, a.Logger)

	ds, err := LoadDataset(ctx, a.Config.Dataset, a.Paths, store, a.Logger, a.Metrics)
	if err != nil {
		return err
	}
	a.Dataset = ds

	a.NamesService = services.NewNamesService(ds, a.Config.Dataset, store, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(VERSION, ds, a.Logger)
	return nil
}

// LoadDataset runs the Loader and the Builder over the source files, or
// reads the persisted reference artifacts in prediction-only mode
func LoadDataset(ctx context.Context, cfg config.DatasetConfig, paths *config.Paths, store *reference.Store, logger *slog.Logger, metrics *infrastructure.Metrics) (*dataprocessing.Dataset, error) {
	start := time.Now()

	if cfg.PredictionOnly {
		ds, err := store.LoadPredictionDataset(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load prediction references: %w", err)
		}
		logger.InfoContext(ctx, "Prediction dataset loaded",
			slog.String("dataset_id", ds.ID),
			slog.Duration("duration", time.Since(start)))
		return ds, nil
	}

	raw, err := dataprocessing.NewLoader(paths, cfg, logger, metrics).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source data: %w", err)
	}
	ds, err := dataprocessing.NewBuilder(cfg, logger, metrics).Build(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset: %w", err)
	}
	logger.InfoContext(ctx, "Dataset ready",
		slog.String("dataset_id", ds.ID),
		slog.Int("min_year", ds.MinYear),
		slog.Int("max_year", ds.MaxYear),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.NewTracing(a.Metrics).Handler)
	r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
	r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get(config.HealthEndpoint, healthHandler.HealthCheck)

	namesHandler := handlers.NewNamesHandler(a.NamesService, a.Logger, errorHandler)
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(customMiddleware.RequireJSON(errorHandler))
		r.Mount("/", namesHandler.Routes())
	})

	if a.Config.Telemetry.MetricsEnabled {
		r.Handle(config.MetricsEndpoint, a.Telemetry.MetricsHandler())
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. A listener failure cancels the
// application context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("address", a.Server.Addr),
		slog.String("dataset_id", a.Dataset.ID))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down telemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the listener fails
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")
	return a.Stop(ctx)
}
