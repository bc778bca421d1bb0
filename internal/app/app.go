package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"regpulse/internal/config"
	"regpulse/internal/dataprocessing"
	apierrors "regpulse/internal/errors"
	"regpulse/internal/exporter"
	"regpulse/internal/infrastructure"
	customMiddleware "regpulse/internal/middleware"
	"regpulse/internal/services"
	handlers "regpulse/internal/transport/http"
	"regpulse/pkg/contracts"
)

const AppName = "regpulse"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	DataService   *services.DataService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
	Router        chi.Router
	Server        *http.Server

	loader *dataprocessing.Loader
	source dataprocessing.Source
}

// NewApplication wires every component from cfg. The dataset is not read
// until Run or LoadDataset is called.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = providers.Shutdown(ctx)
		return nil, err
	}

	router, err := app.setupRouter()
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, err
	}
	app.Router = router
	app.Server = app.createServer(router)

	return app, nil
}

func (a *Application) initializeServices(ctx context.Context) error {
	loader, src, err := NewDatasetLoader(ctx, a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.loader = loader
	a.source = src

	queryMetrics, err := infrastructure.NewQueryMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create query metrics: %w", err)
	}

	a.DataService = services.NewDataService(a.Logger,
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithQueryMetrics(queryMetrics),
		services.WithExportOptions(ExportOptions(a.Config.Export)),
	)
	a.HealthService = services.NewHealthService(a.DataService, a.Logger)
	return nil
}

// NewDatasetLoader builds the loader and source described by the dataset
// and sheets sections of cfg. The Sheets client is only created for the
// sheets format.
func NewDatasetLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dataprocessing.Loader, dataprocessing.Source, error) {
	src := dataprocessing.Source{
		Format:    dataprocessing.Format(cfg.Dataset.Format),
		Path:      cfg.Dataset.Path,
		Sheet:     cfg.Dataset.Sheet,
		Delimiter: cfg.Dataset.DelimiterRune(),
	}

	var sheets *dataprocessing.SheetsSource
	if cfg.Dataset.Format == config.FormatSheets {
		src.SpreadsheetID = cfg.Sheets.SpreadsheetID
		src.Range = cfg.Sheets.Range

		var err error
		sheets, err = dataprocessing.NewSheetsSource(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.APIKey, logger)
		if err != nil {
			return nil, src, fmt.Errorf("failed to create sheets client: %w", err)
		}
	}

	return dataprocessing.NewLoader(logger, sheets), src, nil
}

// ExportOptions maps the export section of the config.
func ExportOptions(cfg config.ExportConfig) exporter.WriteOptions {
	return exporter.WriteOptions{
		Delimiter: cfg.DelimiterRune(),
		BOMPrefix: cfg.BOM,
	}
}

// setupRouter configures the HTTP router with all routes and middleware
func (a *Application) setupRouter() (chi.Router, error) {
	r := chi.NewRouter()

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return nil, fmt.Errorf("failed to create otel middleware: %w", err)
	}

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.StripSlashes)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.setupAPIRoutes(r)
	return r, nil
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxBodyBytes))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, a.ErrorHandler)
		r.Mount("/data", dataHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// LoadDataset reads the configured source into the data service. A failure
// here is fatal for the server.
func (a *Application) LoadDataset(ctx context.Context) error {
	return a.DataService.Load(ctx, a.loader, a.source)
}

// Serve loads the dataset and serves HTTP until ctx is cancelled, then
// shuts down gracefully.
func (a *Application) Serve(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.LoadDataset(ctx); err != nil {
		_ = a.Stop(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(gctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}
