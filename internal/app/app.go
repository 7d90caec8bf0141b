package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/almk-dev/nadac/internal/config"
	apierrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/exporter"
	"github.com/almk-dev/nadac/internal/infrastructure"
	customMiddleware "github.com/almk-dev/nadac/internal/middleware"
	"github.com/almk-dev/nadac/internal/scheduler"
	"github.com/almk-dev/nadac/internal/services"
	handlers "github.com/almk-dev/nadac/internal/transport/http"
	"github.com/almk-dev/nadac/pkg/contracts"
)

// Application represents the report server
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	ReportService *services.ReportService
	HealthService *services.HealthService
	Exporter      *exporter.Writer
	Scheduler     *scheduler.Scheduler
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	startTime time.Time
}

// NewApplication wires the services, router and server for cfg. Spans, when
// tracing is enabled, are written to traceOut.
func NewApplication(cfg *config.Config, logger *slog.Logger, traceOut io.Writer) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, traceOut, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		startTime:     time.Now(),
	}

	if err := infrastructure.RegisterSystemMetrics(providers.Meter, app.startTime); err != nil {
		return nil, fmt.Errorf("failed to register system metrics: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	a.ReportService = services.NewReportService(a.Config.Dataset, a.Paths,
		services.NewReportTracer(a.OTelProviders), a.Logger)
	a.Exporter = exporter.NewWriter(a.Paths, a.Logger)

	sched, err := scheduler.New(a.Config.Schedule, a.Config.Report, a.Config.Server.ReportTimeout,
		a.ReportService, a.Exporter, a.OTelProviders.Metrics, a.Logger)
	if err != nil {
		return err
	}
	a.Scheduler = sched

	var reporter services.ScheduleReporter
	if sched.Enabled() {
		reporter = sched
	}
	a.HealthService = services.NewHealthService(contracts.Version, a.ReportService, reporter, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Server.IncludeStack)

	// RequestID → RealIP → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger).Handler)
		}

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReportTimeout))

			reportHandler := handlers.NewReportHandler(a.ReportService, a.Config.Report,
				a.Config.Server.MaxCount, a.Logger, errorHandler)
			r.Mount("/reports", reportHandler.Routes())
		})
	})

	// Prometheus scrapes outside the rate limit
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln and runs the export schedule until ctx is cancelled,
// then shuts everything down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	a.Logger.InfoContext(ctx, "starting server",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.Bool("schedule_enabled", a.Scheduler.Enabled()))

	if err := a.checkDataset(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup dataset check failed", slog.String("error", err.Error()))
	}

	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	a.Scheduler.Start(gctx)

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "server shutdown complete",
		slog.Duration("uptime", time.Since(a.startTime)))
	return errors.Join(errs...)
}

// checkDataset logs the dataset the server will read
func (a *Application) checkDataset(ctx context.Context) error {
	path, err := a.ReportService.ResolveDataset()
	if err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "dataset resolved", slog.String("path", path))
	return nil
}
