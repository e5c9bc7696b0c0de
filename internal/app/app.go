package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"iplcli/internal/config"
	"iplcli/internal/dataprocessing"
	apierrors "iplcli/internal/errors"
	"iplcli/internal/impact"
	"iplcli/internal/infrastructure"
	customMiddleware "iplcli/internal/middleware"
	"iplcli/internal/operations"
	"iplcli/internal/services"
	handlers "iplcli/internal/transport/http"
	"iplcli/internal/validation"
	ws "iplcli/internal/websocket"
	"iplcli/pkg/contracts"
)

const (
	VERSION = contracts.Version
	AppName = "IPL Sponsorship Impact Analyzer"
)

// systemMetricsInterval is how often the system metrics collector samples
// runtime and memory statistics.
const systemMetricsInterval = 30 * time.Second

// Application wires configuration, telemetry, the analysis pipeline and the
// HTTP surface together. cmd/web builds one and calls Run.
type Application struct {
	Config     *config.Config
	Paths      *config.Paths
	Router     *chi.Mux
	Server     *http.Server
	Logger     *slog.Logger
	Providers  *infrastructure.OTelProviders
	Metrics    *infrastructure.BusinessMetrics
	Collector  *infrastructure.SystemMetricsCollector
	Hub        *ws.Hub
	Manager    *operations.Manager
	Watcher    *ResultsWatcher
	Services   *ServiceContainer
	FrontendFS fs.FS

	errorHandler *apierrors.ErrorHandler
	validator    *customMiddleware.ValidationMiddleware
}

// ServiceContainer holds the application services the handlers depend on.
type ServiceContainer struct {
	Reports    *services.ReportService
	Operations *services.OperationsService
	Health     *services.HealthService
}

// NewApplication loads configuration and builds a fully wired application.
// frontendFS is the embedded dashboard; pass nil to run the API without it.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	collector, err := infrastructure.NewSystemMetricsCollector(providers.Meter, systemMetricsInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics collector: %w", err)
	}

	app := &Application{
		Config:     cfg,
		Paths:      paths,
		Logger:     logger,
		Providers:  providers,
		Metrics:    metrics,
		Collector:  collector,
		FrontendFS: frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the pipeline, its manager and the services in
// dependency order.
func (a *Application) initializeServices() error {
	a.errorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	a.validator = customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler)

	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.Hub = hub

	preparer := dataprocessing.NewPreparer(a.Logger, a.Paths)

	params := impact.DefaultParams()
	if a.Config.Analysis.CAGRYears > 0 {
		params.CAGRYears = a.Config.Analysis.CAGRYears
	}
	calculator := impact.NewCalculator(a.Logger, a.Paths, params)

	a.Manager = operations.NewManager(hub, a.Metrics, a.Logger,
		operations.NewPreparationStage(preparer, a.Metrics, a.Logger),
		operations.NewMetricsStage(calculator, a.Metrics, a.Logger),
	)

	reports := services.NewReportService(a.Paths, a.Logger)

	a.Services = &ServiceContainer{
		Reports:    reports,
		Operations: services.NewOperationsService(a.Manager, a.Logger),
		Health:     services.NewHealthService(VERSION, a.Paths, reports, a.Manager, hub, a.Collector, a.Logger),
	}

	// Rewrites of the result document invalidate the report cache and
	// trigger a dashboard refresh, whichever process produced them.
	a.Watcher = NewResultsWatcher(a.Paths.AnalysisResultsJSON, func(path string) {
		reports.Invalidate()
		hub.BroadcastResultsUpdated(path)
	}, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware first. Nothing here wraps the ResponseWriter;
	// the WebSocket upgrade needs the raw writer.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// WebSocket route registered before the full middleware group.
	wsHandler := handlers.NewWebSocketHandler(a.Hub, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTrace(a.Logger)).Handle("/ws", wsHandler)

	// Static assets skip the full middleware chain.
	if a.FrontendFS != nil {
		a.setupStaticAssets(r)
	} else {
		a.Logger.Warn("no frontend filesystem, dashboard routes disabled")
	}

	r.Group(func(r chi.Router) {
		otelMiddleware := customMiddleware.NewOTelMiddleware(a.Providers, a.Metrics)
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))

		secureHeaders := customMiddleware.DefaultSecureHeaders()
		secureHeaders.DevMode = a.Config.Logging.Development
		r.Use(secureHeaders.Handler)

		r.Use(customMiddleware.CORS(a.corsConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		if a.FrontendFS != nil {
			r.Get("/", a.serveDashboard)
		}
	})

	// Prometheus scrapes bypass the middleware group.
	if a.Providers.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Providers.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures the /api endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(a.validator.ValidateRequest)
		r.Use(customMiddleware.ContentTypeValidator("application/json"))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		reportHandler := handlers.NewReportHandler(a.Services.Reports, a.Logger)
		r.Mount("/results", reportHandler.Routes())

		// Pipeline runs mutate the processed data and reports, so they
		// are the one route group that gets an audit trail.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuditLog(a.Logger))
			operationsHandler := handlers.NewOperationsHandler(a.Services.Operations, a.Logger)
			r.Mount("/operations", operationsHandler.Routes())
		})
	})
}

// setupStaticAssets serves the dashboard's JS, CSS and icons from the
// embedded filesystem.
func (a *Application) setupStaticAssets(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Use(customMiddleware.Compress(5))
		r.Get("/*", a.serveAsset)
	})
	r.Get("/favicon.svg", a.serveAsset)
}

// serveAsset serves a single file from the embedded frontend with an
// explicit content type. http.FileServer is avoided so directory listings
// are never exposed.
func (a *Application) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	if !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	file, err := a.FrontendFS.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	if stat, statErr := file.Stat(); statErr == nil && stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	io.Copy(w, file)
}

// serveDashboard serves the dashboard page.
func (a *Application) serveDashboard(w http.ResponseWriter, r *http.Request) {
	file, err := a.FrontendFS.Open("index.html")
	if err != nil {
		a.Logger.ErrorContext(r.Context(), "dashboard index missing",
			slog.String("error", err.Error()))
		http.Error(w, "dashboard not available", http.StatusServiceUnavailable)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	io.Copy(w, file)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}

// corsConfig returns the CORS configuration. The dashboard is served from
// the application's own origin; extra origins come from configuration.
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: []string{
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}

	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, a.Config.Security.AllowedOrigins...)
	}

	return cfg
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the background services and the HTTP server. A server
// failure cancels the supplied context so Run can shut down cleanly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("log_level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "application paths",
		slog.String("dataset_dir", a.Paths.DatasetDir),
		slog.String("processed_dir", a.Paths.ProcessedDir),
		slog.String("results_dir", a.Paths.ResultsDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	a.Collector.Start(ctx)

	if err := a.Watcher.Start(); err != nil {
		a.Logger.WarnContext(ctx, "results watcher unavailable, dashboards will not auto-refresh",
			slog.String("error", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.reportSourceDataStatus(ctx)

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// reportSourceDataStatus logs whether the source workbooks are in place.
// Missing workbooks are not fatal here: the server can still serve
// previously generated results, and a pipeline run against absent
// datasets fails with a proper error of its own.
func (a *Application) reportSourceDataStatus(ctx context.Context) {
	validator := validation.NewFileValidator(a.Logger)
	if err := validator.ValidateSourceWorkbooks(a.Paths); err != nil {
		a.Logger.WarnContext(ctx, "source workbooks incomplete",
			slog.String("dataset_dir", a.Paths.DatasetDir),
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "source workbooks present",
		slog.String("dataset_dir", a.Paths.DatasetDir))
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// The broadcaster stops before the hub: run updates flow through the
	// broadcaster into the hub, so shutdown follows the reverse order.
	a.Watcher.Stop()
	a.Manager.Broadcaster().Stop()
	a.Hub.Stop()
	a.Collector.Stop()

	if a.Providers != nil {
		if err := a.Providers.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown failed",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
