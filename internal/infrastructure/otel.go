package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName    = "ipl-pulse"
	ServiceVersion = "v1.0.0"
	MeterName      = "iplcli"
)

// OTelConfig selects exporters and sampling for the web server. The batch
// CLIs skip OTel entirely; only cmd/web initializes it.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders bundles everything instrumentation consumers need. Tracer
// and Meter are never nil; with exporters disabled they are no-ops.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig enables both signals with full sampling, which suits a
// single-operator dashboard.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// InitializeOTel wires tracing and metrics per cfg and installs the global
// propagator. Disabled or "none"-exporter signals leave no-op providers in
// place, so callers never nil-check their instruments.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := newResource(cfg)
	providers := &OTelProviders{
		Logger: logger,
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
	}

	if cfg.EnableTracing {
		tp, err := newTraceProvider(cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		if tp != nil {
			providers.TracerProvider = tp
			providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
			otel.SetTracerProvider(tp)

			logger.InfoContext(ctx, "Tracing initialized",
				slog.String("exporter", cfg.TraceExporter),
				slog.Float64("sample_ratio", cfg.SampleRatio))
		}
	}

	if cfg.EnableMetrics {
		mp, err := newMeterProvider(cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		if mp != nil {
			providers.MeterProvider = mp
			providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
			providers.PrometheusHTTP = promhttp.Handler()
			otel.SetMeterProvider(mp)

			logger.InfoContext(ctx, "Metrics initialized",
				slog.String("exporter", cfg.MetricExporter))
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

func newResource(cfg *OTelConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)
}

// newTraceProvider returns nil without error for the "none" exporter so the
// caller keeps its no-op tracer.
func newTraceProvider(cfg *OTelConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	switch cfg.TraceExporter {
	case "none":
		return nil, nil
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		return sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		), nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
}

// newMeterProvider mirrors newTraceProvider for the metrics signal.
func newMeterProvider(cfg *OTelConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	switch cfg.MetricExporter {
	case "none":
		return nil, nil
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		), nil
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}
}

// BusinessMetrics holds the dashboard's application-level instruments,
// shared between the HTTP middleware and the pipeline manager.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	PipelineRunsTotal     metric.Int64Counter
	PipelineRunDuration   metric.Float64Histogram
	PipelineStagesTotal   metric.Int64Counter
	PipelineStageDuration metric.Float64Histogram
	PipelineActiveRuns    metric.Int64UpDownCounter
	PipelineErrors        metric.Int64Counter
	PipelineCancellations metric.Int64Counter
	PipelineRowsProcessed metric.Int64Counter

	SystemErrors metric.Int64Counter
	SystemUptime metric.Float64UpDownCounter
}

// instrumentSet keeps the first instrument creation failure so the metric
// list in CreateBusinessMetrics reads as a declaration, not an error ladder.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) fail(name string, err error) {
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("instrument %s: %w", name, err)
	}
}

func (s *instrumentSet) counter(name, desc string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc))
	s.fail(name, err)
	return c
}

func (s *instrumentSet) upDownCounter(name, desc string) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	s.fail(name, err)
	return c
}

func (s *instrumentSet) seconds(name, desc string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	s.fail(name, err)
	return h
}

func (s *instrumentSet) secondsUpDown(name, desc string) metric.Float64UpDownCounter {
	c, err := s.meter.Float64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit("s"))
	s.fail(name, err)
	return c
}

// CreateBusinessMetrics registers every application instrument on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	set := &instrumentSet{meter: meter}

	m := &BusinessMetrics{
		HTTPRequestsTotal:   set.counter("http_requests_total", "Total number of HTTP requests"),
		HTTPRequestDuration: set.seconds("http_request_duration_seconds", "HTTP request duration in seconds"),
		HTTPActiveRequests:  set.upDownCounter("http_active_requests", "Number of active HTTP requests"),

		PipelineRunsTotal:     set.counter("pipeline_runs_total", "Total number of pipeline runs"),
		PipelineRunDuration:   set.seconds("pipeline_run_duration_seconds", "Pipeline run duration in seconds"),
		PipelineStagesTotal:   set.counter("pipeline_stages_total", "Total number of pipeline stages executed"),
		PipelineStageDuration: set.seconds("pipeline_stage_duration_seconds", "Pipeline stage execution duration in seconds"),
		PipelineActiveRuns:    set.upDownCounter("pipeline_active_runs", "Number of active pipeline runs"),
		PipelineErrors:        set.counter("pipeline_errors_total", "Total number of pipeline errors"),
		PipelineCancellations: set.counter("pipeline_cancellations_total", "Total number of pipeline cancellations"),
		PipelineRowsProcessed: set.counter("pipeline_rows_processed_total", "Total table rows processed by pipeline stages"),

		SystemErrors: set.counter("system_errors_total", "Total number of system errors"),
		SystemUptime: set.secondsUpDown("system_uptime_seconds", "System uptime in seconds"),
	}

	if set.err != nil {
		return nil, set.err
	}
	return m, nil
}

// Shutdown flushes and stops both providers. Call with a deadline context
// during server shutdown.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext returns the active span's trace ID, or "" when no span
// is recording. The HTTP middleware uses it to align log trace IDs with
// exported spans.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent attaches a named event with loosely typed attributes to the
// current span. No-op off-trace.
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError marks the current span failed with err. No-op off-trace.
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

func runOutcome(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordPipelineRunMetrics records the counters for one finished run.
func RecordPipelineRunMetrics(ctx context.Context, metrics *BusinessMetrics, runID string, duration time.Duration, success bool, err error) {
	if metrics == nil {
		return
	}

	runAttr := attribute.String("run.id", runID)
	metrics.PipelineRunsTotal.Add(ctx, 1, metric.WithAttributes(runAttr))
	metrics.PipelineRunDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(runAttr, runOutcome(success)))

	if err != nil {
		metrics.PipelineErrors.Add(ctx, 1, metric.WithAttributes(
			runAttr, attribute.String("error.type", fmt.Sprintf("%T", err))))
	}

	AddSpanEvent(ctx, "pipeline.metrics_recorded", map[string]interface{}{
		"run.id":           runID,
		"success":          success,
		"duration_seconds": duration.Seconds(),
	})
}

// RecordStageMetrics records the counters for one finished stage.
func RecordStageMetrics(ctx context.Context, metrics *BusinessMetrics, runID, stageID string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("run.id", runID),
		attribute.String("stage.id", stageID),
	}
	metrics.PipelineStagesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.PipelineStageDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, runOutcome(success))...))
}

// RecordActiveRunChange moves the active-run gauge by delta.
func RecordActiveRunChange(ctx context.Context, metrics *BusinessMetrics, delta int64) {
	if metrics == nil {
		return
	}
	metrics.PipelineActiveRuns.Add(ctx, delta)
}

// RecordRunCancellation counts one cancelled run with its reason.
func RecordRunCancellation(ctx context.Context, metrics *BusinessMetrics, runID, reason string) {
	if metrics == nil {
		return
	}
	metrics.PipelineCancellations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("reason", reason),
	))
}

// RecordRowsProcessed counts table rows a stage handled.
func RecordRowsProcessed(ctx context.Context, metrics *BusinessMetrics, stageID string, rows int64) {
	if metrics == nil {
		return
	}
	metrics.PipelineRowsProcessed.Add(ctx, rows, metric.WithAttributes(
		attribute.String("stage.id", stageID),
	))
}
