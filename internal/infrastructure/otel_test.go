package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func newTestProviders(t *testing.T, cfg *OTelConfig) *OTelProviders {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, providers.Shutdown(ctx))
	})
	return providers
}

func TestInitializeOTel_DefaultConfig(t *testing.T) {
	providers := newTestProviders(t, nil)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestInitializeOTel_DisabledSignalsFallBackToNoops(t *testing.T) {
	providers := newTestProviders(t, &OTelConfig{
		ServiceName:    "test-service",
		ServiceVersion: "v0.0.1",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableMetrics:  false,
		EnableTracing:  false,
	})

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	// Instrument consumers never nil-check, so both must still be usable.
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()
}

func TestInitializeOTel_NoneExporterWithSignalEnabled(t *testing.T) {
	providers := newTestProviders(t, &OTelConfig{
		ServiceName:    "test-service",
		ServiceVersion: "v0.0.1",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	})

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
}

func TestInitializeOTel_RejectsUnknownExporters(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := InitializeOTel(&OTelConfig{
		TraceExporter: "jaeger",
		EnableTracing: true,
	}, logger)
	assert.ErrorContains(t, err, "unsupported trace exporter")

	_, err = InitializeOTel(&OTelConfig{
		TraceExporter:  "none",
		MetricExporter: "statsd",
		EnableTracing:  true,
		EnableMetrics:  true,
	}, logger)
	assert.ErrorContains(t, err, "unsupported metric exporter")
}

func TestTraceIDFromContext(t *testing.T) {
	newTestProviders(t, DefaultOTelConfig())

	assert.Empty(t, TraceIDFromContext(context.Background()), "no span means no trace ID")

	tracer := otel.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	// The extracted ID round-trips through the logging context.
	assert.Equal(t, traceID, GetTraceID(WithTraceID(ctx, traceID)))
}

func TestCreateBusinessMetrics(t *testing.T) {
	providers := newTestProviders(t, DefaultOTelConfig())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	instruments := []struct {
		name  string
		value interface{}
	}{
		{"http_requests_total", metrics.HTTPRequestsTotal},
		{"http_request_duration", metrics.HTTPRequestDuration},
		{"http_active_requests", metrics.HTTPActiveRequests},
		{"pipeline_runs_total", metrics.PipelineRunsTotal},
		{"pipeline_run_duration", metrics.PipelineRunDuration},
		{"pipeline_stages_total", metrics.PipelineStagesTotal},
		{"pipeline_stage_duration", metrics.PipelineStageDuration},
		{"pipeline_active_runs", metrics.PipelineActiveRuns},
		{"pipeline_errors", metrics.PipelineErrors},
		{"pipeline_cancellations", metrics.PipelineCancellations},
		{"pipeline_rows_processed", metrics.PipelineRowsProcessed},
		{"system_errors", metrics.SystemErrors},
		{"system_uptime", metrics.SystemUptime},
	}
	for _, instrument := range instruments {
		assert.NotNil(t, instrument.value, instrument.name)
	}
}

func TestPipelineRecorders(t *testing.T) {
	providers := newTestProviders(t, DefaultOTelConfig())
	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()

	// Recorders are fire-and-forget: nil metrics must no-op and populated
	// metrics must not panic.
	RecordPipelineRunMetrics(ctx, nil, "run-1", time.Second, true, nil)
	RecordPipelineRunMetrics(ctx, metrics, "run-1", time.Second, true, nil)
	RecordPipelineRunMetrics(ctx, metrics, "run-2", 2*time.Second, false, assert.AnError)

	RecordStageMetrics(ctx, nil, "run-1", "preparation", time.Second, true)
	RecordStageMetrics(ctx, metrics, "run-1", "preparation", time.Second, true)
	RecordStageMetrics(ctx, metrics, "run-1", "metrics", time.Second, false)

	RecordActiveRunChange(ctx, metrics, 1)
	RecordActiveRunChange(ctx, metrics, -1)
	RecordRunCancellation(ctx, metrics, "run-3", "context cancelled")
	RecordRowsProcessed(ctx, metrics, "preparation", 120)
}

func TestSpanHelpers(t *testing.T) {
	newTestProviders(t, DefaultOTelConfig())

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	AddSpanEvent(ctx, "rows.loaded", map[string]interface{}{
		"table":     "advertisers_with_risk",
		"row_count": 42,
		"ratio":     3.14,
		"ok":        true,
		"loaded_at": time.Now().Unix(),
	})
	RecordError(ctx, assert.AnError)

	assert.True(t, span.IsRecording())

	// Both helpers are no-ops without a recording span.
	AddSpanEvent(context.Background(), "ignored", nil)
	RecordError(context.Background(), assert.AnError)
}

func TestPrometheusEndpoint(t *testing.T) {
	providers := newTestProviders(t, DefaultOTelConfig())

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}
