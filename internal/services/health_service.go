package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"iplcli/internal/config"
	"iplcli/internal/infrastructure"
	"iplcli/internal/operations"
	ws "iplcli/internal/websocket"
	"iplcli/pkg/contracts"
)

// HealthService aggregates component health for the dashboard. Freshness of
// the result document is the main signal: the server can be alive with
// nothing to serve.
type HealthService struct {
	version   string
	paths     *config.Paths
	reports   *ReportService
	manager   *operations.Manager
	hub       *ws.Hub
	collector *infrastructure.SystemMetricsCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Results   *ResultsInfo           `json:"results,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
	System    map[string]interface{} `json:"system,omitempty"`
}

// ServiceHealth represents individual component health.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. The collector is optional;
// without one the response simply omits system stats.
func NewHealthService(version string, paths *config.Paths, reports *ReportService, manager *operations.Manager, hub *ws.Hub, collector *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		reports:   reports,
		manager:   manager,
		hub:       hub,
		collector: collector,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health. Status is "ok" when every component
// is ready and "degraded" otherwise; the server never reports itself down
// from its own handler.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	resultsInfo := hs.reports.Info(ctx)
	status.Results = &resultsInfo

	status.Services["results"] = hs.checkResultsHealth(resultsInfo)
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["pipeline"] = hs.checkPipelineHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "degraded"
			break
		}
	}

	if hs.collector != nil {
		if stats := hs.collector.GetCurrentStats(ctx); stats != nil {
			status.System = stats.FormatStats()
		}
	}

	hs.logger.DebugContext(ctx, "health check served",
		slog.String("status", status.Status),
		slog.Bool("results_exist", resultsInfo.Exists))

	return status
}

// LivenessCheck returns a minimal alive signal with process runtime info.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports whether the server can serve its purpose: the
// results directory must be reachable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	if _, err := os.Stat(hs.paths.ResultsDir); err != nil {
		status.Status = "not_ready"
		status.Services["results_dir"] = ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("results directory not accessible: %v", err),
		}
	} else {
		status.Services["results_dir"] = ServiceHealth{Status: "ready"}
	}

	return status
}

// Version returns build and runtime version information.
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version,
		"build_time":   contracts.BuildTime,
		"git_commit":   contracts.GitCommit,
		"data_format":  contracts.DataFormatVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkResultsHealth(info ResultsInfo) ServiceHealth {
	if !info.Exists {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "analysis results not generated yet; run the pipeline",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("results generated %s", info.GeneratedAt.Format(time.RFC3339)),
	}
}

func (hs *HealthService) checkWebSocketHealth() interface{} {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return hs.hub.Metrics()
}

func (hs *HealthService) checkPipelineHealth() interface{} {
	if hs.manager == nil {
		return ServiceHealth{Status: "not_ready", Message: "pipeline manager not initialized"}
	}
	return map[string]interface{}{
		"running":   hs.manager.IsRunning(),
		"run_count": len(hs.manager.Snapshots()),
	}
}
