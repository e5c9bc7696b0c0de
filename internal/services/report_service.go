package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"iplcli/internal/config"
	apierrors "iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// ReportService serves the persisted analysis result document. The document
// is cached and re-read only when the file's modification time changes, so
// dashboard polling does not hammer the disk while a run is not writing.
type ReportService struct {
	paths  *config.Paths
	logger *slog.Logger

	mu      sync.RWMutex
	cached  *domain.AnalysisResults
	modTime time.Time
}

// ResultsInfo describes the state of the result document for health checks.
type ResultsInfo struct {
	Exists      bool      `json:"exists"`
	Path        string    `json:"path"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	AgeSeconds  float64   `json:"age_seconds,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
}

// NewReportService creates a report service reading from the configured
// results directory.
func NewReportService(paths *config.Paths, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		paths:  paths,
		logger: logger.With(slog.String("component", "report_service")),
	}
}

// Results returns the current analysis result document. ErrResultsNotFound
// is returned when the pipeline has not produced one yet.
func (s *ReportService) Results(ctx context.Context) (*domain.AnalysisResults, error) {
	info, err := os.Stat(s.paths.AnalysisResultsJSON)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrResultsNotFound
		}
		return nil, apierrors.NewDataLoadError("stat analysis results", err)
	}

	s.mu.RLock()
	if s.cached != nil && info.ModTime().Equal(s.modTime) {
		cached := s.cached
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	return s.reload(ctx, info.ModTime())
}

// Metric returns a single metric from the result document by key.
func (s *ReportService) Metric(ctx context.Context, key string) (any, error) {
	results, err := s.Results(ctx)
	if err != nil {
		return nil, err
	}

	value, ok := results.Metric(key)
	if !ok {
		return nil, ErrMetricNotFound
	}
	return value, nil
}

// Info reports whether the result document exists and how stale it is.
func (s *ReportService) Info(ctx context.Context) ResultsInfo {
	info, err := os.Stat(s.paths.AnalysisResultsJSON)
	if err != nil {
		return ResultsInfo{Exists: false, Path: s.paths.AnalysisResultsJSON}
	}

	return ResultsInfo{
		Exists:      true,
		Path:        s.paths.AnalysisResultsJSON,
		GeneratedAt: info.ModTime(),
		AgeSeconds:  time.Since(info.ModTime()).Seconds(),
		SizeBytes:   info.Size(),
	}
}

// Invalidate drops the cached document. The file watcher calls this when
// analysis_results.json changes so the next read sees the new run.
func (s *ReportService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.modTime = time.Time{}
	s.mu.Unlock()
}

func (s *ReportService) reload(ctx context.Context, modTime time.Time) (*domain.AnalysisResults, error) {
	data, err := os.ReadFile(s.paths.AnalysisResultsJSON)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrResultsNotFound
		}
		return nil, apierrors.NewDataLoadError("read analysis results", err)
	}

	var results domain.AnalysisResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, apierrors.NewParsingError("analysis results document is corrupted", err)
	}

	s.mu.Lock()
	s.cached = &results
	s.modTime = modTime
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "analysis results loaded",
		slog.String("path", s.paths.AnalysisResultsJSON),
		slog.Time("generated_at", modTime),
		slog.Int("size_bytes", len(data)))

	return &results, nil
}
