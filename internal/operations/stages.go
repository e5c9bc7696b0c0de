package operations

import (
	"context"
	"log/slog"

	"iplcli/internal/dataprocessing"
	"iplcli/internal/impact"
	"iplcli/internal/infrastructure"
)

// PreparationStage wraps the data preparation run as a pipeline stage.
type PreparationStage struct {
	preparer *dataprocessing.Preparer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewPreparationStage creates the first pipeline stage.
func NewPreparationStage(preparer *dataprocessing.Preparer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *PreparationStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreparationStage{
		preparer: preparer,
		metrics:  metrics,
		logger:   logger,
	}
}

// ID returns the stage identifier.
func (s *PreparationStage) ID() string { return StageIDPreparation }

// Name returns the stage display name.
func (s *PreparationStage) Name() string { return StageNamePreparation }

// Run reads the source workbooks and writes the normalized tables.
func (s *PreparationStage) Run(ctx context.Context) error {
	result, err := s.preparer.Run(ctx)
	if err != nil {
		return err
	}

	infrastructure.RecordRowsProcessed(ctx, s.metrics, StageIDPreparation, int64(result.TotalRows()))
	s.logger.InfoContext(ctx, "preparation stage finished",
		slog.Int("tables", len(result.Tables)),
		slog.Int("rows", result.TotalRows()),
		slog.Duration("duration", result.Duration))

	return nil
}

// MetricsStage wraps the metrics computation run as a pipeline stage.
type MetricsStage struct {
	calculator *impact.Calculator
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewMetricsStage creates the second pipeline stage.
func NewMetricsStage(calculator *impact.Calculator, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *MetricsStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsStage{
		calculator: calculator,
		metrics:    metrics,
		logger:     logger,
	}
}

// ID returns the stage identifier.
func (s *MetricsStage) ID() string { return StageIDMetrics }

// Name returns the stage display name.
func (s *MetricsStage) Name() string { return StageNameMetrics }

// Run loads the normalized tables, computes the metrics and persists the
// result document.
func (s *MetricsStage) Run(ctx context.Context) error {
	report, err := s.calculator.Run(ctx)
	if err != nil {
		return err
	}

	infrastructure.RecordRowsProcessed(ctx, s.metrics, StageIDMetrics, int64(report.RankedRisk.RowCount()))
	s.logger.InfoContext(ctx, "metrics stage finished",
		slog.Int("ranked_rows", report.RankedRisk.RowCount()),
		slog.Duration("duration", report.Duration))

	return nil
}
