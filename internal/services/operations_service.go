package services

import (
	"context"
	"log/slog"

	"iplcli/internal/operations"
)

// OperationsService fronts the pipeline manager for the HTTP layer. Run
// starts go to the background; status and history come from the manager's
// broadcaster snapshots.
type OperationsService struct {
	manager *operations.Manager
	logger  *slog.Logger
}

// NewOperationsService creates an operations service around a manager.
func NewOperationsService(manager *operations.Manager, logger *slog.Logger) *OperationsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsService{
		manager: manager,
		logger:  logger.With(slog.String("component", "operations_service")),
	}
}

// StartPipeline starts a background pipeline run and returns its ID.
// operations.ErrRunActive comes back unchanged when a run is in flight; the
// handler maps it to 409.
func (s *OperationsService) StartPipeline(ctx context.Context) (string, error) {
	runID, err := s.manager.Start(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "pipeline start rejected",
			slog.String("error", err.Error()))
		return "", err
	}

	s.logger.InfoContext(ctx, "pipeline run started",
		slog.String("run_id", runID))
	return runID, nil
}

// Status returns the progress snapshot for a run, or
// operations.ErrRunNotFound for unknown IDs.
func (s *OperationsService) Status(ctx context.Context, runID string) (*operations.RunSnapshot, error) {
	return s.manager.Snapshot(runID)
}

// List returns run snapshots, newest first, capped at limit. A limit of
// zero or less means no cap.
func (s *OperationsService) List(ctx context.Context, limit int) []*operations.RunSnapshot {
	snapshots := s.manager.Snapshots()

	// Snapshots come back oldest first; the dashboard wants the latest run
	// on top.
	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}

	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots
}

// IsRunning reports whether a pipeline run is in flight.
func (s *OperationsService) IsRunning() bool {
	return s.manager.IsRunning()
}
