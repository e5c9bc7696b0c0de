package operations

import "time"

// Pipeline stage identifiers
const (
	StageIDPreparation = "preparation"
	StageIDMetrics     = "metrics"
)

// Pipeline stage display names
const (
	StageNamePreparation = "Data Preparation"
	StageNameMetrics     = "Metrics Computation"
)

// WebSocket event type for run status pushes. The broadcaster sends the
// complete run snapshot on every change; the frontend never has to merge
// partial updates.
const EventTypeRunSnapshot = "operation:snapshot"

// Default per-stage timeouts. Both stages are local batch work over a
// handful of spreadsheets, so these are generous.
const (
	DefaultStageTimeout       = 10 * time.Minute
	DefaultPreparationTimeout = 10 * time.Minute
	DefaultMetricsTimeout     = 5 * time.Minute
)

// maxRunHistory bounds how many finished runs the manager keeps around for
// status queries.
const maxRunHistory = 16

// RunRequest asks the manager for a pipeline run. ID is normally left empty
// and assigned by the manager.
type RunRequest struct {
	ID string `json:"id,omitempty"`
}

// RunResponse reports the outcome of a pipeline run.
type RunResponse struct {
	ID       string                 `json:"id"`
	Status   RunStatus              `json:"status"`
	Duration time.Duration          `json:"duration"`
	Stages   map[string]*StageState `json:"stages"`
	Error    string                 `json:"error,omitempty"`
}
