package operations

import (
	"log/slog"
	"sync"
	"time"
)

// WebSocketHub receives run status events for connected dashboard clients.
type WebSocketHub interface {
	BroadcastUpdate(eventType, subject, action string, payload interface{})
}

// LoggingHub is the hub used by the batch binaries: it writes every status
// event to the structured log instead of a socket.
type LoggingHub struct {
	logger *slog.Logger
}

// NewLoggingHub creates a hub that logs instead of broadcasting.
func NewLoggingHub(logger *slog.Logger) *LoggingHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHub{logger: logger}
}

// BroadcastUpdate implements WebSocketHub.
func (h *LoggingHub) BroadcastUpdate(eventType, subject, action string, payload interface{}) {
	h.logger.Debug("status event",
		slog.String("event", eventType),
		slog.String("subject", subject),
		slog.String("action", action))
}

// StatusBroadcaster is the single authority for run status updates. It keeps
// a snapshot per run and pushes the complete snapshot to the hub on every
// change, so clients never merge partial updates.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	runs    map[string]*RunSnapshot
	hub     WebSocketHub
	logger  *slog.Logger
	updates chan updateRequest
	stop    chan struct{}
}

// RunSnapshot is the frontend-facing view of a run at a point in time.
type RunSnapshot struct {
	RunID        string          `json:"run_id"`
	Status       RunStatus       `json:"status"`
	Progress     int             `json:"progress"`
	CurrentStage string          `json:"current_stage,omitempty"`
	Stages       []StageSnapshot `json:"stages"`
	StartedAt    time.Time       `json:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Error        string          `json:"error,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// StageSnapshot is the state of a single stage within a run snapshot.
type StageSnapshot struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Status   StageStatus `json:"status"`
	Progress int         `json:"progress"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type updateRequest struct {
	runID      string
	updateFunc func(*RunSnapshot)
	done       chan struct{}
}

// NewStatusBroadcaster creates a broadcaster and starts its update loop.
func NewStatusBroadcaster(hub WebSocketHub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = NewLoggingHub(logger)
	}

	sb := &StatusBroadcaster{
		runs:    make(map[string]*RunSnapshot),
		hub:     hub,
		logger:  logger,
		updates: make(chan updateRequest, 100),
		stop:    make(chan struct{}),
	}

	go sb.processUpdates()

	return sb
}

// processUpdates applies updates one at a time so snapshots never race.
func (sb *StatusBroadcaster) processUpdates() {
	for {
		select {
		case <-sb.stop:
			return
		case req := <-sb.updates:
			sb.handleUpdate(req)
		}
	}
}

func (sb *StatusBroadcaster) handleUpdate(req updateRequest) {
	defer close(req.done)

	sb.mu.Lock()
	defer sb.mu.Unlock()

	snapshot, exists := sb.runs[req.runID]
	if !exists {
		snapshot = &RunSnapshot{
			RunID:     req.runID,
			Status:    RunStatusPending,
			StartedAt: time.Now(),
			Stages:    []StageSnapshot{},
		}
		sb.runs[req.runID] = snapshot
	}

	req.updateFunc(snapshot)
	snapshot.UpdatedAt = time.Now()

	// Overall progress is the mean of stage progress values.
	if len(snapshot.Stages) > 0 {
		total := 0
		for _, stage := range snapshot.Stages {
			total += stage.Progress
		}
		snapshot.Progress = total / len(snapshot.Stages)
	}

	if snapshot.Status == RunStatusCompleted || snapshot.Status == RunStatusFailed {
		if snapshot.CompletedAt == nil {
			now := time.Now()
			snapshot.CompletedAt = &now
		}
	}

	sb.broadcast(snapshot)
}

func (sb *StatusBroadcaster) broadcast(snapshot *RunSnapshot) {
	sb.logger.Debug("broadcasting run snapshot",
		slog.String("run_id", snapshot.RunID),
		slog.String("status", string(snapshot.Status)),
		slog.Int("progress", snapshot.Progress),
		slog.String("current_stage", snapshot.CurrentStage))

	copied := sb.copySnapshotLocked(snapshot)
	sb.hub.BroadcastUpdate(EventTypeRunSnapshot, snapshot.RunID, "update", copied)
}

// update queues an update and waits for it to be applied.
func (sb *StatusBroadcaster) update(runID string, updateFunc func(*RunSnapshot)) {
	req := updateRequest{
		runID:      runID,
		updateFunc: updateFunc,
		done:       make(chan struct{}),
	}

	sb.updates <- req
	<-req.done
}

// CreateRun initializes a snapshot with one pending entry per stage.
func (sb *StatusBroadcaster) CreateRun(runID string, stages []Stage) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		snapshot.Status = RunStatusPending
		snapshot.Progress = 0
		snapshot.Stages = make([]StageSnapshot, len(stages))
		for i, stage := range stages {
			snapshot.Stages[i] = StageSnapshot{
				ID:     stage.ID(),
				Name:   stage.Name(),
				Status: StageStatusPending,
			}
		}
		snapshot.Message = "run created"
	})
}

// StartRun marks a run as running.
func (sb *StatusBroadcaster) StartRun(runID string) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		snapshot.Status = RunStatusRunning
		snapshot.Message = "run started"
	})
}

// StartStage marks a stage as running and makes it the current stage.
func (sb *StatusBroadcaster) StartStage(runID, stageID string) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		for i := range snapshot.Stages {
			if snapshot.Stages[i].ID == stageID {
				snapshot.Stages[i].Status = StageStatusRunning
				snapshot.Stages[i].Message = "stage started"
				snapshot.CurrentStage = snapshot.Stages[i].Name
				break
			}
		}
	})
}

// CompleteStage marks a stage as completed.
func (sb *StatusBroadcaster) CompleteStage(runID, stageID, message string) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		for i := range snapshot.Stages {
			if snapshot.Stages[i].ID == stageID {
				snapshot.Stages[i].Status = StageStatusCompleted
				snapshot.Stages[i].Progress = 100
				snapshot.Stages[i].Message = message
				break
			}
		}
	})
}

// FailStage marks a stage as failed.
func (sb *StatusBroadcaster) FailStage(runID, stageID string, err error) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		for i := range snapshot.Stages {
			if snapshot.Stages[i].ID == stageID {
				snapshot.Stages[i].Status = StageStatusFailed
				if err != nil {
					snapshot.Stages[i].Error = err.Error()
				}
				break
			}
		}
	})
}

// SkipStage marks a stage as skipped with a reason.
func (sb *StatusBroadcaster) SkipStage(runID, stageID, reason string) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		for i := range snapshot.Stages {
			if snapshot.Stages[i].ID == stageID {
				snapshot.Stages[i].Status = StageStatusSkipped
				snapshot.Stages[i].Message = reason
				break
			}
		}
	})
}

// CompleteRun marks a run as completed.
func (sb *StatusBroadcaster) CompleteRun(runID, message string) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		snapshot.Status = RunStatusCompleted
		snapshot.Progress = 100
		snapshot.CurrentStage = ""
		snapshot.Message = message
		for i := range snapshot.Stages {
			if snapshot.Stages[i].Status == StageStatusRunning {
				snapshot.Stages[i].Status = StageStatusCompleted
				snapshot.Stages[i].Progress = 100
			}
		}
	})
}

// FailRun marks a run as failed.
func (sb *StatusBroadcaster) FailRun(runID string, err error) {
	sb.update(runID, func(snapshot *RunSnapshot) {
		snapshot.Status = RunStatusFailed
		snapshot.CurrentStage = ""
		if err != nil {
			snapshot.Error = err.Error()
		}
	})
}

// GetSnapshot returns a copy of the snapshot for a run.
func (sb *StatusBroadcaster) GetSnapshot(runID string) (*RunSnapshot, bool) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	snapshot, exists := sb.runs[runID]
	if !exists {
		return nil, false
	}
	return sb.copySnapshotLocked(snapshot), true
}

// Snapshots returns copies of all known run snapshots.
func (sb *StatusBroadcaster) Snapshots() []*RunSnapshot {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	snapshots := make([]*RunSnapshot, 0, len(sb.runs))
	for _, snapshot := range sb.runs {
		snapshots = append(snapshots, sb.copySnapshotLocked(snapshot))
	}
	return snapshots
}

// Remove drops the snapshot for a pruned run.
func (sb *StatusBroadcaster) Remove(runID string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	delete(sb.runs, runID)
}

// copySnapshotLocked deep-copies a snapshot. Callers hold sb.mu.
func (sb *StatusBroadcaster) copySnapshotLocked(snapshot *RunSnapshot) *RunSnapshot {
	copied := *snapshot
	copied.Stages = make([]StageSnapshot, len(snapshot.Stages))
	copy(copied.Stages, snapshot.Stages)
	if snapshot.CompletedAt != nil {
		t := *snapshot.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}

// Stop shuts down the update loop.
func (sb *StatusBroadcaster) Stop() {
	close(sb.stop)
}
