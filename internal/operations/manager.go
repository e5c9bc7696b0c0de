package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"iplcli/internal/infrastructure"
)

// Manager executes the pipeline stages sequentially and tracks run state.
// One run holds the pipeline slot at a time; concurrent requests get
// ErrRunActive.
type Manager struct {
	stages      []Stage
	broadcaster *StatusBroadcaster
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
	timeouts    map[string]time.Duration

	mu     sync.RWMutex
	runs   map[string]*RunState
	order  []string
	active string
}

// NewManager creates a manager for the given stages. hub may be nil, in
// which case status events go to the log. metrics may be nil to disable
// instrumentation.
func NewManager(hub WebSocketHub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, stages ...Stage) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		stages:      stages,
		broadcaster: NewStatusBroadcaster(hub, logger),
		metrics:     metrics,
		logger:      logger,
		timeouts: map[string]time.Duration{
			StageIDPreparation: DefaultPreparationTimeout,
			StageIDMetrics:     DefaultMetricsTimeout,
		},
		runs: make(map[string]*RunState),
	}
}

// SetStageTimeout overrides the timeout for one stage.
func (m *Manager) SetStageTimeout(stageID string, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts[stageID] = timeout
}

func (m *Manager) stageTimeout(stageID string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if timeout, ok := m.timeouts[stageID]; ok {
		return timeout
	}
	return DefaultStageTimeout
}

// Broadcaster returns the status broadcaster, for wiring and shutdown.
func (m *Manager) Broadcaster() *StatusBroadcaster {
	return m.broadcaster
}

// Execute runs the pipeline synchronously and returns its outcome. The
// batch binaries use this entry point.
func (m *Manager) Execute(ctx context.Context, req RunRequest) (*RunResponse, error) {
	state, err := m.begin(req)
	if err != nil {
		return nil, err
	}
	return m.run(ctx, state)
}

// Start launches a run in the background and returns its ID immediately.
// The operations endpoint uses this entry point; progress is observable via
// Snapshot. The run outlives the request context.
func (m *Manager) Start(ctx context.Context) (string, error) {
	state, err := m.begin(RunRequest{})
	if err != nil {
		return "", err
	}

	go m.run(context.WithoutCancel(ctx), state)

	return state.ID, nil
}

// IsRunning reports whether a run currently holds the pipeline slot.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != ""
}

// GetRun returns a copy of the state for a run.
func (m *Manager) GetRun(id string) (*RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.runs[id]
	if !exists {
		return nil, ErrRunNotFound
	}
	return state.Clone(), nil
}

// Snapshot returns the frontend-facing snapshot for a run.
func (m *Manager) Snapshot(id string) (*RunSnapshot, error) {
	if snapshot, ok := m.broadcaster.GetSnapshot(id); ok {
		return snapshot, nil
	}
	return nil, ErrRunNotFound
}

// Snapshots returns the snapshots of all runs the manager still remembers,
// oldest first.
func (m *Manager) Snapshots() []*RunSnapshot {
	m.mu.RLock()
	order := make([]string, len(m.order))
	copy(order, m.order)
	m.mu.RUnlock()

	snapshots := make([]*RunSnapshot, 0, len(order))
	for _, id := range order {
		if snapshot, ok := m.broadcaster.GetSnapshot(id); ok {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}

// begin claims the pipeline slot and registers a new run state.
func (m *Manager) begin(req RunRequest) (*RunState, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != "" {
		return nil, ErrRunActive
	}
	if _, exists := m.runs[id]; exists {
		return nil, &RunError{
			Type:    ErrorTypeInvalidState,
			Message: fmt.Sprintf("run %s already exists", id),
		}
	}

	state := NewRunState(id)
	for _, stage := range m.stages {
		state.SetStage(stage.ID(), NewStageState(stage.ID(), stage.Name()))
	}

	m.runs[id] = state
	m.order = append(m.order, id)
	m.pruneLocked()
	m.active = id

	return state, nil
}

// release frees the pipeline slot. The run state stays queryable until
// pruned by later runs.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == id {
		m.active = ""
	}
}

// pruneLocked drops the oldest finished runs beyond the history cap.
// Callers hold m.mu.
func (m *Manager) pruneLocked() {
	for len(m.order) > maxRunHistory {
		victim := m.order[0]
		if victim == m.active {
			return
		}
		m.order = m.order[1:]
		delete(m.runs, victim)
		m.broadcaster.Remove(victim)
	}
}

// run executes the registered stages for a claimed run state.
func (m *Manager) run(ctx context.Context, state *RunState) (*RunResponse, error) {
	defer m.release(state.ID)

	m.broadcaster.CreateRun(state.ID, m.stages)

	infrastructure.RecordActiveRunChange(ctx, m.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, m.metrics, -1)

	m.logger.InfoContext(ctx, "pipeline run started",
		slog.String("run_id", state.ID),
		slog.Int("stages", len(m.stages)))

	state.Start()
	m.broadcaster.StartRun(state.ID)

	err := m.runStages(ctx, state)
	if err != nil {
		state.Fail(err)
		m.broadcaster.FailRun(state.ID, err)
		m.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()),
			slog.Duration("duration", state.Duration()))
	} else {
		state.Complete()
		m.broadcaster.CompleteRun(state.ID, "pipeline completed")
		m.logger.InfoContext(ctx, "pipeline run completed",
			slog.String("run_id", state.ID),
			slog.Duration("duration", state.Duration()))
	}

	infrastructure.RecordPipelineRunMetrics(ctx, m.metrics, state.ID, state.Duration(), err == nil, err)
	if GetErrorType(err) == ErrorTypeCancellation {
		infrastructure.RecordRunCancellation(ctx, m.metrics, state.ID, "context cancelled")
	}

	return state.Response(), err
}

// runStages walks the stages in order, stopping at the first failure.
func (m *Manager) runStages(ctx context.Context, state *RunState) error {
	for i, stage := range m.stages {
		if ctx.Err() != nil {
			m.skipRemaining(state, i, "run cancelled")
			return NewCancellationError(stage.ID())
		}

		stageState := state.Stage(stage.ID())
		stageState.Start()
		m.broadcaster.StartStage(state.ID, stage.ID())
		m.logger.InfoContext(ctx, "stage started",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(m.stages)))

		timeout := m.stageTimeout(stage.ID())
		stageCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := stage.Run(stageCtx)
		duration := time.Since(start)
		cancel()

		infrastructure.RecordStageMetrics(ctx, m.metrics, state.ID, stage.ID(), duration, err == nil)

		if err != nil {
			stageState.Fail(err)
			m.broadcaster.FailStage(state.ID, stage.ID(), err)
			m.logger.ErrorContext(ctx, "stage failed",
				slog.String("run_id", state.ID),
				slog.String("stage", stage.ID()),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()))
			m.skipRemaining(state, i+1, fmt.Sprintf("previous stage %s failed", stage.ID()))

			switch {
			case errors.Is(err, context.DeadlineExceeded):
				return NewTimeoutError(stage.ID(), timeout)
			case errors.Is(err, context.Canceled):
				return NewCancellationError(stage.ID())
			default:
				return NewStageError(stage.ID(), err)
			}
		}

		stageState.Complete()
		m.broadcaster.CompleteStage(state.ID, stage.ID(), "stage completed")
		m.logger.InfoContext(ctx, "stage completed",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.Duration("duration", duration))
	}

	return nil
}

// skipRemaining marks stages from index on as skipped.
func (m *Manager) skipRemaining(state *RunState, from int, reason string) {
	for _, stage := range m.stages[from:] {
		stageState := state.Stage(stage.ID())
		if stageState == nil || stageState.CurrentStatus() != StageStatusPending {
			continue
		}
		stageState.Skip(reason)
		m.broadcaster.SkipStage(state.ID, stage.ID(), reason)
	}
}
