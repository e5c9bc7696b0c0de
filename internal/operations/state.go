package operations

import (
	"sync"
	"time"
)

// RunStatus represents the overall status of a pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState is the manager's record of one pipeline run.
type RunState struct {
	mu sync.RWMutex

	ID        string                 `json:"id"`
	Status    RunStatus              `json:"status"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Stages    map[string]*StageState `json:"stages"`
	Error     string                 `json:"error,omitempty"`
}

// NewRunState creates a pending run state.
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Stages:    make(map[string]*StageState),
	}
}

// Start marks the run as running.
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed.
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed.
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// CurrentStatus returns the status under the read lock.
func (r *RunState) CurrentStatus() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// Stage returns the state of a specific stage, or nil.
func (r *RunState) Stage(stageID string) *StageState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Stages[stageID]
}

// SetStage records the state of a specific stage.
func (r *RunState) SetStage(stageID string, state *StageState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stages[stageID] = state
}

// Duration returns how long the run took, or has been running.
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// Clone returns a deep copy safe to hand out of the manager.
func (r *RunState) Clone() *RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := &RunState{
		ID:        r.ID,
		Status:    r.Status,
		StartTime: r.StartTime,
		Stages:    make(map[string]*StageState, len(r.Stages)),
		Error:     r.Error,
	}
	if r.EndTime != nil {
		t := *r.EndTime
		clone.EndTime = &t
	}
	for id, stage := range r.Stages {
		clone.Stages[id] = stage.clone()
	}
	return clone
}

// Response converts the run state into the response shape.
func (r *RunState) Response() *RunResponse {
	clone := r.Clone()
	return &RunResponse{
		ID:       clone.ID,
		Status:   clone.Status,
		Duration: r.Duration(),
		Stages:   clone.Stages,
		Error:    clone.Error,
	}
}
