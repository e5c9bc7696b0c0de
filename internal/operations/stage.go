package operations

import (
	"context"
	"sync"
	"time"
)

// Stage is a single unit of pipeline work. Implementations wrap the
// preparation and metrics computations; ordering, timeouts and status
// tracking belong to the Manager, never to the stage itself.
type Stage interface {
	// ID returns the stable machine identifier for this stage.
	ID() string

	// Name returns the human-readable name for this stage.
	Name() string

	// Run executes the stage. It must honor ctx cancellation and return
	// the first error it cannot recover from.
	Run(ctx context.Context) error
}

// StageStatus represents the lifecycle state of a stage within a run.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusRunning   StageStatus = "running"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState records how one stage fared inside a run.
type StageState struct {
	mu        sync.RWMutex
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewStageState creates a pending stage state.
func NewStageState(id, name string) *StageState {
	return &StageState{
		ID:     id,
		Name:   name,
		Status: StageStatusPending,
	}
}

// Start marks the stage as running and records the start time.
func (s *StageState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StageStatusRunning
}

// Complete marks the stage as completed and records the end time.
func (s *StageState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusCompleted
}

// Fail marks the stage as failed with the given error.
func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusFailed
	if err != nil {
		s.Error = err.Error()
	}
}

// Skip marks the stage as skipped with the given reason.
func (s *StageState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusSkipped
	s.Message = reason
}

// CurrentStatus returns the status under the read lock.
func (s *StageState) CurrentStatus() StageStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the stage ran, or has been running.
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// clone returns an unlocked deep copy.
func (s *StageState) clone() *StageState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := &StageState{
		ID:      s.ID,
		Name:    s.Name,
		Status:  s.Status,
		Message: s.Message,
		Error:   s.Error,
	}
	if s.StartTime != nil {
		t := *s.StartTime
		copied.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		copied.EndTime = &t
	}
	return copied
}
