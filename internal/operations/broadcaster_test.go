package operations

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	eventType string
	subject   string
	action    string
	payload   interface{}
}

// captureHub records every broadcast for assertions.
type captureHub struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (h *captureHub) BroadcastUpdate(eventType, subject, action string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, capturedEvent{eventType, subject, action, payload})
}

func (h *captureHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func (h *captureHub) last() capturedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

func pipelineStages() []Stage {
	return []Stage{
		&fakeStage{id: StageIDPreparation, name: StageNamePreparation},
		&fakeStage{id: StageIDMetrics, name: StageNameMetrics},
	}
}

func TestBroadcasterLifecycle(t *testing.T) {
	sb := NewStatusBroadcaster(&captureHub{}, nil)
	defer sb.Stop()

	sb.CreateRun("run-1", pipelineStages())
	snapshot, ok := sb.GetSnapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, RunStatusPending, snapshot.Status)
	require.Len(t, snapshot.Stages, 2)
	assert.Equal(t, StageIDPreparation, snapshot.Stages[0].ID)
	assert.Equal(t, StageNamePreparation, snapshot.Stages[0].Name)
	assert.Equal(t, 0, snapshot.Progress)

	sb.StartRun("run-1")
	sb.StartStage("run-1", StageIDPreparation)
	snapshot, _ = sb.GetSnapshot("run-1")
	assert.Equal(t, RunStatusRunning, snapshot.Status)
	assert.Equal(t, StageNamePreparation, snapshot.CurrentStage)
	assert.Equal(t, StageStatusRunning, snapshot.Stages[0].Status)

	sb.CompleteStage("run-1", StageIDPreparation, "tables written")
	snapshot, _ = sb.GetSnapshot("run-1")
	assert.Equal(t, 50, snapshot.Progress)
	assert.Equal(t, StageStatusCompleted, snapshot.Stages[0].Status)

	sb.StartStage("run-1", StageIDMetrics)
	sb.CompleteStage("run-1", StageIDMetrics, "results written")
	sb.CompleteRun("run-1", "pipeline completed")

	snapshot, _ = sb.GetSnapshot("run-1")
	assert.Equal(t, RunStatusCompleted, snapshot.Status)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Empty(t, snapshot.CurrentStage)
	require.NotNil(t, snapshot.CompletedAt)
}

func TestBroadcasterFailure(t *testing.T) {
	sb := NewStatusBroadcaster(&captureHub{}, nil)
	defer sb.Stop()

	sb.CreateRun("run-2", pipelineStages())
	sb.StartRun("run-2")
	sb.StartStage("run-2", StageIDPreparation)
	sb.FailStage("run-2", StageIDPreparation, errors.New("workbook missing"))
	sb.SkipStage("run-2", StageIDMetrics, "previous stage preparation failed")
	sb.FailRun("run-2", errors.New("workbook missing"))

	snapshot, ok := sb.GetSnapshot("run-2")
	require.True(t, ok)
	assert.Equal(t, RunStatusFailed, snapshot.Status)
	assert.Equal(t, "workbook missing", snapshot.Error)
	require.NotNil(t, snapshot.CompletedAt)
	assert.Equal(t, StageStatusFailed, snapshot.Stages[0].Status)
	assert.Equal(t, "workbook missing", snapshot.Stages[0].Error)
	assert.Equal(t, StageStatusSkipped, snapshot.Stages[1].Status)
	assert.Equal(t, "previous stage preparation failed", snapshot.Stages[1].Message)
}

func TestBroadcasterEventsReachHub(t *testing.T) {
	hub := &captureHub{}
	sb := NewStatusBroadcaster(hub, nil)
	defer sb.Stop()

	sb.CreateRun("run-3", pipelineStages())
	sb.StartRun("run-3")
	sb.CompleteRun("run-3", "done")

	// Every update pushes one complete snapshot.
	assert.Equal(t, 3, hub.count())

	last := hub.last()
	assert.Equal(t, EventTypeRunSnapshot, last.eventType)
	assert.Equal(t, "run-3", last.subject)
	assert.Equal(t, "update", last.action)

	payload, ok := last.payload.(*RunSnapshot)
	require.True(t, ok)
	assert.Equal(t, RunStatusCompleted, payload.Status)
}

func TestBroadcasterSnapshotIsolation(t *testing.T) {
	sb := NewStatusBroadcaster(&captureHub{}, nil)
	defer sb.Stop()

	sb.CreateRun("run-4", pipelineStages())

	snapshot, ok := sb.GetSnapshot("run-4")
	require.True(t, ok)
	snapshot.Status = RunStatusFailed
	snapshot.Stages[0].Status = StageStatusFailed

	fresh, _ := sb.GetSnapshot("run-4")
	assert.Equal(t, RunStatusPending, fresh.Status)
	assert.Equal(t, StageStatusPending, fresh.Stages[0].Status)
}

func TestBroadcasterRemove(t *testing.T) {
	sb := NewStatusBroadcaster(&captureHub{}, nil)
	defer sb.Stop()

	sb.CreateRun("run-5", pipelineStages())
	sb.CreateRun("run-6", pipelineStages())
	assert.Len(t, sb.Snapshots(), 2)

	sb.Remove("run-5")
	_, ok := sb.GetSnapshot("run-5")
	assert.False(t, ok)
	assert.Len(t, sb.Snapshots(), 1)
}

func TestBroadcasterUnknownRunCreatesSnapshot(t *testing.T) {
	sb := NewStatusBroadcaster(&captureHub{}, nil)
	defer sb.Stop()

	// Updates for an unknown run still produce a snapshot instead of
	// silently dropping the event.
	sb.StartRun("run-7")

	snapshot, ok := sb.GetSnapshot("run-7")
	require.True(t, ok)
	assert.Equal(t, RunStatusRunning, snapshot.Status)
}

func TestLoggingHub(t *testing.T) {
	hub := NewLoggingHub(nil)
	assert.NotPanics(t, func() {
		hub.BroadcastUpdate(EventTypeRunSnapshot, "run-8", "update", nil)
	})
}
