package operations

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *RunError
		want string
	}{
		{
			name: "stage error with cause",
			err:  NewStageError(StageIDPreparation, errors.New("workbook missing")),
			want: "[execution] preparation: stage execution failed: workbook missing",
		},
		{
			name: "timeout error",
			err:  NewTimeoutError(StageIDMetrics, 5*time.Minute),
			want: "[timeout] metrics: stage exceeded timeout of 5m0s",
		},
		{
			name: "cancellation error",
			err:  NewCancellationError(StageIDPreparation),
			want: "[cancellation] preparation: run was cancelled",
		},
		{
			name: "sentinel without stage",
			err:  ErrRunActive,
			want: "[invalid_state] a pipeline run is already in progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRunErrorUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewStageError(StageIDMetrics, cause)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, errors.Unwrap(err))
	assert.Nil(t, errors.Unwrap(ErrRunActive))
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ""},
		{name: "stage error", err: NewStageError(StageIDPreparation, errors.New("x")), want: ErrorTypeExecution},
		{name: "timeout", err: NewTimeoutError(StageIDMetrics, time.Second), want: ErrorTypeTimeout},
		{name: "cancellation", err: NewCancellationError(StageIDMetrics), want: ErrorTypeCancellation},
		{name: "wrapped run error", err: fmt.Errorf("outer: %w", ErrRunNotFound), want: ErrorTypeNotFound},
		{name: "plain error", err: errors.New("plain"), want: ErrorTypeExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestSentinelIdentity(t *testing.T) {
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", ErrRunActive), ErrRunActive)
	assert.NotErrorIs(t, ErrRunActive, ErrRunNotFound)
}
