package operations

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies run errors.
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// RunError is the error type for pipeline orchestration failures.
type RunError struct {
	Type    ErrorType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e == nil {
		return "unknown run error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewStageError wraps a stage failure.
func NewStageError(stage string, cause error) *RunError {
	return &RunError{
		Type:    ErrorTypeExecution,
		Stage:   stage,
		Message: "stage execution failed",
		Cause:   cause,
	}
}

// NewTimeoutError reports a stage that exceeded its timeout.
func NewTimeoutError(stage string, timeout time.Duration) *RunError {
	return &RunError{
		Type:    ErrorTypeTimeout,
		Stage:   stage,
		Message: fmt.Sprintf("stage exceeded timeout of %s", timeout),
	}
}

// NewCancellationError reports a run interrupted by context cancellation.
func NewCancellationError(stage string) *RunError {
	return &RunError{
		Type:    ErrorTypeCancellation,
		Stage:   stage,
		Message: "run was cancelled",
	}
}

// GetErrorType returns the classification of err, or "" for nil.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Type
	}
	return ErrorTypeExecution
}

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrRunActive is returned when a run is requested while another holds
	// the pipeline slot. The operations endpoint maps it to 409.
	ErrRunActive = &RunError{
		Type:    ErrorTypeInvalidState,
		Message: "a pipeline run is already in progress",
	}

	// ErrRunNotFound is returned for status queries on unknown run IDs.
	ErrRunNotFound = &RunError{
		Type:    ErrorTypeNotFound,
		Message: "pipeline run not found",
	}
)
