package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the typed error handlers and middleware return when they
// already know the HTTP status and machine-readable code for a failure.
// The central ErrorHandler translates it into an RFC 7807 problem; the
// ErrorCode survives as the problem's error_code extension so API clients
// can switch on it without parsing messages.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer so an APIError can be written directly
// when the central handler is not in the path.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError from a status, code and message.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError carrying extra machine-readable
// details, typically the offending value or a field error list.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Canonical status and code pairs for the conditions the dashboard API
// reports. Keeping them in one block keeps the codes consistent between the
// REST handlers, the websocket layer and the frontend's error handling.
var (
	ErrResultsNotFound   = New(http.StatusNotFound, "RESULTS_NOT_FOUND", "Analysis results not found; run the pipeline first")
	ErrMetricNotFound    = New(http.StatusNotFound, "METRIC_NOT_FOUND", "Unknown metric name")
	ErrRunNotFound       = New(http.StatusNotFound, "RUN_NOT_FOUND", "Pipeline run not found")
	ErrRunActive         = New(http.StatusConflict, "RUN_ACTIVE", "A pipeline run is already in progress")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrPipelineFailed    = New(http.StatusInternalServerError, "PIPELINE_FAILED", "Pipeline execution failed")
)

// InvalidRequestWithError wraps a decoding failure as a 400 with the parse
// error preserved in the details.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation reports a single invalid field, such as a bad query
// parameter.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// ValidationError describes one rejected field of a request.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors bundles every rejected field so the frontend can mark
// all of them in one round trip.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors wraps a set of field errors as a single 400 APIError.
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
