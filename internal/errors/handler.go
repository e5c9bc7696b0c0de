package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"iplcli/internal/infrastructure"
)

// Problem type URIs (RFC 7807). Generic families first, then the ones the
// report and pipeline endpoints use directly.
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypeConflict        = "/errors/conflict"
	TypePayloadTooLarge = "/errors/payload-too-large"

	TypeResultsNotFound = "/errors/results/not-found"
	TypeMetricNotFound  = "/errors/results/metric-not-found"
	TypeRunNotFound     = "/errors/pipeline/run-not-found"
	TypeRunActive       = "/errors/pipeline/already-running"
	TypeDataCorrupted   = "/errors/data/corrupted"
	TypeWebSocketFailed = "/errors/websocket/upgrade-failed"
)

// apiProblemTypes maps APIError codes onto problem type URIs. Codes not
// listed here fall back to TypeInternal.
var apiProblemTypes = map[string]string{
	"VALIDATION_FAILED":   TypeValidation,
	"NOT_FOUND":           TypeNotFound,
	"RESULTS_NOT_FOUND":   TypeNotFound,
	"RUN_NOT_FOUND":       TypeNotFound,
	"METRIC_NOT_FOUND":    TypeMetricNotFound,
	"CONFLICT":            TypeConflict,
	"RUN_ACTIVE":          TypeConflict,
	"RATE_LIMIT_EXCEEDED": TypeRateLimit,
	"SERVICE_UNAVAILABLE": TypeServiceDown,
	"PAYLOAD_TOO_LARGE":   TypePayloadTooLarge,
}

// ErrorHandler turns errors from any layer into RFC 7807 problem responses
// and logs them with the request's trace ID. One instance is shared by the
// router, the middleware chain, and every handler.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates the shared handler. includeStack should only be
// set in development; it copies stack traces into responses.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes its problem document. A nil err writes
// nothing, so handlers can call it unconditionally on their error path.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)
	infrastructure.RecordError(r.Context(), err)

	problem := h.problemFor(err, r)
	problem.WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("stack", stackTrace())
	}

	render.Render(w, r, problem)
}

// problemFor translates an error into a problem document. Context errors
// win over typed errors: a cancelled request should report the timeout, not
// whatever half-finished error it was wrapped in.
func (h *ErrorHandler) problemFor(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiProblem(apiErr, r)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return h.pipelineProblem(appErr, r)
	}

	return h.untypedProblem(err, r)
}

// apiProblem maps an APIError, preserving its status and code.
func (h *ErrorHandler) apiProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType, ok := apiProblemTypes[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// pipelineProblem maps the batch pipeline's error taxonomy. Load and parse
// failures surface as corrupted data so the dashboard can tell "rerun the
// pipeline" apart from "fix the workbooks".
func (h *ErrorHandler) pipelineProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	status := http.StatusInternalServerError
	problemType := TypeInternal
	switch appErr.Type {
	case ErrTypeNotFound:
		status = http.StatusNotFound
		problemType = TypeNotFound
	case ErrTypeValidation:
		status = http.StatusBadRequest
		problemType = TypeValidation
	case ErrTypeDataLoad, ErrTypeParsing:
		problemType = TypeDataCorrupted
	}

	problem := NewProblemDetails(
		status,
		problemType,
		http.StatusText(status),
		appErr.Message,
		r.URL.Path,
	).WithExtension("error_type", string(appErr.Type))

	for k, v := range appErr.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

// untypedProblem sniffs plain errors for the few phrases worth a better
// status than 500. Everything else gets a generic internal error with the
// detail withheld.
func (h *ErrorHandler) untypedProblem(err error, r *http.Request) *ProblemDetails {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return NewProblemDetails(http.StatusNotFound, TypeNotFound,
			"Resource Not Found", msg, r.URL.Path)
	case strings.Contains(msg, "rate limit"):
		return NewProblemDetails(http.StatusTooManyRequests, TypeRateLimit,
			"Rate Limit Exceeded", "Too many requests. Please try again later.",
			r.URL.Path).WithExtension("retry_after", 60)
	case strings.Contains(msg, "conflict"):
		return NewProblemDetails(http.StatusConflict, TypeConflict,
			"Conflict", msg, r.URL.Path)
	default:
		return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request",
			r.URL.Path)
	}
}

// HandlePanic is the Recoverer's sink: it logs the panic with its stack and
// answers 500 without leaking the panic value unless includeStack is set.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", stackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound is installed as the router's fallback for unknown paths.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed is installed as the router's fallback for known paths
// hit with the wrong verb.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

func stackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
