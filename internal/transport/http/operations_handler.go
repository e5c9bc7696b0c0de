package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "iplcli/internal/errors"
	"iplcli/internal/middleware"
	"iplcli/internal/operations"
	"iplcli/internal/services"
)

// maxRunListLimit caps how many run snapshots one list request returns.
const maxRunListLimit = 100

// OperationsHandler handles pipeline run requests: triggering a run,
// polling its status, and listing recent history.
type OperationsHandler struct {
	service     *services.OperationsService
	logger      *slog.Logger
	queryParams *middleware.QueryParamValidator
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(service *services.OperationsService, logger *slog.Logger) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service:     service,
		logger:      logger.With(slog.String("handler", "operations")),
		queryParams: middleware.NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false)),
	}
}

// Routes registers the operations routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/pipeline", h.StartPipeline)
	r.Get("/", h.ListRuns)
	r.Get("/{id}", h.GetRunStatus)
	return r
}

// StartPipeline handles POST /api/operations/pipeline. The run executes in
// the background; the response carries the run ID for status polling. The
// request needs no body: the pipeline always runs both stages in order.
func (h *OperationsHandler) StartPipeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.start_pipeline",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/pipeline"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "pipeline run requested",
		slog.String("request_id", reqID))

	runID, err := h.service.StartPipeline(ctx)
	if err != nil {
		span.RecordError(err)

		if errors.Is(err, operations.ErrRunActive) {
			span.SetAttributes(attribute.String("error.type", "run_active"))

			problem := apierrors.NewProblemDetails(
				http.StatusConflict,
				apierrors.TypeRunActive,
				"Pipeline Already Running",
				"A pipeline run is already in flight. Wait for it to finish and retry.",
				r.URL.Path,
			).WithExtension("trace_id", reqID)

			render.Render(w, r, problem)
			return
		}

		span.SetStatus(codes.Error, "pipeline start failed")
		h.logger.ErrorContext(ctx, "failed to start pipeline run",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			apierrors.TypeInternal,
			"Pipeline Start Failed",
			"The pipeline run could not be started",
			r.URL.Path,
		).WithExtension("trace_id", reqID)

		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(attribute.String("run.id", runID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"run_id":     runID,
		"status":     string(operations.RunStatusPending),
		"status_url": fmt.Sprintf("/api/operations/%s", runID),
	})
}

// GetRunStatus handles GET /api/operations/{id} and returns the progress
// snapshot for one run.
func (h *OperationsHandler) GetRunStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")

	snapshot, err := h.service.Status(ctx, runID)
	if err != nil {
		if errors.Is(err, operations.ErrRunNotFound) {
			problem := apierrors.NewProblemDetails(
				http.StatusNotFound,
				apierrors.TypeRunNotFound,
				"Run Not Found",
				fmt.Sprintf("No pipeline run with ID %q", runID),
				r.URL.Path,
			).WithExtension("trace_id", middleware.GetRequestID(ctx)).
				WithExtension("run_id", runID)

			render.Render(w, r, problem)
			return
		}

		h.logger.ErrorContext(ctx, "failed to get run status",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))

		problem := apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			apierrors.TypeInternal,
			"Status Retrieval Failed",
			"The run status could not be retrieved",
			r.URL.Path,
		).WithExtension("trace_id", middleware.GetRequestID(ctx))

		render.Render(w, r, problem)
		return
	}

	render.JSON(w, r, snapshot)
}

// ListRuns handles GET /api/operations and returns recent run snapshots,
// newest first. The optional limit parameter caps the count.
func (h *OperationsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, maxRunListLimit, 0)
	if !ok {
		return
	}

	snapshots := h.service.List(ctx, limit)

	h.logger.DebugContext(ctx, "listed pipeline runs",
		slog.Int("count", len(snapshots)),
		slog.Int("limit", limit))

	render.JSON(w, r, map[string]interface{}{
		"runs":    snapshots,
		"count":   len(snapshots),
		"running": h.service.IsRunning(),
	})
}
