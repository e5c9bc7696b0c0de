package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "iplcli/internal/errors"
	"iplcli/internal/middleware"
	"iplcli/internal/services"
	"iplcli/pkg/contracts/domain"
)

// ReportHandler serves the analysis result document and its per-metric
// sections.
type ReportHandler struct {
	service      *services.ReportService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service *services.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "report")),
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// Routes registers the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetResults)
	r.Get("/{metric}", h.GetMetric)
	return r
}

// GetResults handles GET /api/results and returns the complete analysis
// result document.
func (h *ReportHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := h.service.Results(ctx)
	if err != nil {
		h.handleResultsError(w, r, err)
		return
	}

	render.JSON(w, r, results)
}

// GetMetric handles GET /api/results/{metric} and returns one section of
// the result document.
func (h *ReportHandler) GetMetric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "metric")

	value, err := h.service.Metric(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrMetricNotFound) {
			h.logger.WarnContext(ctx, "unknown metric requested",
				slog.String("metric", key))

			problem := apierrors.NewProblemDetails(
				http.StatusNotFound,
				apierrors.TypeMetricNotFound,
				"Metric Not Found",
				fmt.Sprintf("No metric named %q in the analysis results", key),
				r.URL.Path,
			).WithExtension("trace_id", middleware.GetRequestID(ctx)).
				WithExtension("valid_metrics", domain.MetricKeys())

			render.Render(w, r, problem)
			return
		}
		h.handleResultsError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"metric": key,
		"value":  value,
	})
}

// handleResultsError maps report service errors to problem responses. A
// missing result document is the expected state before the first pipeline
// run, so it gets its own problem type rather than a generic 404.
func (h *ReportHandler) handleResultsError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	if errors.Is(err, services.ErrResultsNotFound) {
		problem := apierrors.NewProblemDetails(
			http.StatusNotFound,
			apierrors.TypeResultsNotFound,
			"Results Not Available",
			"No analysis results have been generated yet. Trigger a pipeline run and retry.",
			r.URL.Path,
		).WithExtension("trace_id", middleware.GetRequestID(ctx))

		render.Render(w, r, problem)
		return
	}

	h.logger.ErrorContext(ctx, "failed to load analysis results",
		slog.String("error", err.Error()))
	h.errorHandler.HandleError(w, r, err)
}
