package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "iplcli/internal/errors"
	"iplcli/pkg/contracts/domain"
)

// ValidationMiddleware gates request bodies before handlers decode them and
// offers tag-driven struct validation with the result document's metric
// keys registered as a custom rule.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware builds the middleware with the dashboard's custom
// validators registered.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()
	v.RegisterValidation("metric", isKnownMetric)
	v.RegisterValidation("filename", isValidFilename)

	// Report field names as their JSON tags so problem documents match
	// what the client actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  1 * 1024 * 1024, // request bodies here are tiny
	}
}

// ValidateRequest rejects oversized or malformed JSON bodies up front.
// Read-only methods pass through untouched.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]interface{}{
					"max_size": m.maxBodySize,
					"size":     r.ContentLength,
				},
			))
			return
		}

		if r.Body != nil && r.ContentLength > 0 {
			if !m.bufferAndCheckBody(w, r) {
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// bufferAndCheckBody reads the body, verifies it is JSON, and puts it back
// for the handler. Returns false when a response was already written.
func (m *ValidationMiddleware) bufferAndCheckBody(w http.ResponseWriter, r *http.Request) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
	if err != nil {
		m.logger.ErrorContext(r.Context(), "failed to read request body",
			slog.String("error", err.Error()))
		m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return false
	}

	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) > 0 && !json.Valid(body) {
		m.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"INVALID_JSON",
			"Request body contains invalid JSON",
		))
		return false
	}
	return true
}

// ValidateStruct runs tag validation and folds failures into one
// validation error listing every bad field.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors []apierrors.ValidationError
	for _, fieldErr := range err.(validator.ValidationErrors) {
		fieldErrors = append(fieldErrors, apierrors.ValidationError{
			Field:   fieldErr.Field(),
			Message: fieldErrorMessage(fieldErr),
		})
	}
	return apierrors.NewValidationErrors(fieldErrors)
}

// ContentTypeValidator insists body-carrying requests declare one of the
// accepted content types. Bodyless requests pass through.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requestHasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, apierrors.New(
					http.StatusBadRequest,
					"MISSING_CONTENT_TYPE",
					"Content-Type header is required",
				))
				return
			}

			if !contentTypeAllowed(contentType, contentTypes) {
				render.Status(r, http.StatusUnsupportedMediaType)
				render.JSON(w, r, apierrors.NewWithDetails(
					http.StatusUnsupportedMediaType,
					"UNSUPPORTED_MEDIA_TYPE",
					"Unsupported content type",
					map[string]interface{}{
						"content_type": contentType,
						"allowed":      contentTypes,
					},
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestHasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return false
	}
	return r.ContentLength != 0
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	for _, a := range allowed {
		if strings.HasPrefix(contentType, a) {
			return true
		}
	}
	return false
}

// fieldErrorMessage renders one tag failure as a human-readable sentence.
func fieldErrorMessage(err validator.FieldError) string {
	field, param := err.Field(), err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "metric":
		return fmt.Sprintf("%s must be a known metric key", field)
	case "filename":
		return fmt.Sprintf("%s must be a valid filename", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isKnownMetric accepts only keys present in the result document.
func isKnownMetric(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	for _, known := range domain.MetricKeys() {
		if key == known {
			return true
		}
	}
	return false
}

// isValidFilename rejects empty names, anything that could traverse out of
// a directory, and absurd lengths.
func isValidFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// QueryParamValidator parses and range-checks query parameters, writing the
// problem response itself on failure.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a query parameter validator.
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateInt reads an integer parameter, falling back to defaultValue when
// absent. The second return is false when a response was already written.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a valid integer", param)))
		return 0, false
	}
	if value < min || value > max {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be between %d and %d", param, min, max)))
		return 0, false
	}
	return value, true
}
