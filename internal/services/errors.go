package services

import "errors"

// Service errors returned to the transport layer.
var (
	// ErrResultsNotFound means analysis_results.json does not exist yet.
	// The operator has to run the pipeline first.
	ErrResultsNotFound = errors.New("analysis results not found")

	// ErrMetricNotFound means the requested metric key is not part of the
	// result document.
	ErrMetricNotFound = errors.New("metric not found")
)
