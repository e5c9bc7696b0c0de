// Package services implements the business logic layer between the HTTP
// handlers and the pipeline packages. Handlers stay thin; services decide
// what a request means and return domain errors the transport layer maps to
// problem responses.
//
// Three services cover the dashboard surface:
//
//   - ReportService reads the persisted analysis result document and serves
//     whole-document and per-metric lookups with modification-time caching.
//   - OperationsService fronts the pipeline manager: background run starts,
//     run status lookups and run history.
//   - HealthService aggregates liveness, readiness and component health,
//     including result-file freshness and WebSocket hub counters.
//
// Services receive their dependencies through constructors and log with
// slog; none of them reach for globals.
package services
