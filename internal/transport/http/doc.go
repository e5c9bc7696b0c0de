// Package http implements the HTTP handlers for the sponsorship analytics
// server. Handlers are a thin layer over the service packages: they parse
// the request, call one service method, and render the result, so every
// piece of pipeline and reporting logic stays testable without a socket.
//
// Errors follow RFC 7807. Service sentinel errors map to typed problems
// (missing results to /errors/results/not-found, an occupied pipeline slot
// to /errors/pipeline/already-running) and everything else goes through the
// shared errors.ErrorHandler, which knows how to translate AppError chains.
//
// Route groups:
//
//	/api/results     result document and per-metric sections
//	/api/operations  pipeline runs: trigger, status, history
//	/api/health      component health, liveness, readiness
//	/ws              dashboard push channel (gorilla upgrade)
//
// Handlers expect the middleware chain from internal/middleware in front of
// them: request IDs, structured request logs, panic recovery, rate limiting
// and OTel spans all live there, not here.
package http
