package http

import (
	"log/slog"
	"net/http"
	"net/url"

	gorilla "github.com/gorilla/websocket"

	apierrors "iplcli/internal/errors"
	"iplcli/internal/middleware"
	ws "iplcli/internal/websocket"
)

// WebSocketHandler upgrades dashboard connections and hands them to the
// hub. Clients receive pipeline run snapshots and results-updated events.
type WebSocketHandler struct {
	hub            *ws.Hub
	logger         *slog.Logger
	allowedOrigins []string
	upgrader       gorilla.Upgrader
}

// NewWebSocketHandler creates a websocket handler. allowedOrigins extends
// the same-host default; "*" allows any origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &WebSocketHandler{
		hub:            hub,
		logger:         logger.With(slog.String("handler", "websocket")),
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
		Error:           h.upgradeError,
	}
	return h
}

// ServeHTTP handles GET /ws.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgradeError already wrote the response.
		h.logger.ErrorContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	h.logger.InfoContext(ctx, "websocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	ws.ServeWS(h.hub, conn, reqID)
}

// checkOrigin allows same-origin requests, non-browser clients without an
// Origin header, and anything on the configured allowlist.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	h.logger.Warn("websocket origin rejected",
		slog.String("origin", origin),
		slog.String("host", r.Host))
	return false
}

// upgradeError renders handshake failures as problem documents instead of
// gorilla's plain-text default.
func (h *WebSocketHandler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	detail := "WebSocket handshake failed"
	if reason != nil {
		detail = reason.Error()
	}

	problem := apierrors.NewProblemDetails(
		status,
		apierrors.TypeWebSocketFailed,
		"WebSocket Upgrade Failed",
		detail,
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetRequestID(r.Context()))

	body, err := problem.MarshalJSON()
	if err != nil {
		http.Error(w, detail, status)
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	w.Write(body)
}
