package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Content Security Policies for the embedded dashboard. The dashboard is
// self-contained; the only external channel it needs is the WebSocket back
// to this server. The dev policy additionally admits the frontend dev
// server and its hot-reload machinery.
var (
	dashboardCSP = strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"font-src 'self'",
		"connect-src 'self' ws: wss:",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")

	devCSP = strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' *",
		"style-src 'self' 'unsafe-inline' *",
		"img-src * data: blob:",
		"connect-src *",
	}, "; ")

	// The dashboard uses none of the powerful browser features.
	dashboardPermissionsPolicy = strings.Join([]string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}, ", ")
)

// SecureHeaders provides configurable security headers.
type SecureHeaders struct {
	// HSTS settings
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	// CSP settings
	ContentSecurityPolicy string

	// Frame options
	XFrameOptions string

	// Other security headers
	XContentTypeOptions string
	XSSProtection       string
	ReferrerPolicy      string
	PermissionsPolicy   string

	// Development mode relaxes the CSP for a local frontend dev server.
	DevMode bool
}

// DefaultSecureHeaders returns secure headers with default settings.
func DefaultSecureHeaders() *SecureHeaders {
	return &SecureHeaders{
		HSTSMaxAge:            63072000, // 2 years
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		XSSProtection:         "1; mode=block",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// Handler returns the middleware handler.
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades carry no document, headers would be noise.
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()

		// HSTS on TLS connections only; a max-age header over plain HTTP
		// is ignored by browsers anyway.
		if sh.HSTSMaxAge > 0 && r.TLS != nil {
			header.Set("Strict-Transport-Security", sh.hstsValue())
		}

		for _, h := range []struct{ name, value string }{
			{"Content-Security-Policy", sh.csp()},
			{"X-Frame-Options", sh.XFrameOptions},
			{"X-Content-Type-Options", sh.XContentTypeOptions},
			{"X-XSS-Protection", sh.XSSProtection},
			{"Referrer-Policy", sh.ReferrerPolicy},
			{"Permissions-Policy", sh.permissionsPolicy()},
		} {
			if h.value != "" {
				header.Set(h.name, h.value)
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (sh *SecureHeaders) hstsValue() string {
	hsts := fmt.Sprintf("max-age=%d", sh.HSTSMaxAge)
	if sh.HSTSIncludeSubdomains {
		hsts += "; includeSubDomains"
	}
	return hsts
}

func (sh *SecureHeaders) csp() string {
	if sh.ContentSecurityPolicy != "" {
		return sh.ContentSecurityPolicy
	}
	if sh.DevMode {
		return devCSP
	}
	return dashboardCSP
}

func (sh *SecureHeaders) permissionsPolicy() string {
	if sh.PermissionsPolicy != "" {
		return sh.PermissionsPolicy
	}
	return dashboardPermissionsPolicy
}

// AuditLog records request and response details for sensitive routes. The
// pipeline trigger mounts this so every run start is attributable to a
// request.
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			auditLogger := logger.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			auditLogger.InfoContext(ctx, "audit log",
				slog.String("event_type", "api_access"),
				slog.String("query", r.URL.Query().Encode()),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			auditLogger.InfoContext(ctx, "audit log complete",
				slog.String("event_type", "api_response"),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
