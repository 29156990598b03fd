// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sh4yy/feedstream/internal/logging"
	"github.com/sh4yy/feedstream/internal/metrics"
)

// MiddlewareConfig tunes the CORS and rate-limit middleware factories.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string

	// WriteLimitRequests/WriteLimitWindow bound /v1/publish and
	// /v1/retract (§6 names these as the write path a client could
	// otherwise flood).
	WriteLimitRequests int
	WriteLimitWindow   time.Duration
}

// DefaultMiddlewareConfig returns permissive CORS (an empty
// CORSAllowedOrigins list makes go-chi/cors allow every origin) and a
// 100 req/min write-path limit.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		CORSAllowedOrigins: []string{},
		WriteLimitRequests: 100,
		WriteLimitWindow:   time.Minute,
	}
}

// corsMiddleware builds the go-chi/cors handler for cfg.
func corsMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
}

// writeRateLimit rate-limits the publish/retract routes by real client
// IP, matching the teacher's RateLimitByRealIP pattern for
// reverse-proxied deployments.
func writeRateLimit(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return httprate.LimitByRealIP(cfg.WriteLimitRequests, cfg.WriteLimitWindow)
}

// requestIDWithLogging stamps every request with a request ID and a
// fresh correlation ID, seeding the logging context the handler reads
// back via logging.Ctx. The queued job the handler enqueues runs later
// on the worker pool's own background context (see eventprocessor's
// Publish/Subscribe), not this request's context, so the correlation
// ID set here does not carry through to the async job's log lines.
func requestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)
			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusWriter captures the status code so prometheusMetrics can label
// HTTPRequestsTotal/HTTPRequestDuration after the handler runs.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// prometheusMetrics records every request's method, route pattern, and
// status into internal/metrics' HTTP collectors.
func prometheusMetrics(routePattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			route := routePattern(r)
			metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(sw.status), time.Since(start))
		})
	}
}
