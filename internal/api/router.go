// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sh4yy/feedstream/internal/eventprocessor"
)

// Pinger is satisfied by the durable store and timeline cache
// implementations that back the processor; Health calls both to
// determine readiness. Kept narrow — like eventprocessor's
// flatPreloader/activityPreloader — rather than widening feedstore's
// or feedcache's interfaces with a method only this handler needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router builds the chi handler for the fan-out engine's HTTP surface
// (§6). It holds no feed-domain logic: every write/read operation goes
// through processor.
type Router struct {
	processor *eventprocessor.Processor
	store     Pinger
	cache     Pinger
	config    MiddlewareConfig
}

// NewRouter constructs a Router. store and cache back the /v1/health
// readiness check; either may be nil if that dependency isn't wired
// (e.g. an in-memory store in tests).
func NewRouter(processor *eventprocessor.Processor, store, cache Pinger, config MiddlewareConfig) *Router {
	return &Router{processor: processor, store: store, cache: cache, config: config}
}

// Routes assembles the chi router: global middleware, then the
// publish/retract/subscribe/unsubscribe/consume routes of §6, plus
// /v1/health and /metrics.
func (router *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(router.config))
	r.Use(prometheusMetrics(routePattern))

	r.Route("/v1", func(r chi.Router) {
		r.With(writeRateLimit(router.config)).Post("/publish", router.Publish)
		r.With(writeRateLimit(router.config)).Post("/retract", router.Retract)
		r.Post("/subscribe", router.Subscribe)
		r.Post("/unsubscribe", router.Unsubscribe)
		r.Get("/consume", router.Consume)
		r.Get("/health", router.Health)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// routePattern extracts chi's matched route pattern for metric
// labeling, falling back to the raw path for unmatched routes (e.g.
// 404s) so cardinality stays bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
