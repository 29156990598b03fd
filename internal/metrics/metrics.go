// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the fan-out engine: task queue depth
// and throughput, cache hit/miss/prune counts, and HTTP request
// latency, exposed on /metrics.

var (
	// QueueDepth is the current number of jobs buffered in the task
	// queue (supplements the Python original's debug print of queue
	// size — see DESIGN.md).
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedstream_queue_depth",
			Help: "Current number of jobs buffered in the task queue",
		},
	)

	// JobsProcessed counts completed worker jobs by outcome.
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedstream_jobs_processed_total",
			Help: "Total number of task queue jobs processed",
		},
		[]string{"outcome"}, // "success", "error", "panic"
	)

	// JobDuration measures time spent executing a worker job.
	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedstream_job_duration_seconds",
			Help:    "Duration of task queue job execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CacheHits and CacheMisses count consume-path cache cardinality
	// checks: a miss triggers a lazy Rebuild (§4.1's empty-cache path).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedstream_cache_hits_total",
			Help: "Total number of consume calls served without a rebuild",
		},
		[]string{"feed"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedstream_cache_misses_total",
			Help: "Total number of consume calls that triggered a cache rebuild",
		},
		[]string{"feed"},
	)

	// CachePrunes counts evictions performed by the atomic prune script.
	CachePrunes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedstream_cache_prunes_total",
			Help: "Total number of cache members evicted by prune",
		},
		[]string{"feed"},
	)

	// HTTPRequestsTotal and HTTPRequestDuration instrument the API
	// surface (§6).
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedstream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedstream_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// CircuitBreakerState mirrors the feedcache Redis breaker's state
	// (0=closed, 1=half-open, 2=open), matching gobreaker's own numbering.
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedstream_cache_circuit_breaker_state",
			Help: "Circuit breaker state for the timeline cache (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordJob records the outcome and duration of one task queue job.
func RecordJob(outcome string, duration time.Duration) {
	JobsProcessed.WithLabelValues(outcome).Inc()
	JobDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordConsume records whether a consume call hit the cache or
// triggered a rebuild.
func RecordConsume(feed string, rebuilt bool) {
	if rebuilt {
		CacheMisses.WithLabelValues(feed).Inc()
	} else {
		CacheHits.WithLabelValues(feed).Inc()
	}
}

// RecordPrune records the number of members a prune call evicted.
func RecordPrune(feed string, evicted int) {
	if evicted > 0 {
		CachePrunes.WithLabelValues(feed).Add(float64(evicted))
	}
}
