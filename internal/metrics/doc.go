// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics exposes Prometheus collectors for the fan-out engine:
task queue depth and job throughput, cache hit/miss/prune counts, and
HTTP request latency.

Collectors are registered at import time via promauto against the
default registry; the internal/api router mounts promhttp.Handler()
at /metrics.
*/
package metrics
