// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package api exposes the fan-out engine over HTTP (§6): publish,
retract, subscribe, unsubscribe, and consume, plus a liveness/readiness
probe and a Prometheus scrape endpoint.

Routing uses chi; CORS and per-route rate limiting use go-chi/cors and
go-chi/httprate. Every handler goes through internal/eventprocessor —
this package holds no feed-domain logic of its own, only request
decoding/validation (go-playground/validator) and response encoding.

Error kinds returned by the processor (internal/feed's *feed.Error) map
to HTTP status in errors.go: Invalid*/Unknown*/CursorConflict become
400, Store/Cache/Queue errors become 5xx (§7).
*/
package api
