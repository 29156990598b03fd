// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/sh4yy/feedstream/internal/eventprocessor"
	"github.com/sh4yy/feedstream/internal/feed"
)

// validate is a single shared validator instance; per the
// go-playground/validator docs it caches struct metadata and is safe
// for concurrent use, so every handler reuses it rather than
// constructing one per request.
var validate = validator.New()

// decodeAndValidate decodes r's JSON body into dst and runs struct
// tag validation, returning a single InvalidPayload error for either
// failure mode so handlers don't need to distinguish them.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return feed.InvalidPayload("malformed request body: " + err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return feed.InvalidPayload(err.Error())
	}
	return nil
}

// Publish handles POST /v1/publish (§6).
func (router *Router) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	err := router.processor.Publish(r.Context(), eventprocessor.PublishPayload{
		Verb:       req.Verb,
		ProducerID: req.ProducerID,
		ConsumerID: req.ConsumerID,
		ItemID:     req.ItemID,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	NewWriter(w).Published(true)
}

// Retract handles POST /v1/retract (§6).
func (router *Router) Retract(w http.ResponseWriter, r *http.Request) {
	var req RetractRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	err := router.processor.Retract(r.Context(), eventprocessor.RetractPayload{
		Verb:       req.Verb,
		ProducerID: req.ProducerID,
		ConsumerID: req.ConsumerID,
		ItemID:     req.ItemID,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	NewWriter(w).Retracted(true)
}

// Subscribe handles POST /v1/subscribe (§6).
func (router *Router) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	if err := router.processor.Subscribe(r.Context(), req.EventName, req.ConsumerID, req.ProducerID); err != nil {
		writeErr(w, r, err)
		return
	}
	NewWriter(w).Subscribed(true)
}

// Unsubscribe handles POST /v1/unsubscribe (§6).
func (router *Router) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	if err := router.processor.Unsubscribe(r.Context(), req.EventName, req.ConsumerID, req.ProducerID); err != nil {
		writeErr(w, r, err)
		return
	}
	NewWriter(w).Unsubscribed(true)
}

// Consume handles GET /v1/consume (§6). limit defaults to 20; after
// and before are mutually exclusive and left as nil pointers when
// absent from the query so the feed package's own CursorConflict/
// UnknownCursor checks apply uniformly.
func (router *Router) Consume(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := ConsumeQuery{
		EventName:  q.Get("event_name"),
		ConsumerID: q.Get("consumer_id"),
	}

	limit := 20
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeErr(w, r, feed.InvalidPayload("limit must be an integer"))
			return
		}
		limit = parsed
	}
	req.Limit = limit

	if err := validate.Struct(req); err != nil {
		writeErr(w, r, feed.InvalidPayload(err.Error()))
		return
	}

	var after, before *string
	if q.Has("after") {
		v := q.Get("after")
		after = &v
	}
	if q.Has("before") {
		v := q.Get("before")
		before = &v
	}

	items, err := router.processor.Consume(r.Context(), req.EventName, req.ConsumerID, limit, after, before)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	NewWriter(w).Data(items)
}

// Health handles GET /v1/health: a minimal liveness/readiness probe
// that pings the durable store and timeline cache (§9: added as a
// baseline ambient-stack health check; the spec otherwise treats the
// HTTP surface as out-of-scope-but-specified-at-interface).
func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	storeOK, cacheOK := true, true

	if router.store != nil {
		if err := router.store.Ping(r.Context()); err != nil {
			storeOK = false
		}
	}
	if router.cache != nil {
		if err := router.cache.Ping(r.Context()); err != nil {
			cacheOK = false
		}
	}
	if !storeOK || !cacheOK {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    status == http.StatusOK,
		"store": storeOK,
		"cache": cacheOK,
	})
}
