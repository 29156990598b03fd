// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sh4yy/feedstream/internal/feed"
	"github.com/sh4yy/feedstream/internal/logging"
)

// ConsumeItem is the wire projection of a feed.Item (§6: `{item_id, verb}`).
type ConsumeItem struct {
	ItemID string `json:"item_id"`
	Verb   string `json:"verb"`
}

// errorBody is the wire shape of every error response (§6: `{message}`).
type errorBody struct {
	Message string `json:"message"`
}

// Writer encodes the exact flat response bodies §6 specifies. Unlike
// the teacher's envelope-wrapping ResponseWriter (success/data/meta),
// this API's bodies are the flat `{ok, <verb>: bool}` / `{ok, data}`
// shapes the spec names verbatim — the wrapping idea survives, the
// envelope fields don't.
type Writer struct {
	w http.ResponseWriter
}

// NewWriter wraps w for one request/response cycle.
func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{w: w}
}

// Published writes the POST /v1/publish response.
func (rw *Writer) Published(ok bool) {
	rw.writeJSON(http.StatusOK, map[string]any{"ok": true, "published": ok})
}

// Retracted writes the POST /v1/retract response.
func (rw *Writer) Retracted(ok bool) {
	rw.writeJSON(http.StatusOK, map[string]any{"ok": true, "retracted": ok})
}

// Subscribed writes the POST /v1/subscribe response.
func (rw *Writer) Subscribed(ok bool) {
	rw.writeJSON(http.StatusOK, map[string]any{"ok": true, "subscribed": ok})
}

// Unsubscribed writes the POST /v1/unsubscribe response.
func (rw *Writer) Unsubscribed(ok bool) {
	rw.writeJSON(http.StatusOK, map[string]any{"ok": true, "unsubscribed": ok})
}

// Data writes the GET /v1/consume response, projecting feed.Item to
// the wire {item_id, verb} shape.
func (rw *Writer) Data(items []feed.Item) {
	out := make([]ConsumeItem, len(items))
	for i, it := range items {
		out[i] = ConsumeItem{ItemID: it.ItemID, Verb: it.Verb}
	}
	rw.writeJSON(http.StatusOK, map[string]any{"ok": true, "data": out})
}

// Error writes a `{message}` error body at status.
func (rw *Writer) Error(status int, message string) {
	rw.writeJSON(status, errorBody{Message: message})
}

func (rw *Writer) writeJSON(status int, body any) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode API response")
	}
}
