// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/sh4yy/feedstream/internal/feed"
	"github.com/sh4yy/feedstream/internal/logging"
)

// statusFor maps a feed.ErrorKind to the HTTP status §7 assigns it:
// Invalid*/Unknown*/CursorConflict are client errors (400);
// Store/Cache/Queue failures are server errors (5xx).
func statusFor(kind feed.ErrorKind) int {
	switch kind {
	case feed.KindInvalidPayload, feed.KindUnknownFeed, feed.KindUnknownVerb,
		feed.KindUnknownCursor, feed.KindCursorConflict:
		return http.StatusBadRequest
	case feed.KindQueueClosed:
		return http.StatusServiceUnavailable
	case feed.KindStoreError, feed.KindCacheError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeErr maps err to its §7 status and writes the `{message}` body.
// Store/cache failures are logged with their wrapped cause; the client
// only ever sees the feed.Error's own message, never the raw cause.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ferr *feed.Error
	if errors.As(err, &ferr) {
		status := statusFor(ferr.Kind)
		if status >= 500 {
			logging.Ctx(r.Context()).Error().Err(err).Str("kind", string(ferr.Kind)).Msg("request failed")
		}
		NewWriter(w).Error(status, ferr.Message)
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("request failed with an unclassified error")
	NewWriter(w).Error(http.StatusInternalServerError, "internal error")
}
