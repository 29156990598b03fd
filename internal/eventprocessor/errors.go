// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventprocessor

import "errors"

// Sentinel errors for processor-internal failures that aren't already
// carried as a *feed.Error.
var (
	// ErrAlreadyRegistered is returned by Register when a feed name is
	// already taken by a different handler instance, even one with an
	// identical configuration. Registering the same instance again is a
	// no-op.
	ErrAlreadyRegistered = errors.New("eventprocessor: feed already registered under a different handler")
)
