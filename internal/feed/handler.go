// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import "context"

// Handler is the common capability set both feed shapes implement.
// Flat and Activity share this surface by composition — each calls the
// paging/prune helpers in paging.go and supplies its own fan-out rule —
// not by inheritance.
type Handler interface {
	// Name returns the registration's feed name.
	Name() string

	// FeedKind reports whether this handler is flat or activity.
	FeedKind() Kind

	// Verbs returns the verbs this handler is bound to.
	Verbs() []string

	// Add persists payload and fans it out to every affected consumer
	// cache. When save is false (preload replay) the store write is
	// skipped and only the fan-out/cache side runs.
	Add(ctx context.Context, payload AddPayload, save bool) error

	// Retract fans out removal, then deletes the row. Cache mutation
	// precedes the store delete (§9 open question (d)).
	Retract(ctx context.Context, payload RetractPayload) error

	// Subscribe inserts the relation, then backfills the consumer's
	// cache with the producer's historical items up to MaxCache.
	Subscribe(ctx context.Context, consumerID, producerID string) error

	// Unsubscribe removes the producer's items from the consumer's
	// cache, then deletes the relation.
	Unsubscribe(ctx context.Context, consumerID, producerID string) error

	// Consume returns up to limit items from the consumer's cache in
	// score-descending order, projected to {item_id, verb}.
	Consume(ctx context.Context, consumerID string, limit int, after, before *string) ([]Item, error)

	// Rebuild recreates the consumer's cache from the store.
	Rebuild(ctx context.Context, consumerID string) error
}
