// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedstore defines the durable store adapters — relations,
// flat events, and activity events — and their implementations: a
// DuckDB-backed store for production, and in-memory stores for tests.
package feedstore

import "context"

// Relation is one (feed_name, producer_id, consumer_id) subscription.
type Relation struct {
	FeedName   string
	ProducerID string
	ConsumerID string
}

// FlatItem is one row of a broadcast feed's event store.
type FlatItem struct {
	ItemID     string
	ProducerID string
	Verb       string
	Timestamp  int64
}

// ActivityItem is one row of a directed-activity feed's event store.
type ActivityItem struct {
	ItemID     string
	ProducerID string
	ConsumerID string
	Verb       string
	Timestamp  int64
}

// RelationStore is the subscription-set adapter, shared by every
// registered feed and keyed by feed name.
type RelationStore interface {
	// Insert adds (feedName, producerID, consumerID) if absent;
	// idempotent.
	Insert(ctx context.Context, feedName, producerID, consumerID string) error

	// Delete removes the relation if present.
	Delete(ctx context.Context, feedName, producerID, consumerID string) error

	// ConsumersOf returns every consumer subscribed to producerID within
	// feedName.
	ConsumersOf(ctx context.Context, feedName, producerID string) ([]string, error)
}

// FlatEventStore is the durable row store for one or more flat feeds,
// distinguished by feedName.
type FlatEventStore interface {
	// Insert adds item under feedName; idempotent on
	// (feed_name, producer_id, item_id, verb).
	Insert(ctx context.Context, feedName string, item FlatItem) error

	// Delete removes the row matching producerID/itemID/verb.
	Delete(ctx context.Context, feedName, producerID, itemID, verb string) error

	// ByItemID looks up a row by its feed-scoped item_id (unique within
	// a feed's dataset regardless of verb/producer).
	ByItemID(ctx context.Context, feedName, itemID string) (FlatItem, bool, error)

	// ForProducer returns every row for producerID, timestamp descending.
	ForProducer(ctx context.Context, feedName, producerID string) ([]FlatItem, error)

	// ForConsumerRebuild joins relations and items for consumerID,
	// timestamp descending, limited to limit. When includeActor is set,
	// the producer's own items (producer_id = consumerID) are folded in
	// too.
	ForConsumerRebuild(ctx context.Context, feedName, consumerID string, includeActor bool, limit int) ([]FlatItem, error)

	// AllForPreload streams every row of feedName in insertion order.
	AllForPreload(ctx context.Context, feedName string) ([]FlatItem, error)
}

// ActivityEventStore is the durable row store for one or more activity
// feeds, distinguished by feedName.
type ActivityEventStore interface {
	// Insert adds item under feedName; idempotent on
	// (feed_name, producer_id, item_id, verb, consumer_id).
	Insert(ctx context.Context, feedName string, item ActivityItem) error

	// Delete removes the row matching the full key.
	Delete(ctx context.Context, feedName, producerID, itemID, verb, consumerID string) error

	// ByItemID looks up a row by its feed-scoped item_id.
	ByItemID(ctx context.Context, feedName, itemID string) (ActivityItem, bool, error)

	// ForProducerConsumer returns every row addressed from producerID to
	// consumerID, timestamp descending.
	ForProducerConsumer(ctx context.Context, feedName, producerID, consumerID string) ([]ActivityItem, error)

	// ForConsumerRebuild returns every row addressed to consumerID,
	// timestamp descending, limited to limit.
	ForConsumerRebuild(ctx context.Context, feedName, consumerID string, limit int) ([]ActivityItem, error)

	// AllForPreload streams every row of feedName in insertion order.
	AllForPreload(ctx context.Context, feedName string) ([]ActivityItem, error)
}
