// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed implements the fan-out engine: feed handlers that
// translate publish/retract/subscribe/unsubscribe/consume operations
// into store writes and cache mutations for the two feed shapes,
// flat (broadcast) and activity (directed).
package feed

// Kind enumerates the two feed shapes a registration can declare.
type Kind string

const (
	KindFlat     Kind = "flat"
	KindActivity Kind = "activity"
)

// Registration is the immutable configuration of one registered feed,
// created at boot and never mutated afterward.
type Registration struct {
	Name               string
	FeedKind           Kind
	Verbs              []string
	IncludeActor       bool
	MaxCache           int
}

// AddPayload carries the fields needed to persist and fan out one item.
// ConsumerID is only meaningful for activity feeds; it is ignored by
// flat handlers.
type AddPayload struct {
	ProducerID string
	ConsumerID string
	ItemID     string
	Verb       string
	Timestamp  int64
}

// RetractPayload identifies the item to remove. ConsumerID is required
// for activity feeds (part of the row's unique key) and ignored by flat
// handlers.
type RetractPayload struct {
	ProducerID string
	ConsumerID string
	ItemID     string
	Verb       string
}

// Item is the projection consume returns: the cache only stores
// item_id, so every result is joined against the event store for its
// verb.
type Item struct {
	ItemID string
	Verb   string
}

// cacheKey is the shared addressing scheme for a consumer's timeline
// within one feed: "<consumer_id>:<feed_name>".
func cacheKey(consumerID, feedName string) string {
	return consumerID + ":" + feedName
}
