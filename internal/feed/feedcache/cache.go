// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedcache defines the sorted-set timeline cache adapter and
// its implementations: a Redis-backed store for production and an
// in-memory store for tests.
package feedcache

import "context"

// Member is one entry of a reverse-ranked range read: an item_id scored
// by its timestamp.
type Member struct {
	ID    string
	Score int64
}

// Store is the sorted-set contract every timeline cache adapter must
// satisfy. A key addresses one consumer's timeline within one feed
// ("<consumer_id>:<feed_name>"); members are item_ids scored by
// timestamp.
type Store interface {
	// Add inserts or updates member with score. Re-adding the same
	// (member, score) pair is a no-op observable effect (idempotent).
	Add(ctx context.Context, key, member string, score int64) error

	// Remove deletes member from key, if present.
	Remove(ctx context.Context, key, member string) error

	// Prune atomically evicts the lowest-score members of key until its
	// cardinality is at most maxCache, and reports how many were
	// evicted. Prune against the same key never interleaves with
	// another prune or add on that key mid-execution.
	Prune(ctx context.Context, key string, maxCache int) (evicted int, err error)

	// ReverseRange returns members of key ordered score-descending,
	// member-ascending on ties, over the 0-based inclusive range
	// [start, stop]. A negative stop of -1 means "to the end".
	ReverseRange(ctx context.Context, key string, start, stop int64) ([]Member, error)

	// ReverseRank returns the 0-based rank of member within key's
	// reverse (score-descending) order. ok is false if member is absent.
	ReverseRank(ctx context.Context, key, member string) (rank int64, ok bool, err error)

	// Card returns the cardinality of key (0 if absent).
	Card(ctx context.Context, key string) (int64, error)

	// Delete removes key entirely. Used before a full rebuild so stale
	// members can't survive alongside the freshly streamed set.
	Delete(ctx context.Context, key string) error
}
