// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"

	"github.com/sh4yy/feedstream/internal/feed/feedcache"
	"github.com/sh4yy/feedstream/internal/metrics"
)

// verbLookup resolves a cache member's item_id to the verb its stored
// row carries, so consume's projection can attach {item_id, verb}.
type verbLookup func(ctx context.Context, itemID string) (verb string, ok bool, err error)

// consume implements the shared paging contract of §4.1: compute
// [start, end] against the reverse-ordered cache, rebuilding lazily if
// the cache is absent or empty, then project the resulting item_ids to
// {item_id, verb} via lookup, preserving score-descending order.
func consume(
	ctx context.Context,
	cache feedcache.Store,
	feedName, consumerID string,
	limit int,
	after, before *string,
	rebuild func(ctx context.Context, consumerID string) error,
	lookup verbLookup,
) ([]Item, error) {
	if after != nil && before != nil {
		return nil, CursorConflict()
	}
	if limit <= 0 {
		limit = 20
	}

	key := cacheKey(consumerID, feedName)

	card, err := cache.Card(ctx, key)
	if err != nil {
		return nil, CacheError(err)
	}
	metrics.RecordConsume(feedName, card == 0)
	if card == 0 {
		if err := rebuild(ctx, consumerID); err != nil {
			return nil, err
		}
		card, err = cache.Card(ctx, key)
		if err != nil {
			return nil, CacheError(err)
		}
		if card == 0 {
			return nil, nil
		}
	}

	start, end, err := computeRange(ctx, cache, key, limit, after, before)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, nil
	}

	members, err := cache.ReverseRange(ctx, key, start, end)
	if err != nil {
		return nil, CacheError(err)
	}

	items := make([]Item, 0, len(members))
	for _, m := range members {
		verb, ok, err := lookup(ctx, m.ID)
		if err != nil {
			return nil, StoreError(err)
		}
		if !ok {
			// The store row was deleted between the cache read and the
			// join; skip it rather than fail the whole page.
			continue
		}
		items = append(items, Item{ItemID: m.ID, Verb: verb})
	}
	return items, nil
}

// computeRange applies the table from §4.1.
func computeRange(ctx context.Context, cache feedcache.Store, key string, limit int, after, before *string) (start, end int64, err error) {
	switch {
	case after == nil && before == nil:
		return 0, int64(limit) - 1, nil

	case after != nil:
		rank, ok, err := cache.ReverseRank(ctx, key, *after)
		if err != nil {
			return 0, 0, CacheError(err)
		}
		if !ok {
			return 0, 0, UnknownCursor(*after)
		}
		start = rank + 1
		return start, start + int64(limit) - 1, nil

	default: // before != nil
		rank, ok, err := cache.ReverseRank(ctx, key, *before)
		if err != nil {
			return 0, 0, CacheError(err)
		}
		if !ok {
			return 0, 0, UnknownCursor(*before)
		}
		start = rank - int64(limit)
		if start < 0 {
			start = 0
		}
		return start, rank - 1, nil
	}
}

// cacheAddAndPrune performs the shared "cache-growing write followed by
// an atomic scripted prune" sequence every add/subscribe path uses.
func cacheAddAndPrune(ctx context.Context, cache feedcache.Store, feedName, key, member string, score int64, maxCache int) error {
	if err := cache.Add(ctx, key, member, score); err != nil {
		return CacheError(err)
	}
	evicted, err := cache.Prune(ctx, key, maxCache)
	if err != nil {
		return CacheError(err)
	}
	metrics.RecordPrune(feedName, evicted)
	return nil
}
