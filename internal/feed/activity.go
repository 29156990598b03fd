// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"

	"github.com/sh4yy/feedstream/internal/feed/feedcache"
	"github.com/sh4yy/feedstream/internal/feed/feedstore"
)

// ActivityHandler implements the directed-activity feed shape: an item
// addresses exactly one consumer and is added to that consumer's cache
// whether or not a relation exists; Subscribe backfills and Unsubscribe
// removes the producer's items addressed to the consumer (§4.3).
type ActivityHandler struct {
	reg       Registration
	relations feedstore.RelationStore
	events    feedstore.ActivityEventStore
	cache     feedcache.Store
}

// NewActivityHandler constructs a handler for reg, backed by relations,
// events, and cache. reg.FeedKind must be KindActivity.
func NewActivityHandler(reg Registration, relations feedstore.RelationStore, events feedstore.ActivityEventStore, cache feedcache.Store) *ActivityHandler {
	return &ActivityHandler{reg: reg, relations: relations, events: events, cache: cache}
}

func (h *ActivityHandler) Name() string    { return h.reg.Name }
func (h *ActivityHandler) FeedKind() Kind  { return KindActivity }
func (h *ActivityHandler) Verbs() []string { return h.reg.Verbs }

// PreloadSource exposes the underlying event store so the processor's
// preload pass can stream every row without widening Handler.
func (h *ActivityHandler) PreloadSource() feedstore.ActivityEventStore { return h.events }

func (h *ActivityHandler) Add(ctx context.Context, payload AddPayload, save bool) error {
	if save {
		if err := h.events.Insert(ctx, h.reg.Name, feedstore.ActivityItem{
			ItemID:     payload.ItemID,
			ProducerID: payload.ProducerID,
			ConsumerID: payload.ConsumerID,
			Verb:       payload.Verb,
			Timestamp:  payload.Timestamp,
		}); err != nil {
			return StoreError(err)
		}
	}
	// Subscription is not consulted on add; the producer addresses a
	// consumer directly.
	return cacheAddAndPrune(ctx, h.cache, h.reg.Name, cacheKey(payload.ConsumerID, h.reg.Name), payload.ItemID, payload.Timestamp, h.reg.MaxCache)
}

func (h *ActivityHandler) Retract(ctx context.Context, payload RetractPayload) error {
	if err := h.cache.Remove(ctx, cacheKey(payload.ConsumerID, h.reg.Name), payload.ItemID); err != nil {
		return CacheError(err)
	}
	if err := h.events.Delete(ctx, h.reg.Name, payload.ProducerID, payload.ItemID, payload.Verb, payload.ConsumerID); err != nil {
		return StoreError(err)
	}
	return nil
}

func (h *ActivityHandler) Subscribe(ctx context.Context, consumerID, producerID string) error {
	if err := h.relations.Insert(ctx, h.reg.Name, producerID, consumerID); err != nil {
		return StoreError(err)
	}
	items, err := h.events.ForProducerConsumer(ctx, h.reg.Name, producerID, consumerID)
	if err != nil {
		return StoreError(err)
	}
	key := cacheKey(consumerID, h.reg.Name)
	for _, item := range items {
		if err := h.cache.Add(ctx, key, item.ItemID, item.Timestamp); err != nil {
			return CacheError(err)
		}
	}
	if _, err := h.cache.Prune(ctx, key, h.reg.MaxCache); err != nil {
		return CacheError(err)
	}
	return nil
}

func (h *ActivityHandler) Unsubscribe(ctx context.Context, consumerID, producerID string) error {
	items, err := h.events.ForProducerConsumer(ctx, h.reg.Name, producerID, consumerID)
	if err != nil {
		return StoreError(err)
	}
	key := cacheKey(consumerID, h.reg.Name)
	for _, item := range items {
		if err := h.cache.Remove(ctx, key, item.ItemID); err != nil {
			return CacheError(err)
		}
	}
	if err := h.relations.Delete(ctx, h.reg.Name, producerID, consumerID); err != nil {
		return StoreError(err)
	}
	return nil
}

func (h *ActivityHandler) Consume(ctx context.Context, consumerID string, limit int, after, before *string) ([]Item, error) {
	return consume(ctx, h.cache, h.reg.Name, consumerID, limit, after, before, h.Rebuild, func(ctx context.Context, itemID string) (string, bool, error) {
		item, ok, err := h.events.ByItemID(ctx, h.reg.Name, itemID)
		if err != nil {
			return "", false, err
		}
		return item.Verb, ok, nil
	})
}

func (h *ActivityHandler) Rebuild(ctx context.Context, consumerID string) error {
	items, err := h.events.ForConsumerRebuild(ctx, h.reg.Name, consumerID, h.reg.MaxCache)
	if err != nil {
		return StoreError(err)
	}
	key := cacheKey(consumerID, h.reg.Name)
	if err := h.cache.Delete(ctx, key); err != nil {
		return CacheError(err)
	}
	for _, item := range items {
		if err := h.cache.Add(ctx, key, item.ItemID, item.Timestamp); err != nil {
			return CacheError(err)
		}
	}
	return nil
}
