// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"

	"github.com/sh4yy/feedstream/internal/feed/feedcache"
	"github.com/sh4yy/feedstream/internal/feed/feedstore"
)

// FlatHandler implements the broadcast feed shape: one producer's item
// fans out to every one of its subscribers (§4.2).
type FlatHandler struct {
	reg       Registration
	relations feedstore.RelationStore
	events    feedstore.FlatEventStore
	cache     feedcache.Store
}

// NewFlatHandler constructs a handler for reg, backed by relations,
// events, and cache. reg.FeedKind must be KindFlat.
func NewFlatHandler(reg Registration, relations feedstore.RelationStore, events feedstore.FlatEventStore, cache feedcache.Store) *FlatHandler {
	return &FlatHandler{reg: reg, relations: relations, events: events, cache: cache}
}

func (h *FlatHandler) Name() string    { return h.reg.Name }
func (h *FlatHandler) FeedKind() Kind  { return KindFlat }
func (h *FlatHandler) Verbs() []string { return h.reg.Verbs }

// PreloadSource exposes the underlying event store so the processor's
// preload pass can stream every row without widening Handler.
func (h *FlatHandler) PreloadSource() feedstore.FlatEventStore { return h.events }

func (h *FlatHandler) Add(ctx context.Context, payload AddPayload, save bool) error {
	if save {
		if err := h.events.Insert(ctx, h.reg.Name, feedstore.FlatItem{
			ItemID:     payload.ItemID,
			ProducerID: payload.ProducerID,
			Verb:       payload.Verb,
			Timestamp:  payload.Timestamp,
		}); err != nil {
			return StoreError(err)
		}
	}

	subscribers, err := h.relations.ConsumersOf(ctx, h.reg.Name, payload.ProducerID)
	if err != nil {
		return StoreError(err)
	}
	for _, c := range subscribers {
		if err := cacheAddAndPrune(ctx, h.cache, h.reg.Name, cacheKey(c, h.reg.Name), payload.ItemID, payload.Timestamp, h.reg.MaxCache); err != nil {
			return err
		}
	}
	if h.reg.IncludeActor {
		if err := cacheAddAndPrune(ctx, h.cache, h.reg.Name, cacheKey(payload.ProducerID, h.reg.Name), payload.ItemID, payload.Timestamp, h.reg.MaxCache); err != nil {
			return err
		}
	}
	return nil
}

func (h *FlatHandler) Retract(ctx context.Context, payload RetractPayload) error {
	subscribers, err := h.relations.ConsumersOf(ctx, h.reg.Name, payload.ProducerID)
	if err != nil {
		return StoreError(err)
	}
	for _, c := range subscribers {
		if err := h.cache.Remove(ctx, cacheKey(c, h.reg.Name), payload.ItemID); err != nil {
			return CacheError(err)
		}
	}
	if h.reg.IncludeActor {
		if err := h.cache.Remove(ctx, cacheKey(payload.ProducerID, h.reg.Name), payload.ItemID); err != nil {
			return CacheError(err)
		}
	}
	if err := h.events.Delete(ctx, h.reg.Name, payload.ProducerID, payload.ItemID, payload.Verb); err != nil {
		return StoreError(err)
	}
	return nil
}

func (h *FlatHandler) Subscribe(ctx context.Context, consumerID, producerID string) error {
	if err := h.relations.Insert(ctx, h.reg.Name, producerID, consumerID); err != nil {
		return StoreError(err)
	}
	items, err := h.events.ForProducer(ctx, h.reg.Name, producerID)
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

func (h *FlatHandler) Unsubscribe(ctx context.Context, consumerID, producerID string) error {
	items, err := h.events.ForProducer(ctx, h.reg.Name, producerID)
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

func (h *FlatHandler) Consume(ctx context.Context, consumerID string, limit int, after, before *string) ([]Item, error) {
	return consume(ctx, h.cache, h.reg.Name, consumerID, limit, after, before, h.Rebuild, func(ctx context.Context, itemID string) (string, bool, error) {
		item, ok, err := h.events.ByItemID(ctx, h.reg.Name, itemID)
		if err != nil {
			return "", false, err
		}
		return item.Verb, ok, nil
	})
}

func (h *FlatHandler) Rebuild(ctx context.Context, consumerID string) error {
	items, err := h.events.ForConsumerRebuild(ctx, h.reg.Name, consumerID, h.reg.IncludeActor, h.reg.MaxCache)
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
