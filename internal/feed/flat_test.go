// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"
	"testing"

	"github.com/sh4yy/feedstream/internal/feed/feedcache"
	"github.com/sh4yy/feedstream/internal/feed/feedstore"
)

func newFlatHandler(reg Registration) *FlatHandler {
	relations := feedstore.NewMemoryRelationStore()
	events := feedstore.NewMemoryFlatStore(relations)
	cache := feedcache.NewMemoryStore()
	return NewFlatHandler(reg, relations, events, cache)
}

func TestFlatHandlerFansOutToSubscribers(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, MaxCache: 10})

	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: "ep1", Verb: "podcast", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	items, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 1 || items[0].ItemID != "ep1" || items[0].Verb != "podcast" {
		t.Fatalf("Consume() = %+v, want one ep1/podcast item", items)
	}
}

func TestFlatHandlerIncludeActor(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, IncludeActor: true, MaxCache: 10})

	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: "ep1", Verb: "podcast", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	items, err := h.Consume(ctx, "bob", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Consume() = %+v, want the producer's own item surfaced via IncludeActor", items)
	}
}

func TestFlatHandlerRetractRemovesFromSubscriberCaches(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, MaxCache: 10})

	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: "ep1", Verb: "podcast", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := h.Retract(ctx, RetractPayload{ProducerID: "bob", ItemID: "ep1", Verb: "podcast"}); err != nil {
		t.Fatalf("Retract() error = %v", err)
	}

	items, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Consume() after Retract() = %+v, want empty", items)
	}
}

// I-Cap: the cache never holds more than MaxCache members per consumer.
func TestFlatHandlerRespectsMaxCache(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, IncludeActor: true, MaxCache: 3})

	for i := 0; i < 10; i++ {
		if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: itemID(i), Verb: "podcast", Timestamp: int64(i)}, true); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
	}

	items, err := h.Consume(ctx, "bob", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3 (MaxCache)", len(items))
	}
	// I-Order: highest timestamp first.
	if items[0].ItemID != itemID(9) {
		t.Fatalf("items[0] = %q, want the newest item", items[0].ItemID)
	}
}

// Idempotency: re-subscribing is a no-op observable effect.
func TestFlatHandlerSubscribeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, MaxCache: 10})

	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("second Subscribe() error = %v", err)
	}
	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: "ep1", Verb: "podcast", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	items, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Consume() = %+v, want exactly one item despite double subscribe", items)
	}
}

// Rebuild equivalence: Rebuild from the durable store reproduces the
// same timeline a live fan-out would have produced.
func TestFlatHandlerRebuildEquivalence(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, MaxCache: 10})

	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: itemID(i), Verb: "podcast", Timestamp: int64(i)}, true); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
	}
	live, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	if err := h.Rebuild(ctx, "alice"); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	rebuilt, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() after Rebuild() error = %v", err)
	}

	if len(live) != len(rebuilt) {
		t.Fatalf("len(rebuilt) = %d, want %d", len(rebuilt), len(live))
	}
	for i := range live {
		if live[i] != rebuilt[i] {
			t.Fatalf("rebuilt[%d] = %+v, want %+v", i, rebuilt[i], live[i])
		}
	}
}

func TestFlatHandlerUnsubscribeRemovesBackfilledItems(t *testing.T) {
	ctx := context.Background()
	h := newFlatHandler(Registration{Name: "feed", FeedKind: KindFlat, Verbs: []string{"podcast"}, MaxCache: 10})

	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ItemID: "ep1", Verb: "podcast", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := h.Unsubscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}

	items, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Consume() after Unsubscribe() = %+v, want empty", items)
	}
}

func itemID(i int) string {
	return "item-" + string(rune('a'+i))
}
