// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feed

import (
	"context"
	"testing"

	"github.com/sh4yy/feedstream/internal/feed/feedcache"
	"github.com/sh4yy/feedstream/internal/feed/feedstore"
)

func newActivityHandler(reg Registration) *ActivityHandler {
	relations := feedstore.NewMemoryRelationStore()
	events := feedstore.NewMemoryActivityStore()
	cache := feedcache.NewMemoryStore()
	return NewActivityHandler(reg, relations, events, cache)
}

func TestActivityHandlerAddressesConsumerDirectly(t *testing.T) {
	ctx := context.Background()
	h := newActivityHandler(Registration{Name: "notification", FeedKind: KindActivity, Verbs: []string{"like"}, MaxCache: 10})

	// I-Membership activity: Add does not require a prior Subscribe.
	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ConsumerID: "alice", ItemID: "n1", Verb: "like", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	items, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 1 || items[0].ItemID != "n1" {
		t.Fatalf("Consume() = %+v, want one n1 item", items)
	}

	otherItems, err := h.Consume(ctx, "bob", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(otherItems) != 0 {
		t.Fatalf("Consume(bob) = %+v, want empty (item addressed to alice only)", otherItems)
	}
}

func TestActivityHandlerRetract(t *testing.T) {
	ctx := context.Background()
	h := newActivityHandler(Registration{Name: "notification", FeedKind: KindActivity, Verbs: []string{"like"}, MaxCache: 10})

	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ConsumerID: "alice", ItemID: "n1", Verb: "like", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := h.Retract(ctx, RetractPayload{ProducerID: "bob", ConsumerID: "alice", ItemID: "n1", Verb: "like"}); err != nil {
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

func TestActivityHandlerSubscribeBackfillsProducerHistory(t *testing.T) {
	ctx := context.Background()
	h := newActivityHandler(Registration{Name: "notification", FeedKind: KindActivity, Verbs: []string{"comment"}, MaxCache: 10})

	if err := h.Add(ctx, AddPayload{ProducerID: "bob", ConsumerID: "alice", ItemID: "n1", Verb: "comment", Timestamp: 100}, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := h.Subscribe(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	items, err := h.Consume(ctx, "alice", 20, nil, nil)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Consume() = %+v, want the backfilled item", items)
	}
}

func TestActivityHandlerRebuildEquivalence(t *testing.T) {
	ctx := context.Background()
	h := newActivityHandler(Registration{Name: "notification", FeedKind: KindActivity, Verbs: []string{"like"}, MaxCache: 10})

	for i := 0; i < 3; i++ {
		if err := h.Add(ctx, AddPayload{ProducerID: "bob", ConsumerID: "alice", ItemID: itemID(i), Verb: "like", Timestamp: int64(i)}, true); err != nil {
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
