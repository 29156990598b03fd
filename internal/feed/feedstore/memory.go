// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedstore

import (
	"context"
	"sort"
	"sync"
)

type relationKey struct{ feedName, producerID, consumerID string }

// MemoryRelationStore is an in-process RelationStore used by tests and
// by any deployment that doesn't need durability across restarts.
type MemoryRelationStore struct {
	mu   sync.Mutex
	rows map[relationKey]struct{}
}

// NewMemoryRelationStore returns an empty store.
func NewMemoryRelationStore() *MemoryRelationStore {
	return &MemoryRelationStore{rows: make(map[relationKey]struct{})}
}

func (m *MemoryRelationStore) Insert(_ context.Context, feedName, producerID, consumerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[relationKey{feedName, producerID, consumerID}] = struct{}{}
	return nil
}

func (m *MemoryRelationStore) Delete(_ context.Context, feedName, producerID, consumerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, relationKey{feedName, producerID, consumerID})
	return nil
}

func (m *MemoryRelationStore) ConsumersOf(_ context.Context, feedName, producerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.rows {
		if k.feedName == feedName && k.producerID == producerID {
			out = append(out, k.consumerID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryRelationStore) exists(feedName, producerID, consumerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[relationKey{feedName, producerID, consumerID}]
	return ok
}

// MemoryFlatStore is an in-process FlatEventStore.
type MemoryFlatStore struct {
	mu        sync.Mutex
	rows      map[string][]FlatItem // feedName -> rows, insertion order
	relations *MemoryRelationStore
}

// NewMemoryFlatStore returns an empty store. relations is consulted by
// ForConsumerRebuild to determine membership; pass the same
// MemoryRelationStore the rest of the process uses.
func NewMemoryFlatStore(relations *MemoryRelationStore) *MemoryFlatStore {
	return &MemoryFlatStore{rows: make(map[string][]FlatItem), relations: relations}
}

func (m *MemoryFlatStore) Insert(_ context.Context, feedName string, item FlatItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[feedName]
	for i, r := range rows {
		if r.ProducerID == item.ProducerID && r.ItemID == item.ItemID && r.Verb == item.Verb {
			rows[i] = item
			return nil
		}
	}
	m.rows[feedName] = append(rows, item)
	return nil
}

func (m *MemoryFlatStore) Delete(_ context.Context, feedName, producerID, itemID, verb string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[feedName]
	for i, r := range rows {
		if r.ProducerID == producerID && r.ItemID == itemID && r.Verb == verb {
			m.rows[feedName] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryFlatStore) ByItemID(_ context.Context, feedName, itemID string) (FlatItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[feedName] {
		if r.ItemID == itemID {
			return r, true, nil
		}
	}
	return FlatItem{}, false, nil
}

func (m *MemoryFlatStore) ForProducer(_ context.Context, feedName, producerID string) ([]FlatItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []FlatItem
	for _, r := range m.rows[feedName] {
		if r.ProducerID == producerID {
			out = append(out, r)
		}
	}
	sortFlatDesc(out)
	return out, nil
}

func (m *MemoryFlatStore) ForConsumerRebuild(_ context.Context, feedName, consumerID string, includeActor bool, limit int) ([]FlatItem, error) {
	m.mu.Lock()
	rows := append([]FlatItem(nil), m.rows[feedName]...)
	m.mu.Unlock()

	var out []FlatItem
	for _, r := range rows {
		if (m.relations != nil && m.relations.exists(feedName, r.ProducerID, consumerID)) || (includeActor && r.ProducerID == consumerID) {
			out = append(out, r)
		}
	}
	sortFlatDesc(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryFlatStore) AllForPreload(_ context.Context, feedName string) ([]FlatItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FlatItem, len(m.rows[feedName]))
	copy(out, m.rows[feedName])
	return out, nil
}

// MemoryActivityStore is an in-process ActivityEventStore.
type MemoryActivityStore struct {
	mu   sync.Mutex
	rows map[string][]ActivityItem // feedName -> rows, insertion order
}

// NewMemoryActivityStore returns an empty store.
func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{rows: make(map[string][]ActivityItem)}
}

func (m *MemoryActivityStore) Insert(_ context.Context, feedName string, item ActivityItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[feedName]
	for i, r := range rows {
		if r.ProducerID == item.ProducerID && r.ItemID == item.ItemID && r.Verb == item.Verb && r.ConsumerID == item.ConsumerID {
			rows[i] = item
			return nil
		}
	}
	m.rows[feedName] = append(rows, item)
	return nil
}

func (m *MemoryActivityStore) Delete(_ context.Context, feedName, producerID, itemID, verb, consumerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[feedName]
	for i, r := range rows {
		if r.ProducerID == producerID && r.ItemID == itemID && r.Verb == verb && r.ConsumerID == consumerID {
			m.rows[feedName] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryActivityStore) ByItemID(_ context.Context, feedName, itemID string) (ActivityItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[feedName] {
		if r.ItemID == itemID {
			return r, true, nil
		}
	}
	return ActivityItem{}, false, nil
}

func (m *MemoryActivityStore) ForProducerConsumer(_ context.Context, feedName, producerID, consumerID string) ([]ActivityItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ActivityItem
	for _, r := range m.rows[feedName] {
		if r.ProducerID == producerID && r.ConsumerID == consumerID {
			out = append(out, r)
		}
	}
	sortActivityDesc(out)
	return out, nil
}

func (m *MemoryActivityStore) ForConsumerRebuild(_ context.Context, feedName, consumerID string, limit int) ([]ActivityItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ActivityItem
	for _, r := range m.rows[feedName] {
		if r.ConsumerID == consumerID {
			out = append(out, r)
		}
	}
	sortActivityDesc(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryActivityStore) AllForPreload(_ context.Context, feedName string) ([]ActivityItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ActivityItem, len(m.rows[feedName]))
	copy(out, m.rows[feedName])
	return out, nil
}

func sortFlatDesc(rows []FlatItem) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp > rows[j].Timestamp
		}
		return rows[i].ItemID < rows[j].ItemID
	})
}

func sortActivityDesc(rows []ActivityItem) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp > rows[j].Timestamp
		}
		return rows[i].ItemID < rows[j].ItemID
	})
}
