// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedcache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process sorted-set cache used by tests. It
// satisfies Store with
// the same score-descending, member-ascending-on-tie ordering the Redis
// implementation guarantees.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[string]map[string]int64
}

// NewMemoryStore returns an empty cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]map[string]int64)}
}

func (m *MemoryStore) Add(_ context.Context, key, member string, score int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]int64)
		m.sets[key] = set
	}
	set[member] = score
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, key string, maxCache int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok || maxCache < 0 {
		return 0, nil
	}
	members := sortedMembers(set)
	if len(members) <= maxCache {
		return 0, nil
	}
	evict := members[maxCache:]
	for _, e := range evict {
		delete(set, e.ID)
	}
	return len(evict), nil
}

func (m *MemoryStore) ReverseRange(_ context.Context, key string, start, stop int64) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return nil, nil
	}
	members := sortedMembers(set)
	n := int64(len(members))
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}
	out := make([]Member, stop-start+1)
	copy(out, members[start:stop+1])
	return out, nil
}

func (m *MemoryStore) ReverseRank(_ context.Context, key, member string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		return 0, false, nil
	}
	if _, present := set[member]; !present {
		return 0, false, nil
	}
	members := sortedMembers(set)
	for i, mm := range members {
		if mm.ID == member {
			return int64(i), true, nil
		}
	}
	return 0, false, nil
}

func (m *MemoryStore) Card(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sets[key])), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, key)
	return nil
}

// sortedMembers returns set's entries ordered score-descending,
// member-ascending on ties — the order RedisStore.ReverseRange returns
// after re-sorting ZREVRANGE's descending tie runs.
func sortedMembers(set map[string]int64) []Member {
	members := make([]Member, 0, len(set))
	for id, score := range set {
		members = append(members, Member{ID: id, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].ID < members[j].ID
	})
	return members
}
