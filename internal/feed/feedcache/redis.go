// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedcache

import (
	"context"
	"sort"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/redis/go-redis/v9"
	"github.com/sh4yy/feedstream/internal/metrics"
)

// pruneScript evicts the lowest-score members of KEYS[1] until its
// cardinality is at most ARGV[1], and returns the number evicted.
// Unlike the reference implementation this learns from, the key is
// never hardcoded: it always operates on KEYS[1], the key the caller
// passed in, so two different consumers' timelines can never clobber
// each other.
var pruneScript = redis.NewScript(`
local card = redis.call('ZCARD', KEYS[1])
local maxCache = tonumber(ARGV[1])
if card <= maxCache then
	return 0
end
local excess = card - maxCache
redis.call('ZREMRANGEBYRANK', KEYS[1], 0, excess - 1)
return excess
`)

// BreakerConfig tunes the circuit breaker guarding Redis calls.
type BreakerConfig struct {
	Name              string
	MaxRequests       uint32
	Interval          time.Duration
	Timeout           time.Duration
	FailureThreshold  uint32
}

// RedisStore implements Store against a Redis (or Redis-compatible)
// sorted set, one per cache key. Every call is routed through a
// gobreaker circuit breaker since this adapter is the one network-bound
// dependency in the write/read paths.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[interface{}]
}

// NewRedisStore wraps client with the prune script and a circuit
// breaker configured per cfg.
func NewRedisStore(client *redis.Client, cfg BreakerConfig) *RedisStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.Set(float64(to))
		},
	}
	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

func (s *RedisStore) execute(fn func() (interface{}, error)) error {
	_, err := s.breaker.Execute(fn)
	return err
}

func (s *RedisStore) Add(ctx context.Context, key, member string, score int64) error {
	return s.execute(func() (interface{}, error) {
		return nil, s.client.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: member}).Err()
	})
}

func (s *RedisStore) Remove(ctx context.Context, key, member string) error {
	return s.execute(func() (interface{}, error) {
		return nil, s.client.ZRem(ctx, key, member).Err()
	})
}

func (s *RedisStore) Prune(ctx context.Context, key string, maxCache int) (int, error) {
	var evicted int64
	err := s.execute(func() (interface{}, error) {
		v, err := pruneScript.Run(ctx, s.client, []string{key}, maxCache).Int64()
		evicted = v
		return nil, err
	})
	return int(evicted), err
}

func (s *RedisStore) ReverseRange(ctx context.Context, key string, start, stop int64) ([]Member, error) {
	var out []Member
	err := s.execute(func() (interface{}, error) {
		// The whole set is fetched so a run of tied members that straddles
		// start or stop is re-sorted as a whole before the range is cut.
		zs, err := s.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
		if err != nil {
			return nil, err
		}
		all := make([]Member, len(zs))
		for i, z := range zs {
			all[i] = Member{ID: z.Member.(string), Score: int64(z.Score)}
		}
		reorderTiesAscending(all)
		n := int64(len(all))
		if start < 0 {
			start = 0
		}
		if stop < 0 || stop >= n {
			stop = n - 1
		}
		if start > stop || start >= n {
			return nil, nil
		}
		out = all[start : stop+1]
		return nil, nil
	})
	return out, err
}

// reorderTiesAscending re-sorts each run of equal-score members by
// member ascending. ZREVRANGE yields ties in descending lexicographic
// order (it reverses the whole ordering, including the lex tie-break
// ZRANGE applies), but I-Order requires ties broken ascending, so this
// brings the Redis path in line with MemoryStore's ordering.
func reorderTiesAscending(members []Member) {
	for i := 0; i < len(members); {
		j := i + 1
		for j < len(members) && members[j].Score == members[i].Score {
			j++
		}
		if j-i > 1 {
			run := members[i:j]
			sort.Slice(run, func(a, b int) bool { return run[a].ID < run[b].ID })
		}
		i = j
	}
}

// ReverseRank finds member's position in the score-descending,
// member-ascending-on-tie ordering. ZREVRANK alone reports a rank
// consistent with Redis's own descending-on-tie ordering, which
// disagrees with I-Order (see reorderTiesAscending), so this fetches
// the whole set and locates member in the corrected order instead of
// trusting ZREVRANK directly.
func (s *RedisStore) ReverseRank(ctx context.Context, key, member string) (int64, bool, error) {
	var rank int64
	var ok bool
	err := s.execute(func() (interface{}, error) {
		zs, err := s.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
		if err != nil {
			return nil, err
		}
		members := make([]Member, len(zs))
		for i, z := range zs {
			members[i] = Member{ID: z.Member.(string), Score: int64(z.Score)}
		}
		reorderTiesAscending(members)
		for i, m := range members {
			if m.ID == member {
				rank, ok = int64(i), true
				break
			}
		}
		return nil, nil
	})
	return rank, ok, err
}

func (s *RedisStore) Card(ctx context.Context, key string) (int64, error) {
	var card int64
	err := s.execute(func() (interface{}, error) {
		c, err := s.client.ZCard(ctx, key).Result()
		card = c
		return nil, err
	})
	return card, err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, key).Err()
	})
}

// Ping checks Redis connectivity through the circuit breaker, for use
// by the HTTP health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})
}
