package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

// FamilyTTL is the default entry lifetime per entity family. Collections
// change rarely, invitations churn quickly.
func FamilyTTL(family types.EntityFamily) time.Duration {
	switch family {
	case types.FamilyCollection:
		return types.TTLLong
	case types.FamilyInvitation:
		return types.TTLShort
	default:
		return types.TTLMedium
	}
}

// ScopedQueryCache wraps list and count reads cache-aside: resolve the
// role scope to a key, try the cache, and on miss run the caller's fetch
// against the source of truth and populate the slot. The key itself
// encodes scope, so an admin read never observes a vendor-scoped payload
// and vice versa.
//
// Concurrent misses for the same key are collapsed into a single fetch;
// racing writers otherwise race freely, and correctness is re-established
// by the next invalidation event rather than on read.
type ScopedQueryCache struct {
	logger  types.Logger
	client  types.CacheClient
	monitor *Monitor
	group   singleflight.Group
}

func NewScopedQueryCache(logger types.Logger, client types.CacheClient, monitor *Monitor) *ScopedQueryCache {
	return &ScopedQueryCache{
		logger:  logger,
		client:  client,
		monitor: monitor,
	}
}

// FetchList serves a role-scoped list read. A corrupted cached payload
// is treated as a miss and dropped.
func FetchList[T any](ctx context.Context, q *ScopedQueryCache, family types.EntityFamily, scope types.RoleScope, fetch func(context.Context) ([]T, error)) ([]T, error) {
	key := ScopedListKey(family, scope)

	start := time.Now()
	if data, ok := q.client.Get(key); ok {
		var items []T
		if err := utils.Unmarshal(data, &items); err == nil {
			q.monitor.RecordHit(latencyMs(start))
			return items, nil
		}
		_ = q.client.Del(key)
	}

	value, err, _ := q.group.Do(key, func() (interface{}, error) {
		items, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		if data, mErr := utils.Marshal(items); mErr == nil {
			_ = q.client.Set(key, data, FamilyTTL(family))
		}

		return items, nil
	})

	q.monitor.RecordMiss(latencyMs(start))

	if err != nil {
		return nil, err
	}

	items, _ := value.([]T)
	return items, nil
}

// FetchCount serves a role-scoped count read.
func FetchCount(ctx context.Context, q *ScopedQueryCache, family types.EntityFamily, scope types.RoleScope, fetch func(context.Context) (int64, error)) (int64, error) {
	key := ScopedCountKey(family, scope)

	start := time.Now()
	if data, ok := q.client.Get(key); ok {
		var count int64
		if err := utils.Unmarshal(data, &count); err == nil {
			q.monitor.RecordHit(latencyMs(start))
			return count, nil
		}
		_ = q.client.Del(key)
	}

	value, err, _ := q.group.Do(key, func() (interface{}, error) {
		count, err := fetch(ctx)
		if err != nil {
			return int64(0), err
		}

		if data, mErr := utils.Marshal(count); mErr == nil {
			_ = q.client.Set(key, data, FamilyTTL(family))
		}

		return count, nil
	})

	q.monitor.RecordMiss(latencyMs(start))

	if err != nil {
		return 0, err
	}

	count, _ := value.(int64)
	return count, nil
}

// FetchEntity serves a by-id or by-slug detail read through the same
// cache-aside path, used by server actions outside the list flow.
func FetchEntity[T any](ctx context.Context, q *ScopedQueryCache, key string, ttl time.Duration, fetch func(context.Context) (*T, error)) (*T, error) {
	start := time.Now()
	if data, ok := q.client.Get(key); ok {
		var entity T
		if err := utils.Unmarshal(data, &entity); err == nil {
			q.monitor.RecordHit(latencyMs(start))
			return &entity, nil
		}
		_ = q.client.Del(key)
	}

	value, err, _ := q.group.Do(key, func() (interface{}, error) {
		entity, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, types.ErrEntityNotFound
		}

		if data, mErr := utils.Marshal(entity); mErr == nil {
			_ = q.client.Set(key, data, ttl)
		}

		return entity, nil
	})

	q.monitor.RecordMiss(latencyMs(start))

	if err != nil {
		return nil, err
	}

	entity, _ := value.(*T)
	return entity, nil
}
