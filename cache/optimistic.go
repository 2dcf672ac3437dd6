package cache

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// OptimisticCoordinator applies a speculative cache write before the
// durable transaction is confirmed. Detail keys get the best-known
// entity snapshot; list and count slots are invalidated instead of
// repopulated, since recomputing a correct list speculatively is too
// expensive.
//
// Every method is best-effort and swallows its own errors: the
// coordinator must never be the reason a user-facing mutation fails.
// Consecutive cache-write failures above the alert threshold are
// escalated to an error log and a counter so operators see a dying
// cache instead of silent misses.
type OptimisticCoordinator struct {
	logger         types.Logger
	client         types.CacheClient
	fanout         *FanoutEngine
	alertThreshold int64
	failures       int64
	alertCounter   types.Counter
}

func NewOptimisticCoordinator(logger types.Logger, client types.CacheClient, fanout *FanoutEngine) *OptimisticCoordinator {
	return &OptimisticCoordinator{
		logger:         logger,
		client:         client,
		fanout:         fanout,
		alertThreshold: 10,
	}
}

// WithAlerting wires the failure counter and threshold; zero threshold
// keeps the default.
func (o *OptimisticCoordinator) WithAlerting(counter types.Counter, threshold int64) *OptimisticCoordinator {
	o.alertCounter = counter
	if threshold > 0 {
		o.alertThreshold = threshold
	}
	return o
}

func (o *OptimisticCoordinator) ApplyOptimistic(entity types.CacheableEntity, op Operation) types.Result {
	if entity == nil || entity.EntityID() == "" {
		return types.Fail(types.ErrEntityIDEmpty)
	}

	family := entity.EntityFamily()

	switch op {
	case OpCreate, OpUpdate:
		if result := o.writeSnapshot(entity); !result.Success {
			return result
		}
	case OpDelete:
		keys := []string{IDKey(family, entity.EntityID())}
		if entity.EntitySlug() != "" {
			keys = append(keys, SlugKey(family, entity.EntitySlug()))
		}
		if err := o.client.Del(keys...); err != nil {
			o.noteFailure(err)
			return types.Fail(err)
		}
	default:
		return types.Fail(types.Errorf(types.ErrInvalidParameter, "operation: %s", op))
	}

	o.invalidateLists(family)
	o.noteSuccess()

	return types.OK()
}

// Revert re-runs fan-out invalidation for both entity identities; there
// is no snapshot-based undo. The next read repopulates from the source
// of truth, so no stale optimistic value survives.
func (o *OptimisticCoordinator) Revert(family types.EntityFamily, id, slug string) types.Result {
	if id == "" && slug == "" {
		return types.Fail(types.ErrEntityIDEmpty)
	}

	o.fanout.Invalidate(types.InvalidationEvent{
		Family: family,
		ID:     id,
		Slug:   slug,
		Scope:  types.ScopeSingle,
	})

	o.logger.Debug("optimistic update reverted",
		zap.String("family", string(family)),
		zap.String("id", id),
		zap.String("slug", slug))

	return types.OK()
}

func (o *OptimisticCoordinator) writeSnapshot(entity types.CacheableEntity) types.Result {
	data, err := utils.Marshal(entity)
	if err != nil {
		o.logger.Error("failed to marshal optimistic snapshot",
			zap.String("family", string(entity.EntityFamily())),
			zap.String("id", entity.EntityID()),
			zap.Error(err))
		return types.Fail(err)
	}

	family := entity.EntityFamily()
	ttl := FamilyTTL(family)

	if err := o.client.SetWithRetry(IDKey(family, entity.EntityID()), data, ttl, 0); err != nil {
		o.noteFailure(err)
		return types.Fail(err)
	}

	if slug := entity.EntitySlug(); slug != "" {
		if err := o.client.SetWithRetry(SlugKey(family, slug), data, ttl, 0); err != nil {
			o.noteFailure(err)
			return types.Fail(err)
		}
	}

	return types.OK()
}

func (o *OptimisticCoordinator) invalidateLists(family types.EntityFamily) {
	if err := o.client.Del(ListKey(family), CountKey(family)); err != nil {
		o.logger.Warn("optimistic list invalidation failed",
			zap.String("family", string(family)),
			zap.Error(err))
	}

	for _, pattern := range ScopePatterns(family) {
		if err := o.client.InvalidatePattern(pattern); err != nil {
			o.logger.Warn("optimistic scope invalidation failed",
				zap.String("family", string(family)),
				zap.String("pattern", pattern),
				zap.Error(err))
		}
	}
}

func (o *OptimisticCoordinator) noteFailure(err error) {
	failures := atomic.AddInt64(&o.failures, 1)

	if o.alertCounter != nil {
		o.alertCounter.Inc()
	}

	if failures >= o.alertThreshold {
		o.logger.Error("optimistic cache writes failing persistently",
			zap.Int64("consecutive_failures", failures),
			zap.Bool("alert", true),
			zap.Error(err))
	}
}

func (o *OptimisticCoordinator) noteSuccess() {
	atomic.StoreInt64(&o.failures, 0)
}
