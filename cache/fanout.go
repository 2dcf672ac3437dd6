package cache

import (
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
)

// FanoutEngine expands a committed mutation event into the full set of
// key deletions, pattern invalidations, and output-cache tag and path
// invalidations it implies, including cross-entity dependents.
//
// Invalidation is idempotent and order-independent: re-running the same
// event leaves the store in the same end state, so callers fire and
// never verify. A failed step is logged and the remaining steps still
// run; partial invalidation is preferable to none.
type FanoutEngine struct {
	logger types.Logger
	client types.CacheClient
	output types.OutputCache
}

func NewFanoutEngine(logger types.Logger, client types.CacheClient, output types.OutputCache) *FanoutEngine {
	return &FanoutEngine{
		logger: logger,
		client: client,
		output: output,
	}
}

func (f *FanoutEngine) Invalidate(event types.InvalidationEvent) {
	f.invalidateTags(event)
	f.invalidatePaths(event)

	if event.Scope == types.ScopeAll {
		f.wipeFamily(event.Family)
	} else {
		f.invalidateKeys(event)
		f.invalidateScopes(event.Family)
	}

	for _, family := range crossFamilies(event.Family) {
		f.invalidateCrossFamily(family)
	}

	f.logger.Debug("fan-out invalidation completed",
		zap.String("family", string(event.Family)),
		zap.String("id", event.ID),
		zap.String("slug", event.Slug),
		zap.String("scope", string(event.Scope)))
}

func (f *FanoutEngine) invalidateTags(event types.InvalidationEvent) {
	if f.output == nil {
		return
	}

	for _, tag := range FamilyTags(event.Family) {
		f.output.InvalidateByTag(tag)
	}

	if event.ID != "" {
		f.output.InvalidateByTag(IDTag(event.Family, event.ID))
	}
	if event.Slug != "" {
		f.output.InvalidateByTag(SlugTag(event.Family, event.Slug))
	}
}

func (f *FanoutEngine) invalidatePaths(event types.InvalidationEvent) {
	if f.output == nil {
		return
	}

	for _, route := range FamilyRoutes(event.Family, event.Slug) {
		f.output.InvalidateByPath(route, types.RevalidatePage)
	}
}

func (f *FanoutEngine) invalidateKeys(event types.InvalidationEvent) {
	keys := []string{
		ListKey(event.Family),
		CountKey(event.Family),
	}

	if event.ID != "" {
		keys = append(keys, IDKey(event.Family, event.ID))
	}
	if event.Slug != "" {
		keys = append(keys, SlugKey(event.Family, event.Slug))
	}

	if err := f.client.Del(keys...); err != nil {
		f.logger.Warn("fan-out key deletion failed",
			zap.String("family", string(event.Family)),
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}

func (f *FanoutEngine) invalidateScopes(family types.EntityFamily) {
	for _, pattern := range ScopePatterns(family) {
		if err := f.client.InvalidatePattern(pattern); err != nil {
			f.logger.Warn("fan-out scope invalidation failed",
				zap.String("family", string(family)),
				zap.String("pattern", pattern),
				zap.Error(err))
		}
	}
}

func (f *FanoutEngine) wipeFamily(family types.EntityFamily) {
	for _, pattern := range FamilyPatterns(family) {
		if err := f.client.InvalidatePattern(pattern); err != nil {
			f.logger.Warn("fan-out family wipe failed",
				zap.String("family", string(family)),
				zap.String("pattern", pattern),
				zap.Error(err))
		}
	}
}

// invalidateCrossFamily clears the dependent family's list and count
// slots, both global and role-scoped. Entity detail keys of the
// dependent family stay: they do not embed foreign data.
func (f *FanoutEngine) invalidateCrossFamily(family types.EntityFamily) {
	if err := f.client.Del(ListKey(family), CountKey(family)); err != nil {
		f.logger.Warn("cross-family key deletion failed",
			zap.String("family", string(family)),
			zap.Error(err))
	}

	f.invalidateScopes(family)
}
