package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/types"
)

// CollectionService runs every collection read through the role-scoped
// query cache and every mutation through the optimistic-then-commit
// sequence: speculative cache write, durable commit, fan-out
// invalidation, committed snapshot refresh. A failed commit reverts the
// speculative write by re-invalidating the entity identity.
type CollectionService struct {
	logger     types.Logger
	store      types.StoreManager
	queries    *cache.ScopedQueryCache
	optimistic *cache.OptimisticCoordinator
	fanout     *cache.FanoutEngine
}

func NewCollectionService(logger types.Logger, store types.StoreManager, queries *cache.ScopedQueryCache, optimistic *cache.OptimisticCoordinator, fanout *cache.FanoutEngine) *CollectionService {
	return &CollectionService{
		logger:     logger,
		store:      store,
		queries:    queries,
		optimistic: optimistic,
		fanout:     fanout,
	}
}

func (s *CollectionService) GetByID(ctx context.Context, id string) (*types.Collection, error) {
	key := cache.IDKey(types.FamilyCollection, id)
	return cache.FetchEntity(ctx, s.queries, key, cache.FamilyTTL(types.FamilyCollection), func(ctx context.Context) (*types.Collection, error) {
		return s.store.Collections().GetByID(ctx, id)
	})
}

func (s *CollectionService) GetBySlug(ctx context.Context, slug string) (*types.Collection, error) {
	key := cache.SlugKey(types.FamilyCollection, slug)
	return cache.FetchEntity(ctx, s.queries, key, cache.FamilyTTL(types.FamilyCollection), func(ctx context.Context) (*types.Collection, error) {
		return s.store.Collections().GetBySlug(ctx, slug)
	})
}

func (s *CollectionService) List(ctx context.Context, scope types.RoleScope) ([]types.Collection, error) {
	return cache.FetchList(ctx, s.queries, types.FamilyCollection, scope, func(ctx context.Context) ([]types.Collection, error) {
		return s.store.Collections().List(ctx, scope)
	})
}

func (s *CollectionService) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	return cache.FetchCount(ctx, s.queries, types.FamilyCollection, scope, func(ctx context.Context) (int64, error) {
		return s.store.Collections().Count(ctx, scope)
	})
}

func (s *CollectionService) Create(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	if c == nil {
		return nil, types.ErrInvalidParameter
	}

	if c.Slug != "" {
		if existing, err := s.store.Collections().GetBySlug(ctx, c.Slug); err == nil && existing != nil {
			return nil, types.Errorf(types.ErrEntitySlugTaken, "slug: %s", c.Slug)
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	s.optimistic.ApplyOptimistic(c, cache.OpCreate)

	committed, err := s.store.Collections().Create(ctx, c)
	if err != nil {
		s.optimistic.Revert(types.FamilyCollection, c.ID, c.Slug)
		return nil, err
	}

	s.fanout.Invalidate(types.NewCollectionEvent(committed.ID, committed.Slug))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Collection created",
		zap.String("id", committed.ID),
		zap.String("slug", committed.Slug))

	return committed, nil
}

func (s *CollectionService) Update(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	if c == nil || c.ID == "" {
		return nil, types.ErrEntityIDEmpty
	}

	prev, err := s.store.Collections().GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	s.optimistic.ApplyOptimistic(c, cache.OpUpdate)

	committed, err := s.store.Collections().Update(ctx, c)
	if err != nil {
		s.optimistic.Revert(types.FamilyCollection, c.ID, c.Slug)
		return nil, err
	}

	// A renamed slug leaves a stale detail key behind; invalidate the
	// old identity as well.
	if prev.Slug != "" && prev.Slug != committed.Slug {
		s.fanout.Invalidate(types.NewCollectionEvent(committed.ID, prev.Slug))
	}

	s.fanout.Invalidate(types.NewCollectionEvent(committed.ID, committed.Slug))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Collection updated",
		zap.String("id", committed.ID),
		zap.String("slug", committed.Slug))

	return committed, nil
}

func (s *CollectionService) Delete(ctx context.Context, id string) error {
	prev, err := s.store.Collections().GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.optimistic.ApplyOptimistic(prev, cache.OpDelete)

	if err := s.store.Collections().Delete(ctx, id); err != nil {
		s.optimistic.Revert(types.FamilyCollection, id, prev.Slug)
		return err
	}

	s.fanout.Invalidate(types.NewCollectionEvent(prev.ID, prev.Slug))

	s.logger.Info("Collection deleted",
		zap.String("id", prev.ID),
		zap.String("slug", prev.Slug))

	return nil
}
