package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/types"
)

type ProductService struct {
	logger     types.Logger
	store      types.StoreManager
	queries    *cache.ScopedQueryCache
	optimistic *cache.OptimisticCoordinator
	fanout     *cache.FanoutEngine
}

func NewProductService(logger types.Logger, store types.StoreManager, queries *cache.ScopedQueryCache, optimistic *cache.OptimisticCoordinator, fanout *cache.FanoutEngine) *ProductService {
	return &ProductService{
		logger:     logger,
		store:      store,
		queries:    queries,
		optimistic: optimistic,
		fanout:     fanout,
	}
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*types.Product, error) {
	key := cache.IDKey(types.FamilyProduct, id)
	return cache.FetchEntity(ctx, s.queries, key, cache.FamilyTTL(types.FamilyProduct), func(ctx context.Context) (*types.Product, error) {
		return s.store.Products().GetByID(ctx, id)
	})
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*types.Product, error) {
	key := cache.SlugKey(types.FamilyProduct, slug)
	return cache.FetchEntity(ctx, s.queries, key, cache.FamilyTTL(types.FamilyProduct), func(ctx context.Context) (*types.Product, error) {
		return s.store.Products().GetBySlug(ctx, slug)
	})
}

func (s *ProductService) List(ctx context.Context, scope types.RoleScope) ([]types.Product, error) {
	return cache.FetchList(ctx, s.queries, types.FamilyProduct, scope, func(ctx context.Context) ([]types.Product, error) {
		return s.store.Products().List(ctx, scope)
	})
}

func (s *ProductService) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	return cache.FetchCount(ctx, s.queries, types.FamilyProduct, scope, func(ctx context.Context) (int64, error) {
		return s.store.Products().Count(ctx, scope)
	})
}

func (s *ProductService) Create(ctx context.Context, p *types.Product) (*types.Product, error) {
	if p == nil {
		return nil, types.ErrInvalidParameter
	}

	if p.Slug != "" {
		if existing, err := s.store.Products().GetBySlug(ctx, p.Slug); err == nil && existing != nil {
			return nil, types.Errorf(types.ErrEntitySlugTaken, "slug: %s", p.Slug)
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.optimistic.ApplyOptimistic(p, cache.OpCreate)

	committed, err := s.store.Products().Create(ctx, p)
	if err != nil {
		s.optimistic.Revert(types.FamilyProduct, p.ID, p.Slug)
		return nil, err
	}

	s.fanout.Invalidate(types.NewProductEvent(committed.ID, committed.Slug))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Product created",
		zap.String("id", committed.ID),
		zap.String("slug", committed.Slug),
		zap.String("vendor_id", committed.VendorID))

	return committed, nil
}

func (s *ProductService) Update(ctx context.Context, p *types.Product) (*types.Product, error) {
	if p == nil || p.ID == "" {
		return nil, types.ErrEntityIDEmpty
	}

	prev, err := s.store.Products().GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	s.optimistic.ApplyOptimistic(p, cache.OpUpdate)

	committed, err := s.store.Products().Update(ctx, p)
	if err != nil {
		s.optimistic.Revert(types.FamilyProduct, p.ID, p.Slug)
		return nil, err
	}

	if prev.Slug != "" && prev.Slug != committed.Slug {
		s.fanout.Invalidate(types.NewProductEvent(committed.ID, prev.Slug))
	}

	s.fanout.Invalidate(types.NewProductEvent(committed.ID, committed.Slug))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Product updated",
		zap.String("id", committed.ID),
		zap.String("slug", committed.Slug))

	return committed, nil
}

func (s *ProductService) SetStatus(ctx context.Context, id, status string) (*types.Product, error) {
	committed, err := s.store.Products().SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.fanout.Invalidate(types.NewProductEvent(committed.ID, committed.Slug))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Product status changed",
		zap.String("id", committed.ID),
		zap.String("status", committed.Status))

	return committed, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	prev, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.optimistic.ApplyOptimistic(prev, cache.OpDelete)

	if err := s.store.Products().Delete(ctx, id); err != nil {
		s.optimistic.Revert(types.FamilyProduct, id, prev.Slug)
		return err
	}

	s.fanout.Invalidate(types.NewProductEvent(prev.ID, prev.Slug))

	s.logger.Info("Product deleted",
		zap.String("id", prev.ID),
		zap.String("slug", prev.Slug))

	return nil
}
