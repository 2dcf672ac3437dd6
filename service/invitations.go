package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/types"
)

const invitationStatusTopic = "invitation.status_changed"

// InvitationService follows the same mutation sequence as the other
// families and additionally broadcasts status transitions on the
// notifier so other back-office nodes can react in real time. Publish
// failures are logged, never surfaced: the status change is already
// durable.
type InvitationService struct {
	logger     types.Logger
	store      types.StoreManager
	queries    *cache.ScopedQueryCache
	optimistic *cache.OptimisticCoordinator
	fanout     *cache.FanoutEngine
	notifier   types.Notifier
}

func NewInvitationService(logger types.Logger, store types.StoreManager, queries *cache.ScopedQueryCache, optimistic *cache.OptimisticCoordinator, fanout *cache.FanoutEngine, notifier types.Notifier) *InvitationService {
	return &InvitationService{
		logger:     logger,
		store:      store,
		queries:    queries,
		optimistic: optimistic,
		fanout:     fanout,
		notifier:   notifier,
	}
}

func (s *InvitationService) GetByID(ctx context.Context, id string) (*types.VendorInvitation, error) {
	key := cache.IDKey(types.FamilyInvitation, id)
	return cache.FetchEntity(ctx, s.queries, key, cache.FamilyTTL(types.FamilyInvitation), func(ctx context.Context) (*types.VendorInvitation, error) {
		return s.store.Invitations().GetByID(ctx, id)
	})
}

func (s *InvitationService) List(ctx context.Context, scope types.RoleScope) ([]types.VendorInvitation, error) {
	return cache.FetchList(ctx, s.queries, types.FamilyInvitation, scope, func(ctx context.Context) ([]types.VendorInvitation, error) {
		return s.store.Invitations().List(ctx, scope)
	})
}

func (s *InvitationService) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	return cache.FetchCount(ctx, s.queries, types.FamilyInvitation, scope, func(ctx context.Context) (int64, error) {
		return s.store.Invitations().Count(ctx, scope)
	})
}

func (s *InvitationService) Create(ctx context.Context, inv *types.VendorInvitation) (*types.VendorInvitation, error) {
	if inv == nil {
		return nil, types.ErrInvalidParameter
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	s.optimistic.ApplyOptimistic(inv, cache.OpCreate)

	committed, err := s.store.Invitations().Create(ctx, inv)
	if err != nil {
		s.optimistic.Revert(types.FamilyInvitation, inv.ID, "")
		return nil, err
	}

	s.fanout.Invalidate(types.NewInvitationEvent(committed.ID))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Invitation created",
		zap.String("id", committed.ID),
		zap.String("vendor_name", committed.VendorName))

	return committed, nil
}

func (s *InvitationService) Accept(ctx context.Context, id string) (*types.VendorInvitation, error) {
	return s.setStatus(ctx, id, types.InvitationAccepted)
}

func (s *InvitationService) Decline(ctx context.Context, id string) (*types.VendorInvitation, error) {
	return s.setStatus(ctx, id, types.InvitationDeclined)
}

func (s *InvitationService) Revoke(ctx context.Context, id string) (*types.VendorInvitation, error) {
	return s.setStatus(ctx, id, types.InvitationRevoked)
}

func (s *InvitationService) Delete(ctx context.Context, id string) error {
	prev, err := s.store.Invitations().GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.optimistic.ApplyOptimistic(prev, cache.OpDelete)

	if err := s.store.Invitations().Delete(ctx, id); err != nil {
		s.optimistic.Revert(types.FamilyInvitation, id, "")
		return err
	}

	s.fanout.Invalidate(types.NewInvitationEvent(prev.ID))

	s.logger.Info("Invitation deleted", zap.String("id", prev.ID))

	return nil
}

func (s *InvitationService) setStatus(ctx context.Context, id, status string) (*types.VendorInvitation, error) {
	committed, err := s.store.Invitations().SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.fanout.Invalidate(types.NewInvitationEvent(committed.ID))
	s.optimistic.ApplyOptimistic(committed, cache.OpUpdate)

	s.logger.Info("Invitation status changed",
		zap.String("id", committed.ID),
		zap.String("status", committed.Status))

	s.publishStatusChange(committed)

	return committed, nil
}

func (s *InvitationService) publishStatusChange(inv *types.VendorInvitation) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Publish(invitationStatusTopic, inv); err != nil {
		s.logger.Warn("Failed to publish invitation status change",
			zap.String("id", inv.ID),
			zap.String("status", inv.Status),
			zap.Error(err))
	}
}
