package types

import (
	"context"
)

// StoreManager fronts the relational source of truth. The cache layer
// only consumes it through per-family fetchers on cache miss and through
// committed entities handed back by mutations.
type StoreManager interface {
	LifecycleManager
	Collections() CollectionStore
	Products() ProductStore
	Invitations() InvitationStore
	Ping(ctx context.Context) error
}

type CollectionStore interface {
	GetByID(ctx context.Context, id string) (*Collection, error)
	GetBySlug(ctx context.Context, slug string) (*Collection, error)
	List(ctx context.Context, scope RoleScope) ([]Collection, error)
	Count(ctx context.Context, scope RoleScope) (int64, error)
	Create(ctx context.Context, c *Collection) (*Collection, error)
	Update(ctx context.Context, c *Collection) (*Collection, error)
	Delete(ctx context.Context, id string) error
}

type ProductStore interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, scope RoleScope) ([]Product, error)
	Count(ctx context.Context, scope RoleScope) (int64, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	SetStatus(ctx context.Context, id, status string) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type InvitationStore interface {
	GetByID(ctx context.Context, id string) (*VendorInvitation, error)
	List(ctx context.Context, scope RoleScope) ([]VendorInvitation, error)
	Count(ctx context.Context, scope RoleScope) (int64, error)
	Create(ctx context.Context, inv *VendorInvitation) (*VendorInvitation, error)
	SetStatus(ctx context.Context, id, status string) (*VendorInvitation, error)
	Delete(ctx context.Context, id string) error
}
