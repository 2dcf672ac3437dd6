package types

import (
	"time"
)

type EntityFamily string

const (
	FamilyCollection EntityFamily = "collection"
	FamilyProduct    EntityFamily = "product"
	FamilyInvitation EntityFamily = "invitation"
)

type InvalidationScope string

const (
	ScopeSingle InvalidationScope = "single"
	ScopeAll    InvalidationScope = "all"
)

// InvalidationEvent is the unit of work driving fan-out invalidation.
// Events are built through the per-family constructors so that invalid
// family/selector combinations are unrepresentable.
type InvalidationEvent struct {
	Family EntityFamily
	ID     string
	Slug   string
	Scope  InvalidationScope
}

func NewCollectionEvent(id, slug string) InvalidationEvent {
	return InvalidationEvent{Family: FamilyCollection, ID: id, Slug: slug, Scope: ScopeSingle}
}

func NewProductEvent(id, slug string) InvalidationEvent {
	return InvalidationEvent{Family: FamilyProduct, ID: id, Slug: slug, Scope: ScopeSingle}
}

// NewInvitationEvent carries no slug: invitations are addressed by id only.
func NewInvitationEvent(id string) InvalidationEvent {
	return InvalidationEvent{Family: FamilyInvitation, ID: id, Scope: ScopeSingle}
}

// NewFamilyWipeEvent invalidates the entire namespace of a family.
func NewFamilyWipeEvent(family EntityFamily) InvalidationEvent {
	return InvalidationEvent{Family: family, Scope: ScopeAll}
}

type RoleKind string

const (
	RoleAdmin     RoleKind = "admin"
	RoleDev       RoleKind = "dev"
	RoleVendor    RoleKind = "vendor"
	RoleUser      RoleKind = "user"
	RoleAnonymous RoleKind = "anonymous"
)

// RoleScope is the access-control partition a cached list/count result is
// valid for. Admin and dev read the unscoped global slot; vendor and user
// reads are keyed by their identity so partitions never collide.
type RoleScope struct {
	Kind RoleKind
	ID   string
}

func AdminScope() RoleScope     { return RoleScope{Kind: RoleAdmin} }
func DevScope() RoleScope       { return RoleScope{Kind: RoleDev} }
func AnonymousScope() RoleScope { return RoleScope{Kind: RoleAnonymous} }

func VendorScope(vendorID string) RoleScope {
	return RoleScope{Kind: RoleVendor, ID: vendorID}
}

func UserScope(userID string) RoleScope {
	return RoleScope{Kind: RoleUser, ID: userID}
}

// CacheableEntity is what the optimistic coordinator needs from a
// committed (or about-to-commit) entity snapshot.
type CacheableEntity interface {
	EntityFamily() EntityFamily
	EntityID() string
	EntitySlug() string
}

type Collection struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Collection) EntityFamily() EntityFamily { return FamilyCollection }
func (c *Collection) EntityID() string           { return c.ID }
func (c *Collection) EntitySlug() string         { return c.Slug }

type Product struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	VendorID     string    `json:"vendor_id"`
	CollectionID string    `json:"collection_id,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Product) EntityFamily() EntityFamily { return FamilyProduct }
func (p *Product) EntityID() string           { return p.ID }
func (p *Product) EntitySlug() string         { return p.Slug }

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationRevoked  = "revoked"
)

type VendorInvitation struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	VendorName string    `json:"vendor_name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (i *VendorInvitation) EntityFamily() EntityFamily { return FamilyInvitation }
func (i *VendorInvitation) EntityID() string           { return i.ID }
func (i *VendorInvitation) EntitySlug() string         { return "" }
