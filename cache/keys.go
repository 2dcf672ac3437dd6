package cache

import (
	"fmt"

	"github.com/saiset-co/sai-storecache/types"
)

// Key and tag construction is pure and deterministic: two different
// entities never map to the same key, and the same entity always maps to
// the same key regardless of caller. Uniqueness is enforced by
// construction, not runtime checks.
//
// Entity keys use the singular family namespace (collection:id:123,
// collection:summer-sale); list and count slots use the plural namespace
// (collections:all, collections:count, products:vendor:V1).

func familyNamespace(family types.EntityFamily) string {
	return string(family) + "s"
}

func IDKey(family types.EntityFamily, id string) string {
	return fmt.Sprintf("%s:id:%s", family, id)
}

func SlugKey(family types.EntityFamily, slug string) string {
	return fmt.Sprintf("%s:%s", family, slug)
}

func ListKey(family types.EntityFamily) string {
	return familyNamespace(family) + ":all"
}

func CountKey(family types.EntityFamily) string {
	return familyNamespace(family) + ":count"
}

// ScopedListKey namespaces list reads by the requester's role so an
// admin's full list and a vendor's filtered list never share a cache
// slot. Anonymous access falls back to the unscoped global key.
func ScopedListKey(family types.EntityFamily, scope types.RoleScope) string {
	ns := familyNamespace(family)

	switch scope.Kind {
	case types.RoleAdmin, types.RoleDev:
		return ns + ":admin:all"
	case types.RoleVendor:
		return fmt.Sprintf("%s:vendor:%s", ns, scope.ID)
	case types.RoleUser:
		return fmt.Sprintf("%s:user:%s", ns, scope.ID)
	default:
		return ListKey(family)
	}
}

func ScopedCountKey(family types.EntityFamily, scope types.RoleScope) string {
	ns := familyNamespace(family)

	switch scope.Kind {
	case types.RoleVendor:
		return fmt.Sprintf("%s:vendor:%s:count", ns, scope.ID)
	case types.RoleUser:
		return fmt.Sprintf("%s:user:%s:count", ns, scope.ID)
	default:
		return CountKey(family)
	}
}

// ScopePatterns covers every live role-scoped slot of a family.
// Enumerating each user and vendor id is impractical, so fan-out relies
// on pattern invalidation here.
func ScopePatterns(family types.EntityFamily) []string {
	ns := familyNamespace(family)
	return []string{
		ns + ":user:*",
		ns + ":vendor:*",
		ns + ":admin:*",
	}
}

// FamilyPatterns wipes the whole namespace of a family, both singular
// entity keys and plural list/count slots.
func FamilyPatterns(family types.EntityFamily) []string {
	return []string{
		string(family) + ":*",
		familyNamespace(family) + ":*",
	}
}

// FamilyTags is the static output-cache tag set for a family, including
// cross-entity dependents: product listings embed collection titles, so
// collection mutations implicate product and media tags.
func FamilyTags(family types.EntityFamily) []string {
	switch family {
	case types.FamilyCollection:
		return []string{"collection", "collections", "products", "media"}
	case types.FamilyProduct:
		return []string{"product", "products", "media"}
	case types.FamilyInvitation:
		return []string{"invitation", "invitations", "vendors"}
	default:
		return []string{string(family), familyNamespace(family)}
	}
}

func IDTag(family types.EntityFamily, id string) string {
	return fmt.Sprintf("%s-by-id:%s", family, id)
}

func SlugTag(family types.EntityFamily, slug string) string {
	return fmt.Sprintf("%s-by-slug:%s", family, slug)
}

// FamilyRoutes lists the rendered routes whose output cache a mutation
// invalidates: the family's list pages plus the detail page when a slug
// is known.
func FamilyRoutes(family types.EntityFamily, slug string) []string {
	ns := familyNamespace(family)

	routes := []string{
		"/" + ns,
		"/admin/" + ns,
	}

	if slug != "" {
		routes = append(routes, fmt.Sprintf("/%s/%s", ns, slug))
	}

	return routes
}

// crossFamilies resolves the entity families whose key-value entries a
// mutation also invalidates. Collection titles are embedded in product
// listings, so collection mutations fan out to product list slots.
func crossFamilies(family types.EntityFamily) []types.EntityFamily {
	switch family {
	case types.FamilyCollection:
		return []types.EntityFamily{types.FamilyProduct}
	default:
		return nil
	}
}
