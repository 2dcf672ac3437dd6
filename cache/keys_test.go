package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saiset-co/sai-storecache/types"
)

func TestEntityKeys(t *testing.T) {
	assert.Equal(t, "collection:id:c1", IDKey(types.FamilyCollection, "c1"))
	assert.Equal(t, "collection:summer-sale", SlugKey(types.FamilyCollection, "summer-sale"))
	assert.Equal(t, "product:id:p1", IDKey(types.FamilyProduct, "p1"))
	assert.Equal(t, "invitation:id:i1", IDKey(types.FamilyInvitation, "i1"))
}

func TestListAndCountKeys(t *testing.T) {
	assert.Equal(t, "collections:all", ListKey(types.FamilyCollection))
	assert.Equal(t, "collections:count", CountKey(types.FamilyCollection))
	assert.Equal(t, "products:all", ListKey(types.FamilyProduct))
	assert.Equal(t, "invitations:count", CountKey(types.FamilyInvitation))
}

func TestKeysAreDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, IDKey(types.FamilyProduct, "p1"), IDKey(types.FamilyProduct, "p1"))
		assert.Equal(t, ScopedListKey(types.FamilyProduct, types.VendorScope("v1")),
			ScopedListKey(types.FamilyProduct, types.VendorScope("v1")))
	}
}

func TestScopedListKey(t *testing.T) {
	cases := []struct {
		name     string
		scope    types.RoleScope
		expected string
	}{
		{"admin", types.AdminScope(), "products:admin:all"},
		{"dev shares admin slot", types.DevScope(), "products:admin:all"},
		{"vendor", types.VendorScope("v1"), "products:vendor:v1"},
		{"user", types.UserScope("u1"), "products:user:u1"},
		{"anonymous falls back to global", types.AnonymousScope(), "products:all"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ScopedListKey(types.FamilyProduct, tc.scope))
		})
	}
}

func TestScopedListKeyIsolation(t *testing.T) {
	admin := ScopedListKey(types.FamilyProduct, types.AdminScope())
	vendorA := ScopedListKey(types.FamilyProduct, types.VendorScope("a"))
	vendorB := ScopedListKey(types.FamilyProduct, types.VendorScope("b"))
	user := ScopedListKey(types.FamilyProduct, types.UserScope("a"))

	assert.NotEqual(t, admin, vendorA)
	assert.NotEqual(t, vendorA, vendorB)
	assert.NotEqual(t, vendorA, user)
}

func TestScopedCountKey(t *testing.T) {
	assert.Equal(t, "products:vendor:v1:count", ScopedCountKey(types.FamilyProduct, types.VendorScope("v1")))
	assert.Equal(t, "products:user:u1:count", ScopedCountKey(types.FamilyProduct, types.UserScope("u1")))
	assert.Equal(t, "products:count", ScopedCountKey(types.FamilyProduct, types.AdminScope()))
	assert.Equal(t, "products:count", ScopedCountKey(types.FamilyProduct, types.AnonymousScope()))
}

func TestScopePatterns(t *testing.T) {
	patterns := ScopePatterns(types.FamilyCollection)

	assert.ElementsMatch(t, []string{
		"collections:user:*",
		"collections:vendor:*",
		"collections:admin:*",
	}, patterns)
}

func TestFamilyPatterns(t *testing.T) {
	patterns := FamilyPatterns(types.FamilyCollection)

	assert.ElementsMatch(t, []string{"collection:*", "collections:*"}, patterns)
}

func TestFamilyTags(t *testing.T) {
	assert.Contains(t, FamilyTags(types.FamilyCollection), "products")
	assert.Contains(t, FamilyTags(types.FamilyProduct), "media")
	assert.Contains(t, FamilyTags(types.FamilyInvitation), "vendors")
	assert.NotContains(t, FamilyTags(types.FamilyProduct), "collections")
}

func TestEntityTags(t *testing.T) {
	assert.Equal(t, "collection-by-id:c1", IDTag(types.FamilyCollection, "c1"))
	assert.Equal(t, "collection-by-slug:summer", SlugTag(types.FamilyCollection, "summer"))
}

func TestFamilyRoutes(t *testing.T) {
	routes := FamilyRoutes(types.FamilyCollection, "summer")
	assert.ElementsMatch(t, []string{"/collections", "/admin/collections", "/collections/summer"}, routes)

	routes = FamilyRoutes(types.FamilyCollection, "")
	assert.ElementsMatch(t, []string{"/collections", "/admin/collections"}, routes)
}

func TestCrossFamilies(t *testing.T) {
	assert.Equal(t, []types.EntityFamily{types.FamilyProduct}, crossFamilies(types.FamilyCollection))
	assert.Nil(t, crossFamilies(types.FamilyProduct))
	assert.Nil(t, crossFamilies(types.FamilyInvitation))
}

func TestFamilyTTL(t *testing.T) {
	assert.Equal(t, types.TTLLong, FamilyTTL(types.FamilyCollection))
	assert.Equal(t, types.TTLShort, FamilyTTL(types.FamilyInvitation))
	assert.Equal(t, types.TTLMedium, FamilyTTL(types.FamilyProduct))
}
