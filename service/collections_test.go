package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

func TestCollectionCreateFlow(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	created, err := svc.Create(context.Background(), &types.Collection{
		Slug:  "summer-sale",
		Title: "Summer Sale",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// The committed snapshot is cached under both identities.
	data, found := h.client.Get("collection:id:" + created.ID)
	require.True(t, found)

	var cached types.Collection
	require.NoError(t, utils.Unmarshal(data, &cached))
	assert.Equal(t, "Summer Sale", cached.Title)

	assert.True(t, h.client.has("collection:summer-sale"))
}

func TestCollectionCreateRejectsTakenSlug(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	_, err := svc.Create(context.Background(), &types.Collection{Slug: "dup", Title: "A"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &types.Collection{Slug: "dup", Title: "B"})
	assert.ErrorIs(t, err, types.ErrEntitySlugTaken)
}

func TestCollectionCreateRevertOnCommitFailure(t *testing.T) {
	h := newTestHarness()
	h.store.failCreates = true
	svc := h.collections()

	_, err := svc.Create(context.Background(), &types.Collection{
		ID:    "c1",
		Slug:  "summer-sale",
		Title: "Summer Sale",
	})
	require.Error(t, err)

	// The speculative write must not survive the failed commit.
	assert.False(t, h.client.has("collection:id:c1"))
}

func TestCollectionUpdateInvalidatesOldSlug(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	created, err := svc.Create(context.Background(), &types.Collection{Slug: "old-slug", Title: "T"})
	require.NoError(t, err)
	require.True(t, h.client.has("collection:old-slug"))

	created.Slug = "new-slug"
	updated, err := svc.Update(context.Background(), created)
	require.NoError(t, err)

	assert.False(t, h.client.has("collection:old-slug"), "renamed slug must not leave a stale detail key")
	assert.True(t, h.client.has("collection:new-slug"))
	assert.True(t, h.client.has("collection:id:"+updated.ID))
}

func TestCollectionUpdateRevertOnCommitFailure(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	created, err := svc.Create(context.Background(), &types.Collection{Slug: "s", Title: "Original"})
	require.NoError(t, err)

	h.store.failUpdates = true
	created.Title = "Speculative"
	_, err = svc.Update(context.Background(), created)
	require.Error(t, err)

	// The optimistic snapshot was reverted; a fresh read repopulates
	// from the unchanged source of truth.
	assert.False(t, h.client.has("collection:id:"+created.ID))

	fetched, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", fetched.Title)
}

func TestCollectionDeleteFlow(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	created, err := svc.Create(context.Background(), &types.Collection{Slug: "s", Title: "T"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	assert.False(t, h.client.has("collection:id:"+created.ID))
	assert.False(t, h.client.has("collection:s"))

	_, err = svc.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, types.ErrEntityNotFound)
}

func TestCollectionMutationInvalidatesListSlots(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	// Warm the admin list slot.
	_, err := svc.List(context.Background(), types.AdminScope())
	require.NoError(t, err)
	require.True(t, h.client.has("collections:admin:all"))

	_, err = svc.Create(context.Background(), &types.Collection{Slug: "s", Title: "T"})
	require.NoError(t, err)

	assert.False(t, h.client.has("collections:admin:all"))

	// The next list read sees the new collection.
	items, err := svc.List(context.Background(), types.AdminScope())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCollectionMutationInvalidatesProductLists(t *testing.T) {
	h := newTestHarness()

	_, err := h.products().List(context.Background(), types.AdminScope())
	require.NoError(t, err)
	require.True(t, h.client.has("products:admin:all"))

	_, err = h.collections().Create(context.Background(), &types.Collection{Slug: "s", Title: "T"})
	require.NoError(t, err)

	assert.False(t, h.client.has("products:admin:all"),
		"product listings embed collection titles and must be invalidated")
}

func TestCollectionReadsAreCacheAside(t *testing.T) {
	h := newTestHarness()
	svc := h.collections()

	created, err := svc.Create(context.Background(), &types.Collection{Slug: "s", Title: "T"})
	require.NoError(t, err)

	// Remove from the store entirely; the cached snapshot still serves.
	h.store.mu.Lock()
	delete(h.store.collections, created.ID)
	h.store.mu.Unlock()

	fetched, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", fetched.Title)
}

func TestCollectionCreateNil(t *testing.T) {
	h := newTestHarness()

	_, err := h.collections().Create(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestCollectionUpdateRequiresID(t *testing.T) {
	h := newTestHarness()

	_, err := h.collections().Update(context.Background(), &types.Collection{Slug: "s"})
	assert.ErrorIs(t, err, types.ErrEntityIDEmpty)
}
