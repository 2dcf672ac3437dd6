package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

func newTestCoordinator(client *fakeClient) *OptimisticCoordinator {
	fanout := NewFanoutEngine(nopLogger{}, client, nil)
	return NewOptimisticCoordinator(nopLogger{}, client, fanout)
}

func TestApplyOptimisticCreateWritesSnapshot(t *testing.T) {
	client := newFakeClient()
	coordinator := newTestCoordinator(client)

	collection := &types.Collection{ID: "c1", Slug: "summer", Title: "Summer"}
	result := coordinator.ApplyOptimistic(collection, OpCreate)

	require.True(t, result.Success)
	require.True(t, client.has("collection:id:c1"))
	require.True(t, client.has("collection:summer"))

	data, _ := client.Get("collection:id:c1")
	var cached types.Collection
	require.NoError(t, utils.Unmarshal(data, &cached))
	assert.Equal(t, "Summer", cached.Title)
}

func TestApplyOptimisticInvalidatesListSlots(t *testing.T) {
	client := newFakeClient()
	client.put("collections:all", []byte("x"))
	client.put("collections:count", []byte("x"))
	client.put("collections:admin:all", []byte("x"))
	client.put("collections:vendor:v1", []byte("x"))

	coordinator := newTestCoordinator(client)
	result := coordinator.ApplyOptimistic(&types.Collection{ID: "c1", Slug: "summer"}, OpUpdate)

	require.True(t, result.Success)
	assert.False(t, client.has("collections:all"))
	assert.False(t, client.has("collections:count"))
	assert.False(t, client.has("collections:admin:all"))
	assert.False(t, client.has("collections:vendor:v1"))
}

func TestApplyOptimisticDeleteRemovesDetailKeys(t *testing.T) {
	client := newFakeClient()
	client.put("collection:id:c1", []byte("x"))
	client.put("collection:summer", []byte("x"))

	coordinator := newTestCoordinator(client)
	result := coordinator.ApplyOptimistic(&types.Collection{ID: "c1", Slug: "summer"}, OpDelete)

	require.True(t, result.Success)
	assert.False(t, client.has("collection:id:c1"))
	assert.False(t, client.has("collection:summer"))
}

func TestApplyOptimisticRejectsEmptyEntity(t *testing.T) {
	client := newFakeClient()
	coordinator := newTestCoordinator(client)

	result := coordinator.ApplyOptimistic(nil, OpCreate)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, types.ErrEntityIDEmpty)

	result = coordinator.ApplyOptimistic(&types.Collection{}, OpCreate)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, types.ErrEntityIDEmpty)
}

func TestApplyOptimisticRejectsUnknownOperation(t *testing.T) {
	client := newFakeClient()
	coordinator := newTestCoordinator(client)

	result := coordinator.ApplyOptimistic(&types.Collection{ID: "c1"}, Operation("upsert"))
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, types.ErrInvalidParameter)
}

func TestApplyOptimisticFailureNeverPanics(t *testing.T) {
	client := newFakeClient()
	client.failSets = true
	coordinator := newTestCoordinator(client)

	result := coordinator.ApplyOptimistic(&types.Collection{ID: "c1", Slug: "summer"}, OpCreate)

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestOptimisticFailureAlerting(t *testing.T) {
	client := newFakeClient()
	client.failSets = true

	counter := &fakeCounter{}
	coordinator := newTestCoordinator(client).WithAlerting(counter, 2)

	entity := &types.Collection{ID: "c1", Slug: "summer"}
	coordinator.ApplyOptimistic(entity, OpCreate)
	coordinator.ApplyOptimistic(entity, OpCreate)
	coordinator.ApplyOptimistic(entity, OpCreate)

	assert.Equal(t, 3.0, counter.Get())
}

func TestOptimisticFailureCounterResetsOnSuccess(t *testing.T) {
	client := newFakeClient()
	counter := &fakeCounter{}
	coordinator := newTestCoordinator(client).WithAlerting(counter, 2)

	entity := &types.Collection{ID: "c1", Slug: "summer"}

	client.failSets = true
	coordinator.ApplyOptimistic(entity, OpCreate)
	assert.Equal(t, int64(1), coordinator.failures)

	client.failSets = false
	coordinator.ApplyOptimistic(entity, OpCreate)
	assert.Equal(t, int64(0), coordinator.failures)
}

func TestRevertClearsOptimisticState(t *testing.T) {
	client := newFakeClient()
	coordinator := newTestCoordinator(client)

	collection := &types.Collection{ID: "c1", Slug: "summer", Title: "Speculative"}
	require.True(t, coordinator.ApplyOptimistic(collection, OpCreate).Success)
	require.True(t, client.has("collection:id:c1"))
	require.True(t, client.has("collection:summer"))

	result := coordinator.Revert(types.FamilyCollection, "c1", "summer")

	require.True(t, result.Success)
	assert.False(t, client.has("collection:id:c1"), "no stale optimistic value may survive a revert")
	assert.False(t, client.has("collection:summer"))
}

func TestRevertRejectsEmptyIdentity(t *testing.T) {
	client := newFakeClient()
	coordinator := newTestCoordinator(client)

	result := coordinator.Revert(types.FamilyCollection, "", "")
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, types.ErrEntityIDEmpty)
}
