package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/types"
)

type nopLogger struct{}

func (nopLogger) Error(msg string, fields ...zap.Field)                        {}
func (nopLogger) ErrorWithErrStack(msg string, err error, fields ...zap.Field) {}
func (nopLogger) Warn(msg string, fields ...zap.Field)                         {}
func (nopLogger) Info(msg string, fields ...zap.Field)                         {}
func (nopLogger) Debug(msg string, fields ...zap.Field)                        {}
func (nopLogger) Log(lvl zapcore.Level, msg string, fields ...zap.Field)       {}

type fakeCacheClient struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCacheClient() *fakeCacheClient {
	return &fakeCacheClient{data: make(map[string][]byte)}
}

func (f *fakeCacheClient) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, found := f.data[key]
	return value, found
}

func (f *fakeCacheClient) GetWithRetry(key string, attempts int) ([]byte, bool) {
	return f.Get(key)
}

func (f *fakeCacheClient) Set(key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = value
	return nil
}

func (f *fakeCacheClient) SetWithRetry(key string, value []byte, ttl time.Duration, attempts int) error {
	return f.Set(key, value, ttl)
}

func (f *fakeCacheClient) Del(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCacheClient) InvalidatePattern(pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			delete(f.data, key)
		}
	}
	return nil
}

func (f *fakeCacheClient) MGet(keys ...string) [][]byte {
	results := make([][]byte, len(keys))
	for i, key := range keys {
		if value, found := f.Get(key); found {
			results[i] = value
		}
	}
	return results
}

func (f *fakeCacheClient) MSet(entries map[string][]byte, ttl time.Duration) error {
	for key, value := range entries {
		_ = f.Set(key, value, ttl)
	}
	return nil
}

func (f *fakeCacheClient) Exists(key string) bool {
	_, found := f.Get(key)
	return found
}

func (f *fakeCacheClient) Stats() (*types.CacheStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &types.CacheStats{TotalKeys: int64(len(f.data))}, nil
}

func (f *fakeCacheClient) Start() error    { return nil }
func (f *fakeCacheClient) Stop() error     { return nil }
func (f *fakeCacheClient) IsRunning() bool { return true }

func (f *fakeCacheClient) has(key string) bool {
	_, found := f.Get(key)
	return found
}

// fakeStore is a map-backed StoreManager; failCreates/failUpdates force
// commit failures to exercise revert paths.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string]*types.Collection
	products    map[string]*types.Product
	invitations map[string]*types.VendorInvitation
	failCreates bool
	failUpdates bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: make(map[string]*types.Collection),
		products:    make(map[string]*types.Product),
		invitations: make(map[string]*types.VendorInvitation),
	}
}

func (s *fakeStore) Start() error                   { return nil }
func (s *fakeStore) Stop() error                    { return nil }
func (s *fakeStore) IsRunning() bool                { return true }
func (s *fakeStore) Ping(ctx context.Context) error { return nil }

func (s *fakeStore) Collections() types.CollectionStore { return &fakeCollectionStore{s} }
func (s *fakeStore) Products() types.ProductStore       { return &fakeProductStore{s} }
func (s *fakeStore) Invitations() types.InvitationStore { return &fakeInvitationStore{s} }

type fakeCollectionStore struct{ s *fakeStore }

func (f *fakeCollectionStore) GetByID(ctx context.Context, id string) (*types.Collection, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if c, found := f.s.collections[id]; found {
		clone := *c
		return &clone, nil
	}
	return nil, types.ErrEntityNotFound
}

func (f *fakeCollectionStore) GetBySlug(ctx context.Context, slug string) (*types.Collection, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, c := range f.s.collections {
		if c.Slug == slug {
			clone := *c
			return &clone, nil
		}
	}
	return nil, types.ErrEntityNotFound
}

func (f *fakeCollectionStore) List(ctx context.Context, scope types.RoleScope) ([]types.Collection, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []types.Collection
	for _, c := range f.s.collections {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCollectionStore) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	return int64(len(f.s.collections)), nil
}

func (f *fakeCollectionStore) Create(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.failCreates {
		return nil, types.ErrOperationFailed
	}

	clone := *c
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	f.s.collections[clone.ID] = &clone

	result := clone
	return &result, nil
}

func (f *fakeCollectionStore) Update(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.failUpdates {
		return nil, types.ErrOperationFailed
	}
	if _, found := f.s.collections[c.ID]; !found {
		return nil, types.ErrEntityNotFound
	}

	clone := *c
	clone.UpdatedAt = time.Now().UTC()
	f.s.collections[clone.ID] = &clone

	result := clone
	return &result, nil
}

func (f *fakeCollectionStore) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, found := f.s.collections[id]; !found {
		return types.ErrEntityNotFound
	}
	delete(f.s.collections, id)
	return nil
}

type fakeProductStore struct{ s *fakeStore }

func (f *fakeProductStore) GetByID(ctx context.Context, id string) (*types.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if p, found := f.s.products[id]; found {
		clone := *p
		return &clone, nil
	}
	return nil, types.ErrEntityNotFound
}

func (f *fakeProductStore) GetBySlug(ctx context.Context, slug string) (*types.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	for _, p := range f.s.products {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, types.ErrEntityNotFound
}

func (f *fakeProductStore) List(ctx context.Context, scope types.RoleScope) ([]types.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []types.Product
	for _, p := range f.s.products {
		if scope.Kind == types.RoleVendor && p.VendorID != scope.ID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductStore) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	items, _ := f.List(ctx, scope)
	return int64(len(items)), nil
}

func (f *fakeProductStore) Create(ctx context.Context, p *types.Product) (*types.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.failCreates {
		return nil, types.ErrOperationFailed
	}

	clone := *p
	f.s.products[clone.ID] = &clone

	result := clone
	return &result, nil
}

func (f *fakeProductStore) Update(ctx context.Context, p *types.Product) (*types.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.failUpdates {
		return nil, types.ErrOperationFailed
	}
	if _, found := f.s.products[p.ID]; !found {
		return nil, types.ErrEntityNotFound
	}

	clone := *p
	f.s.products[clone.ID] = &clone

	result := clone
	return &result, nil
}

func (f *fakeProductStore) SetStatus(ctx context.Context, id, status string) (*types.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	p, found := f.s.products[id]
	if !found {
		return nil, types.ErrEntityNotFound
	}

	p.Status = status
	clone := *p
	return &clone, nil
}

func (f *fakeProductStore) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, found := f.s.products[id]; !found {
		return types.ErrEntityNotFound
	}
	delete(f.s.products, id)
	return nil
}

type fakeInvitationStore struct{ s *fakeStore }

func (f *fakeInvitationStore) GetByID(ctx context.Context, id string) (*types.VendorInvitation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if inv, found := f.s.invitations[id]; found {
		clone := *inv
		return &clone, nil
	}
	return nil, types.ErrEntityNotFound
}

func (f *fakeInvitationStore) List(ctx context.Context, scope types.RoleScope) ([]types.VendorInvitation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var out []types.VendorInvitation
	for _, inv := range f.s.invitations {
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeInvitationStore) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	items, _ := f.List(ctx, scope)
	return int64(len(items)), nil
}

func (f *fakeInvitationStore) Create(ctx context.Context, inv *types.VendorInvitation) (*types.VendorInvitation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.failCreates {
		return nil, types.ErrOperationFailed
	}

	clone := *inv
	if clone.Status == "" {
		clone.Status = types.InvitationPending
	}
	f.s.invitations[clone.ID] = &clone

	result := clone
	return &result, nil
}

func (f *fakeInvitationStore) SetStatus(ctx context.Context, id, status string) (*types.VendorInvitation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	inv, found := f.s.invitations[id]
	if !found {
		return nil, types.ErrEntityNotFound
	}

	inv.Status = status
	clone := *inv
	return &clone, nil
}

func (f *fakeInvitationStore) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if _, found := f.s.invitations[id]; !found {
		return types.ErrEntityNotFound
	}
	delete(f.s.invitations, id)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (n *fakeNotifier) Publish(topic string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.topics = append(n.topics, topic)
	return nil
}

func (n *fakeNotifier) Start() error    { return nil }
func (n *fakeNotifier) Stop() error     { return nil }
func (n *fakeNotifier) IsRunning() bool { return true }

type testHarness struct {
	client     *fakeCacheClient
	store      *fakeStore
	queries    *cache.ScopedQueryCache
	optimistic *cache.OptimisticCoordinator
	fanout     *cache.FanoutEngine
	notifier   *fakeNotifier
}

func newTestHarness() *testHarness {
	client := newFakeCacheClient()
	store := newFakeStore()
	monitor := cache.NewMonitor(nopLogger{}, nil)
	fanout := cache.NewFanoutEngine(nopLogger{}, client, nil)

	return &testHarness{
		client:     client,
		store:      store,
		queries:    cache.NewScopedQueryCache(nopLogger{}, client, monitor),
		optimistic: cache.NewOptimisticCoordinator(nopLogger{}, client, fanout),
		fanout:     fanout,
		notifier:   &fakeNotifier{},
	}
}

func (h *testHarness) collections() *CollectionService {
	return NewCollectionService(nopLogger{}, h.store, h.queries, h.optimistic, h.fanout)
}

func (h *testHarness) products() *ProductService {
	return NewProductService(nopLogger{}, h.store, h.queries, h.optimistic, h.fanout)
}

func (h *testHarness) invitations() *InvitationService {
	return NewInvitationService(nopLogger{}, h.store, h.queries, h.optimistic, h.fanout, h.notifier)
}
