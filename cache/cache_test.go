package cache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saiset-co/sai-storecache/types"
)

type nopLogger struct{}

func (nopLogger) Error(msg string, fields ...zap.Field)                        {}
func (nopLogger) ErrorWithErrStack(msg string, err error, fields ...zap.Field) {}
func (nopLogger) Warn(msg string, fields ...zap.Field)                         {}
func (nopLogger) Info(msg string, fields ...zap.Field)                         {}
func (nopLogger) Debug(msg string, fields ...zap.Field)                        {}
func (nopLogger) Log(lvl zapcore.Level, msg string, fields ...zap.Field)       {}

// fakeClient is an in-memory stand-in for the key-value adapter. Set
// failSets/failGets to exercise degraded-cache paths.
type fakeClient struct {
	mu       sync.Mutex
	data     map[string][]byte
	failSets bool
	failGets bool
	setCalls int
	getCalls int
	stats    *types.CacheStats
	statsErr error
	running  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		data:    make(map[string][]byte),
		running: true,
	}
}

func (f *fakeClient) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.failGets {
		return nil, false
	}

	value, found := f.data[key]
	return value, found
}

func (f *fakeClient) GetWithRetry(key string, attempts int) ([]byte, bool) {
	return f.Get(key)
}

func (f *fakeClient) Set(key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	if f.failSets {
		return types.ErrCacheOperationFailed
	}

	f.data[key] = value
	return nil
}

func (f *fakeClient) SetWithRetry(key string, value []byte, ttl time.Duration, attempts int) error {
	return f.Set(key, value, ttl)
}

func (f *fakeClient) Del(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeClient) InvalidatePattern(pattern string) error {
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

func (f *fakeClient) MGet(keys ...string) [][]byte {
	results := make([][]byte, len(keys))
	for i, key := range keys {
		if value, found := f.Get(key); found {
			results[i] = value
		}
	}
	return results
}

func (f *fakeClient) MSet(entries map[string][]byte, ttl time.Duration) error {
	for key, value := range entries {
		if err := f.Set(key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeClient) Exists(key string) bool {
	_, found := f.Get(key)
	return found
}

func (f *fakeClient) Stats() (*types.CacheStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &types.CacheStats{TotalKeys: int64(len(f.data))}, nil
}

func (f *fakeClient) Start() error { f.running = true; return nil }
func (f *fakeClient) Stop() error  { f.running = false; return nil }
func (f *fakeClient) IsRunning() bool {
	return f.running
}

func (f *fakeClient) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, found := f.data[key]
	return found
}

func (f *fakeClient) put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = value
}

type fakeCounter struct {
	mu    sync.Mutex
	count float64
}

func (c *fakeCounter) Inc() {
	c.Add(1)
}

func (c *fakeCounter) Add(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count += value
}

func (c *fakeCounter) Get() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.count
}
