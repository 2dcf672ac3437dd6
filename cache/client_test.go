package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-storecache/types"
)

var errStoreDown = errors.New("connection refused")

// fakeCommander scripts the narrow slice of the store API the adapter
// talks to, recording every call for assertions.
type fakeCommander struct {
	mu        sync.Mutex
	values    map[string]string
	getErrs   int
	setErrs   int
	getCalls  int
	setCalls  int
	delKeys   []string
	scanKeys  []string
	lastKey   string
	pipeCalls int
	pipeErr   error
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{values: map[string]string{}}
}

func (f *fakeCommander) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	f.lastKey = key

	if f.getErrs > 0 {
		f.getErrs--
		return redis.NewStringResult("", errStoreDown)
	}

	value, found := f.values[key]
	if !found {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeCommander) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	f.lastKey = key

	if f.setErrs > 0 {
		f.setErrs--
		return redis.NewStatusResult("", errStoreDown)
	}

	if b, ok := value.([]byte); ok {
		f.values[key] = string(b)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommander) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delKeys = append(f.delKeys, keys...)
	for _, key := range keys {
		delete(f.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeCommander) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	return redis.NewScanCmdResult(f.scanKeys, 0, nil)
}

func (f *fakeCommander) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := make([]interface{}, len(keys))
	for i, key := range keys {
		if value, found := f.values[key]; found {
			values[i] = value
		}
	}
	return redis.NewSliceResult(values, nil)
}

func (f *fakeCommander) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, key := range keys {
		if _, found := f.values[key]; found {
			count++
		}
	}
	return redis.NewIntResult(count, nil)
}

func (f *fakeCommander) Info(ctx context.Context, section ...string) *redis.StringCmd {
	return redis.NewStringResult("used_memory_human:1.0M\nuptime_in_seconds:60\n", nil)
}

func (f *fakeCommander) DBSize(ctx context.Context) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	return redis.NewIntResult(int64(len(f.values)), nil)
}

func (f *fakeCommander) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommander) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pipeCalls++
	return nil, f.pipeErr
}

func (f *fakeCommander) Close() error { return nil }

func newTestRedisClient(commander *fakeCommander, prefix string) *RedisClient {
	redisConfig := &RedisConfig{KeyPrefix: prefix, ScanBatchSize: 100}
	cacheConfig := &types.CacheConfig{RetryAttempts: 3, RetryBackoff: time.Millisecond}

	return newRedisClient(context.Background(), nopLogger{}, redisConfig, commander, cacheConfig)
}

func TestClientGetHitAndMiss(t *testing.T) {
	commander := newFakeCommander()
	commander.values["collections:all"] = "payload"

	client := newTestRedisClient(commander, "")

	value, found := client.Get("collections:all")
	require.True(t, found)
	assert.Equal(t, []byte("payload"), value)

	_, found = client.Get("collections:missing")
	assert.False(t, found)
}

func TestClientGetDegradesOnStoreFailure(t *testing.T) {
	commander := newFakeCommander()
	commander.getErrs = 1

	client := newTestRedisClient(commander, "")

	value, found := client.Get("collections:all")
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestClientGetWithRetryRecovers(t *testing.T) {
	commander := newFakeCommander()
	commander.values["collections:all"] = "payload"
	commander.getErrs = 2

	client := newTestRedisClient(commander, "")

	value, found := client.GetWithRetry("collections:all", 3)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), value)
	assert.Equal(t, 3, commander.getCalls)
}

func TestClientGetWithRetryExhaustsToMiss(t *testing.T) {
	commander := newFakeCommander()
	commander.getErrs = 10

	client := newTestRedisClient(commander, "")

	value, found := client.GetWithRetry("collections:all", 3)
	assert.False(t, found)
	assert.Nil(t, value)
	assert.Equal(t, 3, commander.getCalls)
}

func TestClientCleanMissIsNotRetried(t *testing.T) {
	commander := newFakeCommander()

	client := newTestRedisClient(commander, "")

	_, found := client.GetWithRetry("collections:missing", 5)
	assert.False(t, found)
	assert.Equal(t, 1, commander.getCalls)
}

func TestClientSetWithRetryRecovers(t *testing.T) {
	commander := newFakeCommander()
	commander.setErrs = 2

	client := newTestRedisClient(commander, "")

	err := client.SetWithRetry("collections:all", []byte("payload"), time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, commander.setCalls)
	assert.Equal(t, "payload", commander.values["collections:all"])
}

func TestClientSetWithRetryExhausts(t *testing.T) {
	commander := newFakeCommander()
	commander.setErrs = 10

	client := newTestRedisClient(commander, "")

	err := client.SetWithRetry("collections:all", []byte("payload"), time.Minute, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 2, commander.setCalls)
}

func TestClientSetRejectsEmptyKey(t *testing.T) {
	client := newTestRedisClient(newFakeCommander(), "")

	err := client.Set("", []byte("x"), time.Minute)
	assert.ErrorIs(t, err, types.ErrCacheKeyEmpty)
}

func TestClientKeyPrefix(t *testing.T) {
	commander := newFakeCommander()
	client := newTestRedisClient(commander, "storecache")

	_ = client.Set("collections:all", []byte("x"), time.Minute)
	assert.Equal(t, "storecache:collections:all", commander.lastKey)

	client.Get("collections:all")
	assert.Equal(t, "storecache:collections:all", commander.lastKey)
}

func TestClientDelSkipsEmptyKeys(t *testing.T) {
	commander := newFakeCommander()
	commander.values["a"] = "1"

	client := newTestRedisClient(commander, "")

	require.NoError(t, client.Del("", "a", ""))
	assert.Equal(t, []string{"a"}, commander.delKeys)

	commander.delKeys = nil
	require.NoError(t, client.Del())
	assert.Empty(t, commander.delKeys)
}

func TestClientInvalidatePattern(t *testing.T) {
	commander := newFakeCommander()
	commander.scanKeys = []string{"collections:vendor:v1", "collections:vendor:v2"}
	commander.values["collections:vendor:v1"] = "1"
	commander.values["collections:vendor:v2"] = "2"

	client := newTestRedisClient(commander, "")

	require.NoError(t, client.InvalidatePattern("collections:vendor:*"))
	assert.ElementsMatch(t, []string{"collections:vendor:v1", "collections:vendor:v2"}, commander.delKeys)
}

func TestClientInvalidatePatternNoMatches(t *testing.T) {
	commander := newFakeCommander()

	client := newTestRedisClient(commander, "")

	require.NoError(t, client.InvalidatePattern("collections:vendor:*"))
	assert.Empty(t, commander.delKeys)

	require.NoError(t, client.InvalidatePattern(""))
}

func TestClientMGetAlignment(t *testing.T) {
	commander := newFakeCommander()
	commander.values["a"] = "1"
	commander.values["c"] = "3"

	client := newTestRedisClient(commander, "")

	results := client.MGet("a", "b", "c")
	require.Len(t, results, 3)
	assert.Equal(t, []byte("1"), results[0])
	assert.Nil(t, results[1])
	assert.Equal(t, []byte("3"), results[2])
}

func TestClientMSet(t *testing.T) {
	commander := newFakeCommander()
	client := newTestRedisClient(commander, "")

	require.NoError(t, client.MSet(map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Minute))
	assert.Equal(t, 1, commander.pipeCalls, "all writes share one pipelined round trip")

	require.NoError(t, client.MSet(nil, time.Minute))
	assert.Equal(t, 1, commander.pipeCalls, "empty batch is a no-op")

	commander.pipeErr = errStoreDown
	err := client.MSet(map[string][]byte{"a": []byte("1")}, time.Minute)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestClientStats(t *testing.T) {
	commander := newFakeCommander()
	commander.values["a"] = "1"
	commander.values["b"] = "2"

	client := newTestRedisClient(commander, "")

	stats, err := client.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalKeys)
	assert.Equal(t, "1.0M", stats.MemoryUsage)
	assert.Equal(t, int64(60), stats.UptimeSeconds)
}

func TestClientLifecycle(t *testing.T) {
	client := newTestRedisClient(newFakeCommander(), "")

	assert.False(t, client.IsRunning())
	require.NoError(t, client.Start())
	assert.True(t, client.IsRunning())
	require.NoError(t, client.Start())
	require.NoError(t, client.Stop())
	assert.False(t, client.IsRunning())
}
