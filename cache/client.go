package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
	"github.com/saiset-co/sai-storecache/utils"
)

type RedisConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	Password           string        `json:"password"`
	DB                 int           `json:"db"`
	PoolSize           int           `json:"pool_size"`
	MinIdleConnections int           `json:"min_idle_connections"`
	DialTimeout        time.Duration `json:"dial_timeout"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`
	KeyPrefix          string        `json:"key_prefix"`
	ScanBatchSize      int64         `json:"scan_batch_size"`
}

// storeCommander is the slice of the go-redis API the adapter uses.
// *redis.Client satisfies it; tests substitute failing or in-memory fakes.
type storeCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Info(ctx context.Context, section ...string) *redis.StringCmd
	DBSize(ctx context.Context) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Close() error
}

// RedisClient wraps the key-value store with uniform error containment:
// every operation logs store-level failures and degrades to a nil/no-op
// result instead of propagating them. The worst case under a cache
// outage is more frequent database reads, never a failed mutation.
type RedisClient struct {
	ctx           context.Context
	logger        types.Logger
	config        *RedisConfig
	client        storeCommander
	retryAttempts int
	retryBackoff  time.Duration
	started       int32
}

func NewRedisClient(ctx context.Context, logger types.Logger, config *types.CacheConfig) (types.CacheClient, error) {
	redisConfig := &RedisConfig{
		Host:               "localhost",
		Port:               6379,
		Password:           "",
		DB:                 0,
		PoolSize:           10,
		MinIdleConnections: 2,
		DialTimeout:        5 * time.Second,
		ReadTimeout:        3 * time.Second,
		WriteTimeout:       3 * time.Second,
		KeyPrefix:          "",
		ScanBatchSize:      200,
	}

	if config.Config != nil {
		err := utils.UnmarshalConfig(config.Config, redisConfig)
		if err != nil {
			return nil, types.WrapError(err, "failed to unmarshal redis cache config")
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port),
		Password:     redisConfig.Password,
		DB:           redisConfig.DB,
		PoolSize:     redisConfig.PoolSize,
		MinIdleConns: redisConfig.MinIdleConnections,
		DialTimeout:  redisConfig.DialTimeout,
		ReadTimeout:  redisConfig.ReadTimeout,
		WriteTimeout: redisConfig.WriteTimeout,
	})

	rc := newRedisClient(ctx, logger, redisConfig, client, config)

	if err := rc.ping(); err != nil {
		return nil, types.WrapError(err, "failed to connect to redis")
	}

	return rc, nil
}

func newRedisClient(ctx context.Context, logger types.Logger, redisConfig *RedisConfig, client storeCommander, config *types.CacheConfig) *RedisClient {
	attempts := config.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	backoff := config.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	return &RedisClient{
		ctx:           ctx,
		logger:        logger,
		config:        redisConfig,
		client:        client,
		retryAttempts: attempts,
		retryBackoff:  backoff,
	}
}

func (r *RedisClient) Get(key string) ([]byte, bool) {
	value, found, err := r.getOnce(key)
	if err != nil {
		r.logger.Error("failed to get cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, found
}

// GetWithRetry retries store-level failures with exponential backoff
// before falling back to the degraded miss result. A clean miss is not
// retried.
func (r *RedisClient) GetWithRetry(key string, attempts int) ([]byte, bool) {
	if attempts <= 0 {
		attempts = r.retryAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(r.backoffDelay(attempt - 1))
		}

		value, found, err := r.getOnce(key)
		if err == nil {
			return value, found
		}
		lastErr = err
	}

	r.logger.Error("cache get exhausted retries",
		zap.String("key", key),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return nil, false
}

func (r *RedisClient) Set(key string, value []byte, ttl time.Duration) error {
	err := r.setOnce(key, value, ttl)
	if err != nil {
		r.logger.Error("failed to set cache entry", zap.String("key", key), zap.Error(err))
		return types.WrapError(err, "failed to set cache entry")
	}
	return nil
}

func (r *RedisClient) SetWithRetry(key string, value []byte, ttl time.Duration, attempts int) error {
	if attempts <= 0 {
		attempts = r.retryAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(r.backoffDelay(attempt - 1))
		}

		if err := r.setOnce(key, value, ttl); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	r.logger.Error("cache set exhausted retries",
		zap.String("key", key),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return types.WrapError(lastErr, "failed to set cache entry")
}

func (r *RedisClient) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		fullKeys = append(fullKeys, r.buildFullKey(key))
	}

	if len(fullKeys) == 0 {
		return nil
	}

	if err := r.client.Del(r.ctx, fullKeys...).Err(); err != nil {
		r.logger.Error("failed to delete cache keys",
			zap.Strings("keys", keys), zap.Error(err))
		return types.WrapError(err, "failed to delete cache keys")
	}

	return nil
}

// InvalidatePattern resolves the glob to a concrete key set via SCAN and
// issues a single bulk delete. An empty scan result is a no-op.
func (r *RedisClient) InvalidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}

	fullPattern := r.buildFullKey(pattern)

	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(r.ctx, cursor, fullPattern, r.scanBatchSize()).Result()
		if err != nil {
			r.logger.Error("failed to scan cache keys",
				zap.String("pattern", pattern), zap.Error(err))
			return types.WrapError(err, "failed to scan cache keys")
		}

		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(r.ctx, keys...).Err(); err != nil {
		r.logger.Error("failed to delete scanned cache keys",
			zap.String("pattern", pattern),
			zap.Int("keys", len(keys)),
			zap.Error(err))
		return types.WrapError(err, "failed to delete scanned cache keys")
	}

	r.logger.Debug("pattern invalidated",
		zap.String("pattern", pattern),
		zap.Int("keys", len(keys)))

	return nil
}

// MGet returns a slice aligned to keys; a batch failure degrades to an
// all-nil result so callers fall through to the source of truth.
func (r *RedisClient) MGet(keys ...string) [][]byte {
	results := make([][]byte, len(keys))
	if len(keys) == 0 {
		return results
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = r.buildFullKey(key)
	}

	values, err := r.client.MGet(r.ctx, fullKeys...).Result()
	if err != nil {
		r.logger.Error("failed to multi-get cache entries",
			zap.Int("keys", len(keys)), zap.Error(err))
		return results
	}

	for i, value := range values {
		if i >= len(results) {
			break
		}
		switch v := value.(type) {
		case string:
			results[i] = []byte(v)
		case []byte:
			results[i] = v
		}
	}

	return results
}

// MSet batches all writes into one pipelined round trip. Partial failure
// of the batch is treated as total failure: logged and swallowed.
func (r *RedisClient) MSet(entries map[string][]byte, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := r.client.Pipelined(r.ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			if key == "" {
				continue
			}
			pipe.Set(r.ctx, r.buildFullKey(key), value, ttl)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to multi-set cache entries",
			zap.Int("entries", len(entries)), zap.Error(err))
		return types.WrapError(err, "failed to multi-set cache entries")
	}

	return nil
}

func (r *RedisClient) Exists(key string) bool {
	if key == "" {
		return false
	}

	count, err := r.client.Exists(r.ctx, r.buildFullKey(key)).Result()
	if err != nil {
		r.logger.Error("failed to check cache key existence",
			zap.String("key", key), zap.Error(err))
		return false
	}

	return count > 0
}

// Stats parses the store's introspection text output by field name.
func (r *RedisClient) Stats() (*types.CacheStats, error) {
	info, err := r.client.Info(r.ctx).Result()
	if err != nil {
		r.logger.Error("failed to read store info", zap.Error(err))
		return nil, types.WrapError(err, "failed to read store info")
	}

	stats := parseInfo(info)

	if total, err := r.client.DBSize(r.ctx).Result(); err == nil {
		stats.TotalKeys = total
	} else {
		r.logger.Warn("failed to read store key count", zap.Error(err))
	}

	return stats, nil
}

func (r *RedisClient) Start() error {
	if !atomic.CompareAndSwapInt32(&r.started, 0, 1) {
		return nil
	}

	r.logger.Info("Redis cache client started",
		zap.String("prefix", r.config.KeyPrefix),
		zap.Int("retry_attempts", r.retryAttempts))

	return nil
}

func (r *RedisClient) Stop() error {
	if !atomic.CompareAndSwapInt32(&r.started, 1, 0) {
		return nil
	}

	if r.client != nil {
		if err := r.client.Close(); err != nil {
			r.logger.Error("Failed to close redis client", zap.Error(err))
			return types.WrapError(err, "failed to close redis client")
		}
	}

	r.logger.Info("Redis cache client stopped")
	return nil
}

func (r *RedisClient) IsRunning() bool {
	return atomic.LoadInt32(&r.started) == 1
}

func (r *RedisClient) getOnce(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	result, err := r.client.Get(r.ctx, r.buildFullKey(key)).Result()
	if err != nil {
		if types.IsError(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return []byte(result), true, nil
}

func (r *RedisClient) setOnce(key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return types.ErrCacheKeyEmpty
	}

	return r.client.Set(r.ctx, r.buildFullKey(key), value, ttl).Err()
}

func (r *RedisClient) ping() error {
	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) buildFullKey(key string) string {
	if r.config.KeyPrefix != "" {
		return fmt.Sprintf("%s:%s", r.config.KeyPrefix, key)
	}
	return key
}

func (r *RedisClient) backoffDelay(attempt int) time.Duration {
	return r.retryBackoff * time.Duration(1<<attempt)
}

func (r *RedisClient) scanBatchSize() int64 {
	if r.config.ScanBatchSize > 0 {
		return r.config.ScanBatchSize
	}
	return 200
}
