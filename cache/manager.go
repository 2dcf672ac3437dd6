package cache

import (
	"context"
	"time"

	"github.com/saiset-co/sai-storecache/types"
)

var customClientCreators = make(map[string]types.CacheClientCreator)

func RegisterCacheClient(clientName string, creator types.CacheClientCreator) {
	customClientCreators[clientName] = creator
}

func NewCacheClient(ctx context.Context, config types.ConfigManager, logger types.Logger, metrics types.MetricsManager) (types.CacheClient, error) {
	cacheConfig := config.GetConfig().Cache

	if cacheConfig == nil || !cacheConfig.Enabled {
		return nil, types.ErrCacheIsDisabled
	}

	impl, err := createClient(ctx, logger, cacheConfig)
	if err != nil {
		return nil, err
	}

	if metrics == nil {
		return impl, nil
	}

	return newInstrumentedClient(logger, metrics, impl), nil
}

func createClient(ctx context.Context, logger types.Logger, cacheConfig *types.CacheConfig) (types.CacheClient, error) {
	clientName := "redis"
	if cacheConfig.Type != "" {
		clientName = cacheConfig.Type
	}

	switch clientName {
	case "redis":
		return NewRedisClient(ctx, logger, cacheConfig)
	default:
		if creator, exists := customClientCreators[clientName]; exists {
			return creator(cacheConfig.Config)
		}
		return nil, types.Errorf(types.ErrCacheTypeUnknown, "cache client type: %s", clientName)
	}
}

// instrumentedClient mirrors every adapter operation into prometheus
// counters and duration histograms, alongside the in-memory Monitor.
type instrumentedClient struct {
	impl    types.CacheClient
	logger  types.Logger
	metrics types.MetricsManager
}

func newInstrumentedClient(logger types.Logger, metrics types.MetricsManager, impl types.CacheClient) types.CacheClient {
	return &instrumentedClient{
		impl:    impl,
		logger:  logger,
		metrics: metrics,
	}
}

func (ic *instrumentedClient) Get(key string) ([]byte, bool) {
	start := time.Now()
	value, found := ic.impl.Get(key)
	duration := time.Since(start)

	result := "miss"
	if found {
		result = "hit"
	}

	ic.recordMetric("get", result, duration)
	return value, found
}

func (ic *instrumentedClient) GetWithRetry(key string, attempts int) ([]byte, bool) {
	start := time.Now()
	value, found := ic.impl.GetWithRetry(key, attempts)
	duration := time.Since(start)

	result := "miss"
	if found {
		result = "hit"
	}

	ic.recordMetric("get_retry", result, duration)
	return value, found
}

func (ic *instrumentedClient) Set(key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := ic.impl.Set(key, value, ttl)
	ic.recordMetric("set", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedClient) SetWithRetry(key string, value []byte, ttl time.Duration, attempts int) error {
	start := time.Now()
	err := ic.impl.SetWithRetry(key, value, ttl, attempts)
	ic.recordMetric("set_retry", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedClient) Del(keys ...string) error {
	start := time.Now()
	err := ic.impl.Del(keys...)
	ic.recordMetric("delete", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedClient) InvalidatePattern(pattern string) error {
	start := time.Now()
	err := ic.impl.InvalidatePattern(pattern)
	ic.recordMetric("invalidate_pattern", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedClient) MGet(keys ...string) [][]byte {
	start := time.Now()
	values := ic.impl.MGet(keys...)
	ic.recordMetric("mget", "success", time.Since(start))
	return values
}

func (ic *instrumentedClient) MSet(entries map[string][]byte, ttl time.Duration) error {
	start := time.Now()
	err := ic.impl.MSet(entries, ttl)
	ic.recordMetric("mset", resultLabel(err), time.Since(start))
	return err
}

func (ic *instrumentedClient) Exists(key string) bool {
	return ic.impl.Exists(key)
}

func (ic *instrumentedClient) Stats() (*types.CacheStats, error) {
	return ic.impl.Stats()
}

func (ic *instrumentedClient) Start() error {
	return ic.impl.Start()
}

func (ic *instrumentedClient) Stop() error {
	return ic.impl.Stop()
}

func (ic *instrumentedClient) IsRunning() bool {
	return ic.impl.IsRunning()
}

func (ic *instrumentedClient) recordMetric(operation, result string, duration time.Duration) {
	opCounter := ic.metrics.Counter("cache_operations_total", map[string]string{
		"operation": operation,
		"result":    result,
	})
	opCounter.Inc()

	opDuration := ic.metrics.Histogram("cache_operation_duration_seconds",
		[]float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		map[string]string{"operation": operation},
	)
	opDuration.Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
