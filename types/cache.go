package types

import (
	"time"
)

const (
	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
	TTLLong   = 2 * time.Hour
)

// CacheClient is the adapter over the key-value store. Every operation
// contains store-level failures: a cache outage must never fail the
// caller's business operation, so read paths degrade to (nil, false)
// and write paths return an error that callers are free to ignore.
type CacheClient interface {
	LifecycleManager
	Get(key string) ([]byte, bool)
	GetWithRetry(key string, attempts int) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	SetWithRetry(key string, value []byte, ttl time.Duration, attempts int) error
	Del(keys ...string) error
	InvalidatePattern(pattern string) error
	MGet(keys ...string) [][]byte
	MSet(entries map[string][]byte, ttl time.Duration) error
	Exists(key string) bool
	Stats() (*CacheStats, error)
}

type CacheClientCreator func(config interface{}) (CacheClient, error)

type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Type          string        `yaml:"type" json:"type"`
	Config        interface{}   `yaml:"config" json:"config"`
	DefaultTTL    time.Duration `yaml:"default_ttl" json:"default_ttl" validate:"min=0"`
	RetryAttempts int           `yaml:"retry_attempts" json:"retry_attempts" validate:"min=0,max=10"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" json:"retry_backoff" validate:"min=0"`
}

// CacheStats is parsed from the store's introspection output.
type CacheStats struct {
	TotalKeys       int64  `json:"total_keys"`
	MemoryUsage     string `json:"memory_usage"`
	EvictedKeys     int64  `json:"evicted_keys"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	PeakMemoryUsage string `json:"peak_memory_usage"`
	MaxMemoryPolicy string `json:"max_memory_policy"`
}

type MonitorSample struct {
	Hit       bool    `json:"hit"`
	LatencyMs float64 `json:"latency_ms"`
}

type CacheMetrics struct {
	HitRate       float64 `json:"hit_rate"`
	MissRate      float64 `json:"miss_rate"`
	TotalRequests int64   `json:"total_requests"`
	AvgLatency    float64 `json:"avg_latency"`
	CacheSize     int64   `json:"cache_size"`
	MemoryUsage   string  `json:"memory_usage"`
}

// CacheInsights is advisory output only, never acted on automatically.
type CacheInsights struct {
	Performance     string       `json:"performance"`
	Recommendations []string     `json:"recommendations"`
	Metrics         CacheMetrics `json:"metrics"`
}

// Result reports best-effort cache work back to mutation paths. Failures
// are carried, not thrown: a degraded cache means slower reads, never a
// failed user-facing mutation.
type Result struct {
	Success bool  `json:"success"`
	Error   error `json:"-"`
}

func OK() Result {
	return Result{Success: true}
}

func Fail(err error) Result {
	return Result{Success: false, Error: err}
}
