package cache

import (
	"math"
	"sync"
	"time"

	"github.com/saiset-co/sai-storecache/types"
)

// Monitor records hit/miss counts and latency samples per logical cache
// operation. It is an explicitly constructed, process-scoped instance
// passed by reference to request handlers; samples are never persisted
// and in a multi-instance deployment each instance reports only its own
// traffic.
type Monitor struct {
	logger  types.Logger
	client  types.CacheClient
	mu      sync.Mutex
	samples []types.MonitorSample
}

func NewMonitor(logger types.Logger, client types.CacheClient) *Monitor {
	return &Monitor{
		logger:  logger,
		client:  client,
		samples: make([]types.MonitorSample, 0, 256),
	}
}

func (m *Monitor) RecordHit(latencyMs float64) {
	m.record(types.MonitorSample{Hit: true, LatencyMs: latencyMs})
}

func (m *Monitor) RecordMiss(latencyMs float64) {
	m.record(types.MonitorSample{Hit: false, LatencyMs: latencyMs})
}

func (m *Monitor) record(sample types.MonitorSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, sample)
}

func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = m.samples[:0]
}

func (m *Monitor) GetMetrics() types.CacheMetrics {
	m.mu.Lock()
	var hits, misses int64
	var latencySum float64
	for _, s := range m.samples {
		if s.Hit {
			hits++
		} else {
			misses++
		}
		latencySum += s.LatencyMs
	}
	samples := len(m.samples)
	m.mu.Unlock()

	total := hits + misses

	metrics := types.CacheMetrics{
		TotalRequests: total,
	}

	if total > 0 {
		metrics.HitRate = round2(float64(hits) / float64(total) * 100)
		metrics.MissRate = round2(float64(misses) / float64(total) * 100)
	}
	if samples > 0 {
		metrics.AvgLatency = round2(latencySum / float64(samples))
	}

	if m.client != nil {
		if stats, err := m.client.Stats(); err == nil {
			metrics.CacheSize = stats.TotalKeys
			metrics.MemoryUsage = stats.MemoryUsage
		}
	}

	return metrics
}

// WithMonitoring times the operation and records the caller-classified
// hit/miss outcome.
func (m *Monitor) WithMonitoring(op func() ([]byte, bool), key string, hit bool) ([]byte, bool) {
	start := time.Now()
	value, found := op()
	latency := latencyMs(start)

	if hit {
		m.RecordHit(latency)
	} else {
		m.RecordMiss(latency)
	}

	return value, found
}

// WithSmartMonitoring probes the store for key existence to classify the
// outcome before running the operation, so callers do not need to know
// in advance whether they are serving cached or fresh data.
func (m *Monitor) WithSmartMonitoring(op func() ([]byte, bool), key string) ([]byte, bool) {
	hit := false
	if m.client != nil {
		hit = m.client.Exists(key)
	}

	return m.WithMonitoring(op, key, hit)
}

// Insights derives a qualitative performance label and tuning
// recommendations from the current metrics. Advisory output only.
func (m *Monitor) Insights() types.CacheInsights {
	metrics := m.GetMetrics()

	insights := types.CacheInsights{
		Metrics: metrics,
	}

	switch {
	case metrics.HitRate > 80:
		insights.Performance = "Excellent"
	case metrics.HitRate > 60:
		insights.Performance = "Good"
	default:
		insights.Performance = "Needs Improvement"
	}

	if metrics.HitRate < 60 {
		insights.Recommendations = append(insights.Recommendations,
			"Consider increasing cache TTL values and reviewing invalidation frequency")
	}
	if metrics.AvgLatency > 100 {
		insights.Recommendations = append(insights.Recommendations,
			"Average latency is high; review slow queries and key structure")
	}
	if metrics.CacheSize > 1000 {
		insights.Recommendations = append(insights.Recommendations,
			"Cache holds many keys; consider an eviction policy")
	}

	return insights
}

func latencyMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
