package cron

import (
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/types"
)

// RegisterInsightJob schedules the periodic hit-rate report. Each run
// logs the current insights, mirrors the headline numbers into gauges
// and resets the monitor window so every report covers one interval.
func RegisterInsightJob(manager types.CronManager, config types.ConfigManager, logger types.Logger, monitor *cache.Monitor, metrics types.MetricsManager) error {
	cronConfig := config.GetConfig().Cron

	schedule := "0 */10 * * * *"
	if cronConfig != nil && cronConfig.InsightSchedule != "" {
		schedule = cronConfig.InsightSchedule
	}

	return manager.Add("cache_insight_report", schedule, func() {
		insights := monitor.Insights()

		fields := []zap.Field{
			zap.String("performance", insights.Performance),
			zap.Float64("hit_rate", insights.Metrics.HitRate),
			zap.Float64("miss_rate", insights.Metrics.MissRate),
			zap.Int64("total_requests", insights.Metrics.TotalRequests),
			zap.Float64("avg_latency_ms", insights.Metrics.AvgLatency),
			zap.Int64("cache_size", insights.Metrics.CacheSize),
		}
		if len(insights.Recommendations) > 0 {
			fields = append(fields, zap.Strings("recommendations", insights.Recommendations))
		}

		logger.Info("Cache insight report", fields...)

		if metrics != nil {
			metrics.Gauge("cache_hit_rate_percent", nil).Set(insights.Metrics.HitRate)
			metrics.Gauge("cache_monitored_requests", nil).Set(float64(insights.Metrics.TotalRequests))
			metrics.Gauge("cache_avg_latency_ms", nil).Set(insights.Metrics.AvgLatency)
			metrics.Gauge("cache_size_keys", nil).Set(float64(insights.Metrics.CacheSize))
		}

		monitor.Reset()
	})
}
