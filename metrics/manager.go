package metrics

import (
	"context"

	"github.com/saiset-co/sai-storecache/types"
)

func NewManager(ctx context.Context, config types.ConfigManager, logger types.Logger) (types.MetricsManager, error) {
	metricsConfig := config.GetConfig().Metrics

	if metricsConfig == nil || !metricsConfig.Enabled {
		return nil, types.ErrMetricsIsDisabled
	}

	return NewPrometheusMetrics(ctx, logger, metricsConfig)
}
