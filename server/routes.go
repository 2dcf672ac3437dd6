package server

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-storecache/cache"
	"github.com/saiset-co/sai-storecache/types"
)

// RegisterDiagnostics wires the read-only endpoints. Nil components are
// skipped so a deployment without metrics still serves health.
func RegisterDiagnostics(
	srv *FastHTTPServer,
	config types.ConfigManager,
	logger types.Logger,
	health types.HealthManager,
	client types.CacheClient,
	monitor *cache.Monitor,
	metrics types.MetricsManager,
) {
	srv.Add("/version", func(ctx *fasthttp.RequestCtx) {
		cfg := config.GetConfig()
		WriteJSON(ctx, logger, types.VersionInfo{
			Version:   cfg.Version,
			BuildInfo: cfg.Name,
		})
	})

	if health != nil {
		srv.Add("/health", func(ctx *fasthttp.RequestCtx) {
			report := health.Check(ctx)
			if report.Status != types.StatusHealthy {
				ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			}
			WriteJSON(ctx, logger, report)
		})
	}

	if client != nil {
		srv.Add("/cache/stats", func(ctx *fasthttp.RequestCtx) {
			stats, err := client.Stats()
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
				return
			}
			WriteJSON(ctx, logger, stats)
		})
	}

	if monitor != nil {
		srv.Add("/cache/metrics", func(ctx *fasthttp.RequestCtx) {
			WriteJSON(ctx, logger, monitor.GetMetrics())
		})

		srv.Add("/cache/insights", func(ctx *fasthttp.RequestCtx) {
			WriteJSON(ctx, logger, monitor.Insights())
		})
	}

	if metrics != nil {
		srv.Add("/metrics", metrics.Handler())
	}
}
