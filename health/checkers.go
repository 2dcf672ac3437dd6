package health

import (
	"context"
	"fmt"

	"github.com/saiset-co/sai-storecache/types"
)

// CacheChecker reports the key-value adapter as healthy when a stats
// round trip succeeds.
func CacheChecker(client types.CacheClient) types.HealthChecker {
	return func(ctx context.Context) types.HealthCheck {
		if client == nil || !client.IsRunning() {
			return types.HealthCheck{
				Status:  types.StatusUnhealthy,
				Message: "cache client not running",
			}
		}

		stats, err := client.Stats()
		if err != nil {
			return types.HealthCheck{
				Status:  types.StatusUnhealthy,
				Message: fmt.Sprintf("cache stats failed: %v", err),
			}
		}

		return types.HealthCheck{
			Status: types.StatusHealthy,
			Details: map[string]interface{}{
				"total_keys":   stats.TotalKeys,
				"memory_usage": stats.MemoryUsage,
			},
		}
	}
}

// StoreChecker pings the relational source of truth.
func StoreChecker(store types.StoreManager) types.HealthChecker {
	return func(ctx context.Context) types.HealthCheck {
		if store == nil || !store.IsRunning() {
			return types.HealthCheck{
				Status:  types.StatusUnhealthy,
				Message: "store not running",
			}
		}

		if err := store.Ping(ctx); err != nil {
			return types.HealthCheck{
				Status:  types.StatusUnhealthy,
				Message: fmt.Sprintf("store ping failed: %v", err),
			}
		}

		return types.HealthCheck{
			Status: types.StatusHealthy,
		}
	}
}

// NotifierChecker reports unknown rather than unhealthy when the
// notifier is reconnecting, dropped notifications are tolerable.
func NotifierChecker(notifier types.Notifier) types.HealthChecker {
	return func(ctx context.Context) types.HealthCheck {
		if notifier == nil {
			return types.HealthCheck{
				Status:  types.StatusUnknown,
				Message: "notifier not configured",
			}
		}

		if !notifier.IsRunning() {
			return types.HealthCheck{
				Status:  types.StatusUnhealthy,
				Message: "notifier not running",
			}
		}

		return types.HealthCheck{
			Status: types.StatusHealthy,
		}
	}
}
