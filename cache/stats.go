package cache

import (
	"strconv"
	"strings"

	"github.com/saiset-co/sai-storecache/types"
)

// parseInfo pattern-matches documented field names in the store's INFO
// text output. Unknown fields are ignored; missing fields leave zero
// values.
func parseInfo(info string) *types.CacheStats {
	stats := &types.CacheStats{}

	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch field {
		case "used_memory_human":
			stats.MemoryUsage = value
		case "used_memory_peak_human":
			stats.PeakMemoryUsage = value
		case "maxmemory_policy":
			stats.MaxMemoryPolicy = value
		case "evicted_keys":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				stats.EvictedKeys = n
			}
		case "uptime_in_seconds":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				stats.UptimeSeconds = n
			}
		}
	}

	return stats
}
