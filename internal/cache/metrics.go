// Package cache – Prometheus instrumentation.
//
// Hit/miss counters make the effectiveness of the derived cache observable:
// a high miss rate under steady polling usually means the TTL is shorter
// than the polling interval or Redis is being restarted.
package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	// cacheHits counts snapshot reads served from Redis.
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "room_cache_hits_total",
		Help: "Total number of room snapshot reads served from the cache.",
	})

	// cacheMisses counts reads that fell back to the tally store
	// (absent key, expired TTL, or corrupt entry).
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "room_cache_misses_total",
		Help: "Total number of room snapshot reads that missed the cache.",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses)
}
