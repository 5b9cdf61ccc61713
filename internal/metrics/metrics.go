// Package metrics exposes the gateway's runtime state as Prometheus
// collectors, replacing the teacher's periodic emoji-decorated console
// report (server/monitoring.go) with metrics a scrape target can consume.
// Grounded on the promauto package-level-collector idiom used throughout
// the retrieved pack (e.g. DBAShand-cdc-sink-redshift's
// internal/staging/stage/metrics.go) and the custom-Collector pattern in
// autobrr-qui's internal/database/metrics.go.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mssql_gateway"

var (
	PoolConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "pool", Name: "connections_total",
		Help: "Open connections in the shared pool.",
	})
	PoolConnectionsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "pool", Name: "connections_available",
		Help: "Idle connections currently available for checkout.",
	})
	PoolConnectionsInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "pool", Name: "connections_in_use",
		Help: "Connections currently checked out.",
	})
	PoolConnectionsMax = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "pool", Name: "connections_max",
		Help: "Configured maximum pool size.",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "hits_total",
		Help: "Query result cache hits.",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "misses_total",
		Help: "Query result cache misses.",
	})
	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "evictions_total",
		Help: "Entries evicted from the query result cache.",
	})
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "cache", Name: "entries",
		Help: "Current number of cached query results.",
	})
	CacheSizeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "cache", Name: "size_bytes",
		Help: "Estimated total size of cached query results.",
	})

	ValidationTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "validation", Name: "queries_total",
		Help: "Queries passed through the validator.",
	})
	ValidationBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "validation", Name: "blocked_total",
		Help: "Queries rejected by the validator.",
	})
	ValidationInjectionAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "validation", Name: "injection_attempts_total",
		Help: "Queries rejected for matching an injection pattern.",
	})

	TransactionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "transactions", Name: "active",
		Help: "Transactions with a live dedicated connection.",
	})
	PinnedSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "sessions", Name: "pinned_active",
		Help: "Pinned sessions with a live dedicated connection.",
	})
	AsyncSessionsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "sessions", Name: "async_running",
		Help: "Async query sessions currently running.",
	})

	ShutdownPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "shutdown", Name: "phase",
		Help: "Current shutdown phase number (0=Initiated .. 5=Complete); reads 0 until shutdown starts.",
	})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "executor", Name: "query_duration_seconds",
		Help:    "Query execution latency, pool checkout through result materialization.",
		Buckets: prometheus.DefBuckets,
	})
)

// PoolStats is the minimal shape internal/pool.Stats must satisfy, kept
// local to avoid metrics importing pool (and pool importing metrics).
type PoolStats struct {
	Total     int
	Available int
	InUse     int
	Max       int
}

// ObservePool copies a point-in-time pool snapshot into the pool gauges.
func ObservePool(s PoolStats) {
	PoolConnectionsTotal.Set(float64(s.Total))
	PoolConnectionsAvailable.Set(float64(s.Available))
	PoolConnectionsInUse.Set(float64(s.InUse))
	PoolConnectionsMax.Set(float64(s.Max))
}

// CacheStats mirrors internal/cache.Stats for the same reason.
type CacheStats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	EntryCount     int
	TotalSizeBytes int64
}

// ObserveCache reconciles the cache counters/gauges with a point-in-time
// snapshot. Counters are monotonic in Prometheus; since Cache itself
// already accumulates hits/misses/evictions monotonically, this just
// mirrors the latest totals by adding the delta since the last observation.
// lastCacheStats is read-then-written here on whatever goroutine the
// gateway's caller is running on, so it needs its own lock independent of
// the Prometheus collectors (which are already safe for concurrent use).
var (
	lastCacheStatsMu sync.Mutex
	lastCacheStats   CacheStats
)

func ObserveCache(s CacheStats) {
	lastCacheStatsMu.Lock()
	prev := lastCacheStats
	lastCacheStats = s
	lastCacheStatsMu.Unlock()

	if delta := s.Hits - prev.Hits; delta > 0 {
		CacheHitsTotal.Add(float64(delta))
	}
	if delta := s.Misses - prev.Misses; delta > 0 {
		CacheMissesTotal.Add(float64(delta))
	}
	if delta := s.Evictions - prev.Evictions; delta > 0 {
		CacheEvictionsTotal.Add(float64(delta))
	}
	CacheEntries.Set(float64(s.EntryCount))
	CacheSizeBytes.Set(float64(s.TotalSizeBytes))
}
