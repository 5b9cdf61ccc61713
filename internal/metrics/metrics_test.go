package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePoolSetsGauges(t *testing.T) {
	ObservePool(PoolStats{Total: 5, Available: 2, InUse: 3, Max: 20})

	assert.Equal(t, float64(5), testutil.ToFloat64(PoolConnectionsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(PoolConnectionsAvailable))
	assert.Equal(t, float64(3), testutil.ToFloat64(PoolConnectionsInUse))
	assert.Equal(t, float64(20), testutil.ToFloat64(PoolConnectionsMax))
}

func TestObserveCacheAccumulatesMonotonicCounters(t *testing.T) {
	lastCacheStats = CacheStats{}

	ObserveCache(CacheStats{Hits: 10, Misses: 2, Evictions: 1, EntryCount: 4, TotalSizeBytes: 1024})
	assert.Equal(t, float64(10), testutil.ToFloat64(CacheHitsTotal))
	assert.Equal(t, float64(4), testutil.ToFloat64(CacheEntries))

	ObserveCache(CacheStats{Hits: 15, Misses: 2, Evictions: 1, EntryCount: 3, TotalSizeBytes: 512})
	assert.Equal(t, float64(15), testutil.ToFloat64(CacheHitsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(CacheEntries))
}
