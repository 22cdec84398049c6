package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics instruments a local key-value cache.
type CacheMetrics struct {
	// Name of the cache, e.g. "registry".
	cache string

	// Cache hit rates for the local cache.
	localCacheReads *prometheus.CounterVec
}

type CacheReadStatus string

const (
	CacheReadStatusHit      CacheReadStatus = "hit"
	CacheReadStatusMiss     CacheReadStatus = "miss"
	CacheReadStatusBadValue CacheReadStatus = "bad_value" // Value in cache was not valid (likely because of mismatched types / CBOR encoding).
	CacheReadStatusError    CacheReadStatus = "error"     // Other internal error reading from cache.
)

// NewDefaultCacheMetrics creates Prometheus metric instrumentation
// for reads of the named cache.
func NewDefaultCacheMetrics(cache string) *CacheMetrics {
	metrics := &CacheMetrics{
		cache: cache,
		localCacheReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "local_cache_reads",
				Help: "How many local cache reads occur, partitioned by status (hit, miss, bad_data, error).",
			},
			[]string{"cache", "status"}, // Labels.
		),
	}
	metrics.localCacheReads = registerOnce(metrics.localCacheReads).(*prometheus.CounterVec)
	return metrics
}

// LocalCacheReads returns the counter for the local cache read.
// The provided params are used as labels.
func (m *CacheMetrics) LocalCacheReads(status CacheReadStatus) prometheus.Counter {
	return m.localCacheReads.WithLabelValues(m.cache, string(status))
}
