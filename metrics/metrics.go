// Package metrics records cache and store behaviour in Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results
const (
	LookupHit    = "hit"
	LookupMiss   = "miss"
	LookupError  = "error"
	LookupBypass = "bypass"
)

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// Metrics holds the collectors for the item API. A nil *Metrics records
// nothing.
type Metrics struct {
	cacheLookups    *prometheus.CounterVec
	cacheWrites     *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemcache_cache_lookups_total",
			Help: "Item listing cache lookups by result",
		}, []string{"result"}),

		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemcache_cache_writes_total",
			Help: "Cache set and delete operations",
		}, []string{"op", "success"}),

		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemcache_store_errors_total",
			Help: "Store operations that failed",
		}, []string{"op"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "itemcache_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.cacheLookups,
		m.cacheWrites,
		m.storeErrors,
		m.requestDuration,
	)

	return m
}

// CacheLookup records the result of a listing lookup
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheWrite records a set or delete against the cache
func (m *Metrics) CacheWrite(op string, success bool) {
	if m == nil {
		return
	}
	m.cacheWrites.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

// StoreError records a failed store operation
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// ObserveRequest records how long a request to route took
func (m *Metrics) ObserveRequest(route string, method string, start time.Time) {
	if m == nil {
		return
	}
	m.requestDuration.
		WithLabelValues(route, method).
		Observe(time.Since(start).Seconds())
}
