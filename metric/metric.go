// Package metric defines the Prometheus metrics exported by the API client.
package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "omekas"

// Metrics holds request and cache metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TransportErrors *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	CacheStores     *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg (if non-nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of API requests by verb and HTTP status",
			},
			[]string{"verb", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"verb"},
		),

		TransportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "transport_errors_total",
				Help:      "Total number of requests that failed before an HTTP response was received",
			},
			[]string{"verb"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of requests answered from the response cache",
			},
			[]string{"verb"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache lookups that went to the network",
			},
			[]string{"verb"},
		),

		CacheStores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "stores_total",
				Help:      "Total number of responses stored in the cache",
			},
			[]string{"verb"},
		),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsTotal,
		m.RequestDuration,
		m.TransportErrors,
		m.CacheHits,
		m.CacheMisses,
		m.CacheStores,
	}
}

// ObserveRequest records a request that produced an HTTP response.
func (m *Metrics) ObserveRequest(verb string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(verb, strconv.Itoa(statusCode)).Inc()
	m.RequestDuration.WithLabelValues(verb).Observe(d.Seconds())
}

// ObserveTransportError records a request that failed at the transport level.
func (m *Metrics) ObserveTransportError(verb string, d time.Duration) {
	if m == nil {
		return
	}
	m.TransportErrors.WithLabelValues(verb).Inc()
	m.RequestDuration.WithLabelValues(verb).Observe(d.Seconds())
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit(verb string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(verb).Inc()
}

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss(verb string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(verb).Inc()
}

// CacheStore records a response stored in the cache.
func (m *Metrics) CacheStore(verb string) {
	if m == nil {
		return
	}
	m.CacheStores.WithLabelValues(verb).Inc()
}
