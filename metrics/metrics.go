package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsDispatched counts the requests handled by each dispatch rule
	RequestsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_pages_requests_dispatched_total",
		Help: "The total number of requests handled, partitioned by the rule that handled them",
	}, []string{"rule"})

	// DispatchFailures counts the requests that ended with an error page
	DispatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_pages_dispatch_failures_total",
		Help: "The total number of requests answered with an error page, partitioned by failure kind",
	}, []string{"failure"})

	// ScriptExecutions counts script runs
	ScriptExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_pages_script_executions_total",
		Help: "The total number of scripts executed",
	}, []string{"success"})

	// ScriptDuration records how long scripts take to run
	ScriptDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiny_pages_script_duration_seconds",
		Help:    "Time taken by a script to produce its output",
		Buckets: prometheus.DefBuckets,
	})

	// ServingBodySize records the size of every response body, error pages included
	ServingBodySize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiny_pages_serving_body_size_bytes",
		Help:    "The size in bytes of the response bodies served, partitioned by status code",
		Buckets: prometheus.ExponentialBuckets(1.0, 10.0, 8),
	}, []string{"status"})

	// LimitListenerMaxConns for the max number of connections
	LimitListenerMaxConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tiny_pages_limit_listener_max_conns",
		Help: "The maximum number of concurrent connections allowed by the listener",
	})

	// LimitListenerConcurrentConns for the number of concurrent connections
	LimitListenerConcurrentConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tiny_pages_limit_listener_concurrent_conns",
		Help: "The number of concurrent connections held by the listener",
	})

	// LimitListenerWaitingConns for the number of connections waiting for a slot
	LimitListenerWaitingConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tiny_pages_limit_listener_waiting_conns",
		Help: "The number of connections waiting for a free slot in the listener",
	})

	// RateLimitSourceIPCacheRequests is the number of cache hits/misses
	RateLimitSourceIPCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tiny_pages_rate_limit_source_ip_cache_requests",
		Help: "The number of source_ip cache hits/misses in the rate limiter",
	}, []string{"op", "cache"})

	// RateLimitSourceIPCachedEntries is the number of entries in the cache
	RateLimitSourceIPCachedEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tiny_pages_rate_limit_source_ip_cached_entries",
		Help: "The number of entries in the rate limiter source_ip cache",
	}, []string{"op"})

	// RateLimitSourceIPBlockedCount is the number of requests blocked by the rate limiter
	RateLimitSourceIPBlockedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tiny_pages_rate_limit_source_ip_blocked_total",
		Help: "The number of requests that have been blocked by the source IP rate limiter",
	})
)

// MustRegister collectors with the Prometheus client
func MustRegister() {
	prometheus.MustRegister(
		RequestsDispatched,
		DispatchFailures,
		ScriptExecutions,
		ScriptDuration,
		ServingBodySize,
		LimitListenerMaxConns,
		LimitListenerConcurrentConns,
		LimitListenerWaitingConns,
		RateLimitSourceIPCacheRequests,
		RateLimitSourceIPCachedEntries,
		RateLimitSourceIPBlockedCount,
	)
}
