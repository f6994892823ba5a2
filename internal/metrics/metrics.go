// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BacktestsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tick_replay",
		Name:      "backtests_started_total",
		Help:      "Total number of backtest runs started",
	})
	BacktestsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tick_replay",
		Name:      "backtests_completed_total",
		Help:      "Total number of backtest runs completed, by outcome",
	}, []string{"outcome"})
	RecordsReplayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tick_replay",
		Name:      "records_replayed_total",
		Help:      "Total number of market records fed through strategies",
	})
	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tick_replay",
		Name:      "cache_requests_total",
		Help:      "Cache lookups by tier and result",
	}, []string{"tier", "result"})
	CacheTierErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tick_replay",
		Name:      "cache_tier_errors_total",
		Help:      "Remote cache tier failures that were bypassed",
	}, []string{"operation"})
	RepositoryQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tick_replay",
		Name:      "repository_queries_total",
		Help:      "Loader invocations that reached the persistent store",
	}, []string{"resolution"})
)

// Gauge and histogram metrics
var (
	LocalCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tick_replay",
		Name:      "local_cache_entries",
		Help:      "Number of entries currently held by the local cache tier",
	})
	BacktestDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tick_replay",
		Name:      "backtest_duration_seconds",
		Help:      "Wall-clock duration of completed backtest runs",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

// GetRegistry returns the singleton registry with all metrics registered
func GetRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			BacktestsStartedTotal,
			BacktestsCompletedTotal,
			RecordsReplayedTotal,
			CacheRequestsTotal,
			CacheTierErrorsTotal,
			RepositoryQueriesTotal,
			LocalCacheEntries,
			BacktestDurationSeconds,
		)
	})
	return registry
}

// Handler returns an HTTP handler serving the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// Serve starts a metrics HTTP server on the given port
func Serve(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
