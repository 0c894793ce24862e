// Package metrics exposes prometheus collectors for module loading and script runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const makiMetricsNamespace = "maki"

const (
	OutcomeReturned = "returned"
	OutcomeFailed   = "failed"
)

var (
	metricModulesLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "modules_loaded_total",
			Help:      "Decoded modules by dialect",
		},
		[]string{"dialect"},
	)

	metricCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "module_cache_lookups_total",
			Help:      "Module cache lookups by result",
		},
		[]string{"result"},
	)

	metricCacheStoreFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "module_cache_store_failures_total",
			Help:      "Decoded modules the cache could not hold",
		},
	)

	metricRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome and error kind",
		},
		[]string{"outcome", "kind"},
	)

	metricInstructions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "instructions_total",
			Help:      "Executed instructions",
		},
	)

	metricNativeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "native_calls_total",
			Help:      "Native calls by name",
		},
		[]string{"native"},
	)

	metricSuspensions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: makiMetricsNamespace,
			Name:      "suspensions_total",
			Help:      "Runs suspended on an asynchronous native call",
		},
	)
)

func init() {
	prometheus.MustRegister(
		metricModulesLoaded,
		metricCacheLookups,
		metricCacheStoreFailures,
		metricRuns,
		metricInstructions,
		metricNativeCalls,
		metricSuspensions,
	)
}

func ModuleLoaded(dialect string) {
	metricModulesLoaded.WithLabelValues(dialect).Inc()
}

func CacheLookup(hit bool) {
	if hit {
		metricCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	metricCacheLookups.WithLabelValues("miss").Inc()
}

func CacheStoreFailed() {
	metricCacheStoreFailures.Inc()
}

// RunFinished counts a run that reached a terminal state. kind is empty for successful runs.
func RunFinished(outcome, kind string) {
	metricRuns.WithLabelValues(outcome, kind).Inc()
}

func Instructions(n int) {
	if n > 0 {
		metricInstructions.Add(float64(n))
	}
}

func NativeCall(name string) {
	metricNativeCalls.WithLabelValues(name).Inc()
}

func Suspended() {
	metricSuspensions.Inc()
}
