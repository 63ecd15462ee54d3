// Package metrics exposes RedLeaf runtime instrumentation as Prometheus
// metrics, repurposing the teacher's prometheus/client_golang dependency:
// the teacher uses it as a query client against an external Prometheus
// server (pkg/monitoring/prometheus.Client); this package instead
// registers and serves first-party gauges/counters/histograms describing
// the runtime itself (domains loaded, live heap allocations, panics
// unwound, reclaim latency), exposed over /metrics for an external
// Prometheus server to scrape.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every RedLeaf runtime metric behind one struct so
// callers take a single dependency instead of importing prometheus
// directly throughout the tree. cmd/redleafd is its only caller and sets
// DomainsLoaded; the other metrics are registered but not updated.
type Registry struct {
	DomainsLoaded      prometheus.Gauge
	DomainsTornDown    prometheus.Counter
	LiveAllocations    prometheus.Gauge
	ReclaimDuration    prometheus.Histogram
	DomainPanics       prometheus.Counter
	DomainRestarts     prometheus.Counter
	ContinuationDepth  prometheus.Gauge
	SignatureFailures  prometheus.Counter
}

// New registers every RedLeaf metric against reg (pass
// prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer to serve on the process-wide /metrics
// endpoint).
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		DomainsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "redleaf", Subsystem: "domain", Name: "loaded_total",
			Help: "Number of domains currently loaded.",
		}),
		DomainsTornDown: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "redleaf", Subsystem: "domain", Name: "torn_down_total",
			Help: "Number of domains torn down (graceful exit or crash).",
		}),
		LiveAllocations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "redleaf", Subsystem: "heap", Name: "live_allocations",
			Help: "Number of live shared-heap allocations tracked by the Heap Registry.",
		}),
		ReclaimDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "redleaf", Subsystem: "heap", Name: "reclaim_duration_seconds",
			Help:    "Time to reclaim a domain's shared-heap allocations.",
			Buckets: prometheus.DefBuckets,
		}),
		DomainPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "redleaf", Subsystem: "proxy", Name: "domain_panics_total",
			Help: "Number of cross-domain calls that panicked and were unwound.",
		}),
		DomainRestarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "redleaf", Subsystem: "proxy", Name: "domain_restarts_total",
			Help: "Number of times a Shadow rebuilt a crashed domain.",
		}),
		ContinuationDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "redleaf", Subsystem: "continuation", Name: "stack_depth",
			Help: "Current depth of the continuation stack.",
		}),
		SignatureFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "redleaf", Subsystem: "signature", Name: "verify_failures_total",
			Help: "Number of domain binaries refused for failing signature verification.",
		}),
	}
}
