// Package metrics exposes Prometheus counters for key derivation, the key
// cache and the RPC server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "klingnet_hd"

// Derivation kinds.
const (
	KindPrivate = "private"
	KindPublic  = "public"
)

// Cache tiers and lookup results.
const (
	TierMemory = "memory"
	TierIndex  = "index"

	ResultHit  = "hit"
	ResultMiss = "miss"
)

var (
	// Derivations counts derived keys by kind. Cache hits are not counted.
	Derivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivations_total",
			Help:      "Total number of derived extended keys.",
		},
		[]string{"kind"},
	)

	// CacheLookups counts public key cache lookups per tier.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Public key cache lookups by tier and result.",
		},
		[]string{"tier", "result"},
	)

	// RPCRequests counts JSON-RPC requests by method and outcome.
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Total number of JSON-RPC requests.",
		},
		[]string{"method", "status"},
	)

	// RPCDuration records JSON-RPC handler latency.
	RPCDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "JSON-RPC handler latency distributions.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(Derivations, CacheLookups, RPCRequests, RPCDuration)
}

// Derived records n freshly derived keys of the given kind.
func Derived(kind string, n int) {
	Derivations.WithLabelValues(kind).Add(float64(n))
}

// Lookup records a cache lookup.
func Lookup(tier string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	CacheLookups.WithLabelValues(tier, result).Inc()
}

// ObserveRPC records one handled request. Unknown methods are folded into
// a single label so clients cannot grow the series set.
func ObserveRPC(method string, known, ok bool, start time.Time) {
	if !known {
		method = "unknown"
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	RPCRequests.WithLabelValues(method, status).Inc()
	RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
