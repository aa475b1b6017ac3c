package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "stocklens_upstream_requests_total", Help: "Calls made to the upstream price service"},
		[]string{"endpoint", "outcome"},
	)
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "stocklens_cache_lookups_total", Help: "Cache reads by result"},
		[]string{"result"},
	)
	ComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "stocklens_computations_total", Help: "Average and correlation computations"},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(UpstreamRequestsTotal, CacheLookupsTotal, ComputationsTotal)
}

// Outcome labels an operation by whether it returned an error.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
