// Package metrics exposes the Prometheus registry shared by the API resource
// client. All metrics are defined in their respective packages (client,
// cache, ratelimit) and registered via promauto on the default registry.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all client metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Namespace prefixes every metric of the client.
const Namespace = "api_"

// Names lists the metrics defined by the client packages.
//
// Request Metrics (pkg/client):
//   - api_requests_total{method, status} (Counter)
//   - api_request_duration_seconds{method} (Histogram), retries included
//   - api_errors_total{class} (Counter): client, server, rate_limit, network, invalid_data
//   - api_retries_total{error_class} (Counter)
//   - api_retry_exhausted_total{error_class} (Counter)
//
// Cache Metrics (pkg/cache):
//   - api_cache_hits_total{layer} (Counter)
//   - api_cache_misses_total{layer} (Counter)
//   - api_cache_writes_total{layer} (Counter)
//   - api_cache_invalidations_total{layer} (Counter)
//   - api_cache_errors_total{operation} (Counter)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - api_rate_limit_remaining (Gauge)
//   - api_rate_limit_blocks_total (Counter)
//   - api_rate_limit_throttles_total (Counter)
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(api_cache_hits_total[5m])) /
//	(sum(rate(api_cache_hits_total[5m])) + sum(rate(api_cache_misses_total[5m])))
//
//	# Failed writes
//	sum(rate(api_requests_total{method!="GET",status!~"2.."}[5m]))
//
//	# P95 Request Latency
//	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))
var Names = []string{
	"api_requests_total",
	"api_request_duration_seconds",
	"api_errors_total",
	"api_retries_total",
	"api_retry_exhausted_total",
	"api_cache_hits_total",
	"api_cache_misses_total",
	"api_cache_writes_total",
	"api_cache_invalidations_total",
	"api_cache_errors_total",
	"api_rate_limit_remaining",
	"api_rate_limit_blocks_total",
	"api_rate_limit_throttles_total",
}

// Handler serves the gathered metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Collected returns the names of client metrics that currently hold at least
// one sample.
func Collected() ([]string, error) {
	families, err := Gatherer.Gather()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), Namespace) {
			out = append(out, mf.GetName())
		}
	}
	return out, nil
}
