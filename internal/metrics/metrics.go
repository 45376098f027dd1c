// Package metrics exposes Prometheus collectors for the feed service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgparse_upstream_fetches_total",
			Help: "Total upstream page fetches, labeled by kind (channel/embed) and status.",
		},
		[]string{"kind", "status"},
	)

	videoResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgparse_video_resolutions_total",
			Help: "Total embed-page video resolutions, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tgparse_http_requests_total",
			Help: "Total HTTP requests served, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tgparse_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstreamFetch counts one outbound fetch against the preview host.
func ObserveUpstreamFetch(kind, status string) {
	upstreamFetchesTotal.WithLabelValues(kind, status).Inc()
}

// ObserveVideoResolution counts one embed resolution outcome.
func ObserveVideoResolution(outcome string) {
	videoResolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
