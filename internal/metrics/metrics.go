package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reg = prometheus.NewRegistry()

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "rate_limiter_rejected_total", Help: "Requests rejected by rate limiter"},
	)
	BundleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bundle_requests_total", Help: "Bundle requests by outcome"},
		[]string{"outcome"}, // ok, bad_request, forbidden, error
	)
	BundleFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bundle_files_total", Help: "Files processed across bundles"},
		[]string{"result"}, // archived, skipped
	)
	BundleBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bundle_bytes_total", Help: "Total serialized archive bytes produced"},
	)
	BundleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundle_duration_seconds",
			Help:    "End-to-end bundle assembly duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	ProxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "proxy_requests_total", Help: "Single-file proxy requests by outcome"},
		[]string{"outcome"}, // ok, forbidden, upstream_error
	)
)

var registered atomic.Bool

func Register() {
	if registered.Swap(true) {
		return
	}
	reg.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, RateLimitRejectedTotal,
		BundleRequestsTotal, BundleFilesTotal, BundleBytesTotal, BundleDuration,
		ProxyRequestsTotal)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler { Register(); return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}) }

// ObserveRequest records metrics for one handled HTTP request.
func ObserveRequest(method, path string, statusCode int, dur time.Duration) {
	Register()
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}
