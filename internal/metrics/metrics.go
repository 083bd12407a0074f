// Package metrics exposes Prometheus collectors for the exposure checker.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	exposureChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exposure_checks_total",
			Help: "Total number of search exposure checks, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	exposureRank = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exposure_rank",
			Help:    "Rank at which a checked article was found.",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 30, 50},
		},
	)

	postResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_resolutions_total",
			Help: "Permalink resolution attempts, labeled by listing source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	sheetRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_rows_total",
			Help: "Spreadsheet rows handled by batch runs, labeled by phase and outcome.",
		},
		[]string{"phase", "outcome"},
	)

	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of batch runs, labeled by terminal status.",
		},
		[]string{"status"},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_duration_seconds",
			Help:    "Histogram of outbound fetch latencies, labeled by host.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"host"},
	)

	headlessPromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headless_promotions_total",
			Help: "Search fetches re-run in the headless browser, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limit_delay_seconds",
			Help:    "Histogram of rate limit wait durations, labeled by host.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// SanitizeHost extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveExposureCheck records one exposure check. Outcome is one of
// "exposed", "not_exposed", "empty" or "failed"; rank is recorded only for
// exposed results.
func ObserveExposureCheck(outcome string, rank int) {
	exposureChecksTotal.WithLabelValues(outcome).Inc()
	if rank > 0 {
		exposureRank.Observe(float64(rank))
	}
}

// ObservePostResolution records a permalink lookup against one listing source.
func ObservePostResolution(source, outcome string) {
	postResolutionsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveSheetRow records one spreadsheet row outcome.
func ObserveSheetRow(phase, outcome string) {
	sheetRowsTotal.WithLabelValues(phase, outcome).Inc()
}

// ObserveJobRun increments the run counter for a terminal status.
func ObserveJobRun(status string) {
	jobRunsTotal.WithLabelValues(status).Inc()
}

// ObserveFetch records the latency of an outbound fetch.
func ObserveFetch(rawURL string, duration time.Duration) {
	fetchDurationSeconds.WithLabelValues(SanitizeHost(rawURL)).Observe(duration.Seconds())
}

// ObserveHeadlessPromotion records a plain response handed to the headless
// browser.
func ObserveHeadlessPromotion(outcome string) {
	headlessPromotionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
