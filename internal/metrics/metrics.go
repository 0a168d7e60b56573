// Package metrics exposes Prometheus instrumentation for analyses, provider
// fetches and HTTP requests.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"channel-insight-service/internal/domain"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeCached   = "cached"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

var (
	// Analysis Metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_analyses_total",
			Help: "Total number of analyses by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: channel, comparison
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "channel_analysis_duration_seconds",
			Help:    "Duration of analyses including provider fetch, in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	SkippedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_records_skipped_total",
			Help: "Raw records dropped during normalization",
		},
	)

	ExcludedVideos = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_videos_excluded_total",
			Help: "Videos excluded from classification (zero views or missing stats)",
		},
	)

	DataQualityWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_data_quality_warnings_total",
			Help: "Data quality warnings by code",
		},
		[]string{"code"},
	)

	// Provider Metrics
	ProviderFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fetches_total",
			Help: "Provider channel fetches by provider and result",
		},
		[]string{"provider", "result"}, // result: ok, not_found, rate_limited, unavailable, error
	)

	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_fetch_duration_seconds",
			Help:    "Provider channel fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// Refresh Metrics
	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_refresh_runs_total",
			Help: "Refresh runs by outcome",
		},
		[]string{"outcome"},
	)

	RefreshedChannels = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_refreshed_total",
			Help: "Channels refreshed successfully",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordAnalysis records one channel or comparison analysis.
func RecordAnalysis(kind, outcome string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeCached {
		AnalysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// RecordDiagnostics adds the drop counters of one analysis.
func RecordDiagnostics(d domain.Diagnostics) {
	SkippedRecords.Add(float64(d.Skipped))
	ExcludedVideos.Add(float64(d.Excluded))
	for _, w := range d.Warnings {
		DataQualityWarnings.WithLabelValues(string(w.Code)).Inc()
	}
}

// RecordProviderFetch records a provider call and classifies its error.
func RecordProviderFetch(provider string, duration time.Duration, err error) {
	ProviderFetchesTotal.WithLabelValues(provider, FetchResult(err)).Inc()
	ProviderFetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// FetchResult maps a provider error onto a low-cardinality label.
func FetchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// RecordRefresh records a refresh run.
func RecordRefresh(refreshed, failed int) {
	outcome := OutcomeOK
	if failed > 0 {
		outcome = OutcomeError
	}
	RefreshRunsTotal.WithLabelValues(outcome).Inc()
	RefreshedChannels.Add(float64(refreshed))
}

// Middleware records request counts and latency by route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		APIRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		APIRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
