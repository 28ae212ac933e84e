package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the service-local registry exposed on /api/metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Custom histogram buckets tuned for request times from milliseconds up
	// to slow upstream calls.
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Upstream marketplace API metrics
	UpstreamRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_client_operation_duration_seconds",
			Help:    "Marketplace API operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	UpstreamRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_client_operation_total",
			Help: "Total number of marketplace API operations",
		},
		[]string{"operation", "status"},
	)

	// Catalog cache metrics
	CatalogCacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Session-type catalog cache hits",
		},
	)

	CatalogCacheMisses = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Session-type catalog cache misses",
		},
	)

	// Booking flow metrics
	DialogsOpen = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_dialogs_open",
			Help: "Number of booking dialogs currently open",
		},
	)

	DialogsOpened = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_dialogs_opened_total",
			Help: "Total number of booking dialogs opened",
		},
	)

	StageTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_stage_transitions_total",
			Help: "Wizard stage transitions by direction and outcome",
		},
		[]string{"direction", "result"},
	)

	AvailabilityLoads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_availability_loads_total",
			Help: "Availability fetches by outcome",
		},
		[]string{"status"},
	)

	StaleAvailabilityDrops = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_availability_stale_drops_total",
			Help: "Availability responses discarded because a newer fetch superseded them",
		},
	)

	BookingSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_submissions_total",
			Help: "Booking submissions by outcome",
		},
		[]string{"status"},
	)

	RescheduleSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reschedules_total",
			Help: "Reschedule submissions by outcome",
		},
		[]string{"status"},
	)

	// Infrastructure metrics
	GoroutineCount = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_runtime_goroutines",
			Help: "Number of running goroutines",
		},
	)
)

// Init registers the standard process and Go runtime collectors.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// MeasureDuration returns elapsed seconds since start, for histogram
// observations.
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// RecordInfrastructureMetrics starts a background sampler for runtime gauges
// not covered by the standard collectors.
func RecordInfrastructureMetrics() {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}()
}
