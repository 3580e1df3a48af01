// Package metrics exposes Prometheus instrumentation for provider calls,
// segment transfers and extraction runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider API
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asc_provider_requests_total",
			Help: "Total number of App Store Connect API requests",
		},
		[]string{"method", "status_code"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asc_provider_request_duration_seconds",
			Help:    "App Store Connect API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asc_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// Segment transfer
	SegmentsDownloaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asc_segments_downloaded_total",
			Help: "Total number of report segments downloaded and decompressed",
		},
		[]string{"kind"},
	)

	SegmentBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asc_segment_bytes_total",
			Help: "Compressed bytes downloaded across all segments",
		},
	)

	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asc_rows_processed_total",
			Help: "CSV rows by report kind and outcome",
		},
		[]string{"kind", "outcome"}, // counted, out_of_window, invalid_date, duplicate, unmatched
	)

	InstancesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asc_instances_skipped_total",
			Help: "Report instances skipped because their segments were not yet available",
		},
		[]string{"kind"},
	)

	// Extraction runs
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asc_extraction_duration_seconds",
			Help:    "Duration of a full extraction run in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	ExtractionRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asc_extraction_records_total",
			Help: "Total number of per-date records emitted",
		},
	)

	ExtractionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asc_extraction_errors_total",
			Help: "Total number of failed extraction runs",
		},
		[]string{"error_type"},
	)

	ExtractionLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asc_extraction_last_success_timestamp",
			Help: "Unix timestamp of the last successful extraction",
		},
	)
)

// RecordProviderRequest records one provider API call. statusCode 0 means transport failure.
func RecordProviderRequest(method string, statusCode int, d time.Duration) {
	ProviderRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	ProviderRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordRow counts one CSV row outcome for a report kind.
func RecordRow(kind, outcome string) {
	RowsProcessed.WithLabelValues(kind, outcome).Inc()
}

// RecordExtraction records a finished run.
func RecordExtraction(d time.Duration, records int, errType string) {
	ExtractionDuration.Observe(d.Seconds())
	if errType != "" {
		ExtractionErrors.WithLabelValues(errType).Inc()
		return
	}
	ExtractionRecords.Add(float64(records))
	ExtractionLastSuccess.SetToCurrentTime()
}
