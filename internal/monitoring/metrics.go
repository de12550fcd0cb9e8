package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbon_footprint_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"handler", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carbon_footprint_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"handler"},
	)

	// Footprint metrics
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbon_footprint_estimates_total",
			Help: "Total number of footprints computed",
		},
		[]string{"format"},
	)

	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbon_footprint_decode_errors_total",
			Help: "Total number of requests whose inputs could not be decoded",
		},
		[]string{"source"},
	)
)

func RecordHTTPRequest(handler string, code int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(handler, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

func RecordEstimate(format string) {
	EstimatesTotal.WithLabelValues(format).Inc()
}

func RecordDecodeError(source string) {
	DecodeErrorsTotal.WithLabelValues(source).Inc()
}
