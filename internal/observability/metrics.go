package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	apiRequestsTotal          *prometheus.CounterVec
	apiLatencySeconds         *prometheus.HistogramVec
	aggregationRequestsTotal  *prometheus.CounterVec
	aggregationLatencySeconds *prometheus.HistogramVec
	aggregationItems          *prometheus.HistogramVec
)

// Aggregation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// RegisterMetrics initialises the Prometheus collectors of the API and the aggregation engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		aggregationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregation_requests_total",
			Help: "Total number of source adapter invocations by outcome.",
		}, []string{"source", "outcome"})

		aggregationLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aggregation_latency_seconds",
			Help:    "Latency distribution of source adapter invocations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"source"})

		aggregationItems = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aggregation_items",
			Help:    "Number of items returned by source adapters.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"source"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			aggregationRequestsTotal,
			aggregationLatencySeconds,
			aggregationItems,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// AggregationRequests exposes the counter of adapter invocations.
func AggregationRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return aggregationRequestsTotal
}

// AggregationLatency exposes the adapter latency histogram.
func AggregationLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return aggregationLatencySeconds
}

// AggregationItems exposes the histogram of adapter result sizes.
func AggregationItems() *prometheus.HistogramVec {
	RegisterMetrics()
	return aggregationItems
}

// ObserveAggregation records one adapter invocation.
func ObserveAggregation(source string, seconds float64, items int, err error) {
	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = OutcomeError
	case items == 0:
		outcome = OutcomeEmpty
	}

	AggregationRequests().WithLabelValues(source, outcome).Inc()
	AggregationLatency().WithLabelValues(source).Observe(seconds)
	if err == nil {
		AggregationItems().WithLabelValues(source).Observe(float64(items))
	}
}
