package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	EtsyRequests      *prometheus.CounterVec
	EtsyLatency       *prometheus.HistogramVec
	OpenAIRequests    *prometheus.CounterVec
	OpenAILatency     *prometheus.HistogramVec
	OrdersSynced      *prometheus.CounterVec
	ReadingsGenerated *prometheus.CounterVec
	MessagesSent      *prometheus.CounterVec
	Errors            *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			EtsyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "etsy_requests_total",
				Help:      "Total Etsy API requests by endpoint and status.",
			}, []string{"endpoint", "status"}),
			EtsyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "etsy_request_duration_seconds",
				Help:      "Latency distribution for Etsy API requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"endpoint", "status"}),
			OpenAIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "openai_requests_total",
				Help:      "Total OpenAI API requests by outcome.",
			}, []string{"status"}),
			OpenAILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "openai_request_duration_seconds",
				Help:      "Latency distribution for OpenAI API calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			OrdersSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_synced_total",
				Help:      "Order sync outcomes by result (new, skipped, error).",
			}, []string{"result"}),
			ReadingsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "readings_generated_total",
				Help:      "Reading generation attempts by outcome.",
			}, []string{"status"}),
			MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "buyer_messages_sent_total",
				Help:      "Messages delivered to buyers by outcome.",
			}, []string{"status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.EtsyRequests,
			metricsInstance.EtsyLatency,
			metricsInstance.OpenAIRequests,
			metricsInstance.OpenAILatency,
			metricsInstance.OrdersSynced,
			metricsInstance.ReadingsGenerated,
			metricsInstance.MessagesSent,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
