package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the prometheus instruments the services report into.
// All instruments are registered on a private registry so tests can build
// independent collectors without duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	logins            *prometheus.CounterVec
	documentsCreated  prometheus.Counter
	documentsUpdated  prometheus.Counter
	requestsCreated   prometheus.Counter
	statusTransitions *prometheus.CounterVec
	grdsIssued        prometheus.Counter
	idRetries         *prometheus.CounterVec
	opLatency         *prometheus.HistogramVec
}

// NewCollector builds and registers all application metrics.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscriptum_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		documentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docscriptum_documents_created_total",
			Help: "Documents created.",
		}),
		documentsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docscriptum_documents_updated_total",
			Help: "Document update operations (each one bumps the edit counter).",
		}),
		requestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docscriptum_requests_created_total",
			Help: "Document requests created.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscriptum_request_status_transitions_total",
			Help: "Request status transitions by target status.",
		}, []string{"to"}),
		grdsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docscriptum_grds_issued_total",
			Help: "Delivery receipts (GRDs) issued.",
		}),
		idRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscriptum_identifier_retries_total",
			Help: "Collision retries while generating unique identifiers.",
		}, []string{"domain"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docscriptum_operation_duration_seconds",
			Help:    "Latency of service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.logins,
		c.documentsCreated,
		c.documentsUpdated,
		c.requestsCreated,
		c.statusTransitions,
		c.grdsIssued,
		c.idRetries,
		c.opLatency,
	)

	return c
}

// Registry exposes the underlying registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) DocumentCreated() {
	c.documentsCreated.Inc()
}

func (c *Collector) DocumentUpdated() {
	c.documentsUpdated.Inc()
}

func (c *Collector) RequestCreated() {
	c.requestsCreated.Inc()
}

func (c *Collector) StatusTransition(to string) {
	c.statusTransitions.WithLabelValues(to).Inc()
}

func (c *Collector) GRDIssued() {
	c.grdsIssued.Inc()
}

func (c *Collector) IdentifierRetry(domain string) {
	c.idRetries.WithLabelValues(domain).Inc()
}

func (c *Collector) ObserveLatency(operation string, d time.Duration) {
	c.opLatency.WithLabelValues(operation).Observe(d.Seconds())
}
