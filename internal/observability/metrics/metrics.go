package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics exposes counters/histograms for calls to the REST API.
type UpstreamMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ayurdiet",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total calls to the REST API",
		}, []string{"method", "route", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ayurdiet",
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Latency of calls to the REST API",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

// ObserveRequest records one remote call. route should be the templated path
// (for example /appointments/{id}/confirm) to keep label cardinality bounded.
func (m *UpstreamMetrics) ObserveRequest(method, route, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, outcome).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// PortalMetrics exposes counters for domain actions driven through the portal.
type PortalMetrics struct {
	appointmentActions *prometheus.CounterVec
	wizardOutcomes     *prometheus.CounterVec
	planReconciles     *prometheus.CounterVec
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		appointmentActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ayurdiet",
			Subsystem: "appointments",
			Name:      "actions_total",
			Help:      "Appointment lifecycle actions requested through the portal",
		}, []string{"action", "outcome"}),
		wizardOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ayurdiet",
			Subsystem: "wizard",
			Name:      "generations_total",
			Help:      "Diet plan generations triggered by the wizard",
		}, []string{"outcome"}),
		planReconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ayurdiet",
			Subsystem: "diet_plans",
			Name:      "status_reconciles_total",
			Help:      "Diet plan status changes and how they were reconciled",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentActions, m.wizardOutcomes, m.planReconciles)
	return m
}

func (m *PortalMetrics) ObserveAppointmentAction(action, outcome string) {
	if m == nil {
		return
	}
	m.appointmentActions.WithLabelValues(action, outcome).Inc()
}

func (m *PortalMetrics) ObserveWizardGeneration(outcome string) {
	if m == nil {
		return
	}
	m.wizardOutcomes.WithLabelValues(outcome).Inc()
}

func (m *PortalMetrics) ObservePlanReconcile(outcome string) {
	if m == nil {
		return
	}
	m.planReconciles.WithLabelValues(outcome).Inc()
}
