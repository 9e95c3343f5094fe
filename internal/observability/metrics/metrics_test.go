package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUpstreamMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpstreamMetrics(reg)
	m.ObserveRequest("GET", "/appointments/me", "ok", 20*time.Millisecond)
	m.ObserveRequest("GET", "/appointments/me", "ok", 30*time.Millisecond)
	m.ObserveRequest("POST", "/appointments/book", "conflict", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/appointments/me", "ok")); got != 2 {
		t.Fatalf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 2 {
		t.Fatalf("expected 2 latency series, got %d", got)
	}
}

func TestPortalMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPortalMetrics(reg)
	m.ObserveAppointmentAction("confirm", "ok")
	m.ObserveWizardGeneration("failed")
	m.ObservePlanReconcile("reverted")

	if got := testutil.ToFloat64(m.wizardOutcomes.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed generation, got %v", got)
	}
	if got := testutil.ToFloat64(m.planReconciles.WithLabelValues("reverted")); got != 1 {
		t.Fatalf("expected 1 reverted reconcile, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var u *UpstreamMetrics
	u.ObserveRequest("GET", "/doctors", "ok", time.Millisecond)

	var p *PortalMetrics
	p.ObserveAppointmentAction("cancel", "ok")
	p.ObserveWizardGeneration("ok")
	p.ObservePlanReconcile("applied")
}
