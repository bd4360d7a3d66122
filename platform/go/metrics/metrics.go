// Package metrics exposes the backend's prometheus collectors. Counters
// here track the security- and correctness-critical events: a non-zero
// scope-leak count is an incident, not an operational curiosity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors shared across the persistence and domain
// layers. Construct once in main and inject.
type Metrics struct {
	registry *prometheus.Registry

	SchedulingConflicts  *prometheus.CounterVec
	TenantBindingFailure prometheus.Counter
	ScopeLeaks           prometheus.Counter
	AppointmentsBooked   prometheus.Counter
}

// New builds a Metrics set on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		SchedulingConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixbay_scheduling_conflicts_total",
			Help: "Booking attempts rejected because a resource window overlapped.",
		}, []string{"resource"}),
		TenantBindingFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixbay_tenant_binding_failures_total",
			Help: "Transactions that failed while applying the tenant directive.",
		}),
		ScopeLeaks: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixbay_tenant_scope_leaks_total",
			Help: "Connections found with a residual tenant binding on release.",
		}),
		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixbay_appointments_booked_total",
			Help: "Appointments committed after passing the conflict check.",
		}),
	}
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
