package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all MB Events metrics
const namespace = "mbevents"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// EventsCreatedTotal counts events created through the API
var EventsCreatedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of events created",
	},
)

// AttendanceRecordedTotal counts successful event registrations
var AttendanceRecordedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_recorded_total",
		Help:      "Total number of event registrations recorded",
	},
)

// AuthAttemptsTotal counts authentication attempts by outcome
var AuthAttemptsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts",
	},
	[]string{"outcome"}, // outcome: success|failure
)

// EmailsSentTotal counts transactional emails by kind and outcome
var EmailsSentTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of transactional email sends",
	},
	[]string{"kind", "outcome"}, // kind: welcome|reset, outcome: sent|failed
)

// Init registers runtime collectors with the registry.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler exposes the registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
