// Package metrics exposes Prometheus instrumentation for the realtime channel.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_active_connections",
		Help: "Number of registered live connections.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_active_rooms",
		Help: "Number of rooms in the room directory.",
	})

	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_events_received_total",
		Help: "Inbound realtime events by event name.",
	}, []string{"event"})

	EventsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_events_relayed_total",
		Help: "Outbound events delivered to room connection groups.",
	})

	EventErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_event_errors_total",
		Help: "Malformed inbound events answered with an error event.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
