package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "artisanhub", Name: "events_delivered_total", Help: "Events delivered to live connections"},
		[]string{"event"},
	)
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "artisanhub", Name: "events_dropped_total", Help: "Events dropped because the recipient was unreachable"},
		[]string{"event"},
	)
	ConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "artisanhub", Name: "connections_open", Help: "Open live connections"},
	)
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "artisanhub", Name: "booking_transitions_total", Help: "Booking status transitions applied"},
		[]string{"status"},
	)
)
