package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChangeEventsTotal counts change-feed events published by type.
	ChangeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wall_change_events_total",
		Help: "Total number of change-feed events published by event type",
	}, []string{"event"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wall_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
