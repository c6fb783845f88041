package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes server counters on the prometheus registry.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	AttachedClients  prometheus.Gauge
	ProximityEvents  *prometheus.CounterVec
	ForwardedSignals prometheus.Counter
	DroppedFrames    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voice_active_sessions",
			Help: "Registered voice sessions.",
		}),
		AttachedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voice_attached_clients",
			Help: "Sessions with a live signaling connection.",
		}),
		ProximityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_proximity_events_total",
			Help: "Proximity events emitted, by kind.",
		}, []string{"kind"}),
		ForwardedSignals: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_forwarded_signals_total",
			Help: "Offer/answer/candidate messages relayed between peers.",
		}),
		DroppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_dropped_frames_total",
			Help: "Outbound frames dropped on backpressure or closed connections.",
		}),
	}
}
