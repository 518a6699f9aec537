package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons recorded on rejected frames
const (
	ReasonMalformed  = "malformed"
	ReasonUnknown    = "unknown_kind"
	ReasonInvalid    = "invalid_move"
	ReasonDuplicate  = "duplicate_submission"
	ReasonOutOfOrder = "out_of_order"
)

// Metrics are the realtime server's prometheus collectors
type Metrics struct {
	ConnectedClients prometheus.Gauge
	RoundsResolved   prometheus.Counter
	FramesRejected   *prometheus.CounterVec

	ConnectionDuration prometheus.Histogram
}

// NewMetrics registers the realtime collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "handgame_connected_clients",
			Help: "Number of players with an open game connection.",
		}),
		RoundsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "handgame_rounds_resolved_total",
			Help: "Rounds for which a result was broadcast.",
		}),
		FramesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "handgame_frames_rejected_total",
			Help: "Player frames answered with an error, by reason.",
		}, []string{"reason"}),
		ConnectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "handgame_connection_duration_seconds",
			Help:    "How long players stayed connected to a room.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}
