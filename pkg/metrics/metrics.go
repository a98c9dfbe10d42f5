package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
	StatusAborted = "aborted"
)

// Chat holds the collectors for the chat streaming path. A nil *Chat is a
// valid no-op recorder.
type Chat struct {
	turns         *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	activeStreams prometheus.Gauge
	envelopes     *prometheus.CounterVec
	disconnects   prometheus.Counter
	registerer    prometheus.Registerer
}

func NewChat(reg prometheus.Registerer) *Chat {
	factory := promauto.With(reg)
	return &Chat{
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Chat turns by terminal status",
		}, []string{"status"}),
		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Wall time of a chat turn from lock to final envelope",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"status"}),
		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_active_streams",
			Help: "Chat responses currently streaming",
		}),
		envelopes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_envelopes_total",
			Help: "Stream envelopes written by type",
		}, []string{"type"}),
		disconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_client_disconnects_total",
			Help: "Turns abandoned because the client stopped reading",
		}),
		registerer: reg,
	}
}

// RegisterSessionGauge exposes the live session count through fn.
func (c *Chat) RegisterSessionGauge(fn func() int) {
	if c == nil || fn == nil {
		return
	}
	promauto.With(c.registerer).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "chat_sessions",
		Help: "Sessions held in memory",
	}, func() float64 {
		return float64(fn())
	})
}

// StreamStarted marks a stream as active and returns the func that ends it.
func (c *Chat) StreamStarted() func() {
	if c == nil {
		return func() {}
	}
	c.activeStreams.Inc()
	return c.activeStreams.Dec
}

func (c *Chat) ObserveTurn(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.turns.WithLabelValues(status).Inc()
	c.turnDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (c *Chat) ObserveEnvelope(kind string) {
	if c == nil {
		return
	}
	c.envelopes.WithLabelValues(kind).Inc()
}

func (c *Chat) ClientDisconnected() {
	if c == nil {
		return
	}
	c.disconnects.Inc()
}
