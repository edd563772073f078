package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// Metrics holds the Prometheus collectors of the delivery pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	persisted        prometheus.Counter
	persistFailures  prometheus.Counter
	deliveries       *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	liveConnections  prometheus.Gauge
	liveUsers        prometheus.Gauge
}

// NewMetrics creates and registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		persisted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "events_persisted_total",
			Help:      "Notifications appended to the event log.",
		}),
		persistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "events_persist_failures_total",
			Help:      "Notifications rejected because the event log was unavailable.",
		}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "deliveries_total",
			Help:      "Channel delivery attempts by outcome.",
		}, []string{"channel", "outcome"}),
		deliveryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notifier",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent in a single channel delivery.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		liveConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "notifier",
			Name:      "live_connections",
			Help:      "Open live connections.",
		}),
		liveUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "notifier",
			Name:      "live_users",
			Help:      "Users with at least one open live connection.",
		}),
	}
}

func (m *Metrics) persistedInc() {
	if m != nil {
		m.persisted.Inc()
	}
}

func (m *Metrics) persistFailedInc() {
	if m != nil {
		m.persistFailures.Inc()
	}
}

func (m *Metrics) delivery(channel ChannelKind, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(string(channel), outcome).Inc()
	m.deliveryDuration.WithLabelValues(string(channel)).Observe(took.Seconds())
}

func (m *Metrics) connectionsAdd(delta float64) {
	if m != nil {
		m.liveConnections.Add(delta)
	}
}

func (m *Metrics) usersAdd(delta float64) {
	if m != nil {
		m.liveUsers.Add(delta)
	}
}
