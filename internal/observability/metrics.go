// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Feed metrics
	EventsRecorded  *prometheus.CounterVec
	RecordErrors    *prometheus.CounterVec
	EnvelopesBuilt  *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec

	// Bootstrap metrics
	BootstrapDuration prometheus.Histogram
	BootstrapErrors   prometheus.Counter

	// Websocket metrics
	WSClients        prometheus.Gauge
	WSMessagesSent   prometheus.Counter
	WSClientsDropped *prometheus.CounterVec

	// Health metrics
	LastPublished prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "coin_feed"
	}
	f := promauto.With(reg)

	return &Metrics{
		EventsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_recorded_total",
			Help:      "Total number of rows persisted by the recorder, by kind",
		}, []string{"kind"}),
		RecordErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "record_errors_total",
			Help:      "Total number of recorder failures by kind and stage",
		}, []string{"kind", "stage"}),
		EnvelopesBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "envelopes_built_total",
			Help:      "Total number of envelopes assembled, by kind",
		}, []string{"kind"}),
		PublishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "publish_failures_total",
			Help:      "Total number of envelopes that failed to publish, by kind",
		}, []string{"kind"}),

		BootstrapDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "snapshot_duration_seconds",
			Help:      "Bootstrap snapshot latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		BootstrapErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "snapshot_errors_total",
			Help:      "Total number of failed bootstrap snapshots",
		}),

		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Number of connected websocket clients",
		}),
		WSMessagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_sent_total",
			Help:      "Total number of envelopes written to websocket clients",
		}),
		WSClientsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients_dropped_total",
			Help:      "Total number of websocket clients disconnected by the server, by reason",
		}, []string{"reason"}),

		LastPublished: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_published_timestamp",
			Help:      "Unix timestamp of the last successfully published envelope",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEvent counts a persisted row.
func (m *Metrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(kind).Inc()
}

// RecordError counts a recorder failure at the given stage.
func (m *Metrics) RecordError(kind, stage string) {
	if m == nil {
		return
	}
	m.RecordErrors.WithLabelValues(kind, stage).Inc()
}

// RecordEnvelope counts an assembled envelope.
func (m *Metrics) RecordEnvelope(kind string) {
	if m == nil {
		return
	}
	m.EnvelopesBuilt.WithLabelValues(kind).Inc()
}

// RecordPublish records the outcome of publishing an envelope.
func (m *Metrics) RecordPublish(kind string, unixSeconds float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishFailures.WithLabelValues(kind).Inc()
		return
	}
	m.LastPublished.Set(unixSeconds)
}

// RecordBootstrap records a bootstrap snapshot.
func (m *Metrics) RecordBootstrap(seconds float64, err error) {
	if m == nil {
		return
	}
	m.BootstrapDuration.Observe(seconds)
	if err != nil {
		m.BootstrapErrors.Inc()
	}
}

// ClientConnected increments the websocket client gauge.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WSClients.Inc()
}

// ClientDisconnected decrements the websocket client gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WSClients.Dec()
}

// ClientDropped counts a server-initiated disconnect.
func (m *Metrics) ClientDropped(reason string) {
	if m == nil {
		return
	}
	m.WSClientsDropped.WithLabelValues(reason).Inc()
}

// MessageSent counts an envelope written to a websocket client.
func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.WSMessagesSent.Inc()
}
