package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	ChatIncoming    *prometheus.CounterVec
	ChatOutgoing    *prometheus.CounterVec
	Commands        *prometheus.CounterVec
	ProductSync     *prometheus.CounterVec
	PresenceUpdates *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = newMetrics(namespace)
		prometheus.MustRegister(metricsInstance.collectors()...)
	})
	return metricsInstance
}

func newMetrics(namespace string) *Metrics {
	return &Metrics{
		ChatIncoming: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discord_incoming_events_total",
			Help:      "Total Discord gateway events processed.",
		}, []string{"type"}),
		ChatOutgoing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discord_outgoing_messages_total",
			Help:      "Total messages sent to Discord.",
		}, []string{"type"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands and button actions by outcome.",
		}, []string{"command", "outcome"}),
		ProductSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_sync_events_total",
			Help:      "Product sync subscription statuses and notifications.",
		}, []string{"status"}),
		PresenceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_updates_total",
			Help:      "Presence refreshes by outcome.",
		}, []string{"outcome"}),
		StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Latency distribution for store gateway operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors grouped by component.",
		}, []string{"component"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ChatIncoming,
		m.ChatOutgoing,
		m.Commands,
		m.ProductSync,
		m.PresenceUpdates,
		m.StoreLatency,
		m.Errors,
	}
}

// Command records the outcome of a command or button action. Safe on a nil receiver.
func (m *Metrics) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
}

// Error counts an error for component. Safe on a nil receiver.
func (m *Metrics) Error(component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component).Inc()
}

// Outgoing counts a message sent to Discord. Safe on a nil receiver.
func (m *Metrics) Outgoing(kind string) {
	if m == nil {
		return
	}
	m.ChatOutgoing.WithLabelValues(kind).Inc()
}

// Incoming counts a gateway event. Safe on a nil receiver.
func (m *Metrics) Incoming(kind string) {
	if m == nil {
		return
	}
	m.ChatIncoming.WithLabelValues(kind).Inc()
}

// ProductSyncEvent counts a product feed status or notification. Safe on a nil receiver.
func (m *Metrics) ProductSyncEvent(status string) {
	if m == nil {
		return
	}
	m.ProductSync.WithLabelValues(status).Inc()
}

// Presence counts a presence refresh. Safe on a nil receiver.
func (m *Metrics) Presence(outcome string) {
	if m == nil {
		return
	}
	m.PresenceUpdates.WithLabelValues(outcome).Inc()
}
