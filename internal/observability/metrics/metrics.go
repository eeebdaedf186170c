package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for the relay surface.
type CallMetrics struct {
	callsInitiated *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		callsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "relay",
			Name:      "calls_initiated_total",
			Help:      "Total outbound call initiation attempts",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "relay",
			Name:      "webhook_events_total",
			Help:      "Total inbound webhook events",
		}, []string{"kind", "event"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicebridge",
			Subsystem: "relay",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsInitiated, m.webhookEvents, m.webhookLatency)
	return m
}

func (m *CallMetrics) ObserveCallInitiated(outcome string) {
	if m == nil {
		return
	}
	m.callsInitiated.WithLabelValues(outcome).Inc()
}

func (m *CallMetrics) ObserveWebhook(kind, event string, seconds float64) {
	if m == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	m.webhookEvents.WithLabelValues(kind, event).Inc()
	m.webhookLatency.WithLabelValues(kind).Observe(seconds)
}
