package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCallMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCallMetrics(reg)

	m.ObserveCallInitiated("ok")
	m.ObserveCallInitiated("dial_error")
	m.ObserveWebhook("json", "transcription", 0.05)
	m.ObserveWebhook("form", "", 0.01)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"voicebridge_relay_calls_initiated_total",
		"voicebridge_relay_webhook_events_total",
		"voicebridge_relay_webhook_latency_seconds",
	} {
		if !found[name] {
			t.Errorf("missing metric family %s", name)
		}
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *CallMetrics
	m.ObserveCallInitiated("ok")
	m.ObserveWebhook("json", "transcription", 0.1)
}
