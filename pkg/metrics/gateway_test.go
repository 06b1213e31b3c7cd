package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) []*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return fam.GetMetric()
		}
	}
	return nil
}

func TestObserveCallOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGatewayMetrics(reg)

	m.ObserveCall("notifications", "select", nil, 5*time.Millisecond)
	m.ObserveCall("notifications", "select", errors.New("boom"), time.Millisecond)

	metrics := gatherCounter(t, reg, "gateway_calls_total")
	if len(metrics) != 2 {
		t.Fatalf("expected ok and error series, got %d", len(metrics))
	}
	var total float64
	for _, metric := range metrics {
		total += metric.GetCounter().GetValue()
	}
	if total != 2 {
		t.Fatalf("expected 2 observations, got %v", total)
	}
}

func TestIncEventLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGatewayMetrics(reg)
	m.IncEvent("messages", "INSERT")
	m.IncEvent("", "")

	metrics := gatherCounter(t, reg, "gateway_realtime_events_total")
	if len(metrics) != 2 {
		t.Fatalf("expected 2 series, got %d", len(metrics))
	}
	for _, metric := range metrics {
		for _, label := range metric.GetLabel() {
			if label.GetValue() == "" {
				t.Fatal("empty labels must normalize to unknown")
			}
		}
	}
}

func TestNilReceiverSafe(t *testing.T) {
	var m *GatewayMetrics
	m.ObserveCall("t", "op", nil, 0)
	m.IncEvent("t", "k")

	empty := NewGatewayMetrics(nil)
	empty.ObserveCall("t", "op", nil, 0)
}
