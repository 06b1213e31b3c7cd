package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics records outcomes and latency of gateway calls plus the
// realtime event volume per table.
type GatewayMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	events   *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Duration of gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"table", "op"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Gateway calls by table, operation and outcome.",
	}, []string{"table", "op", "outcome"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_realtime_events_total",
		Help: "Realtime events delivered to subscribers.",
	}, []string{"table", "kind"})
	reg.MustRegister(duration, calls, events)
	return &GatewayMetrics{
		duration: duration,
		calls:    calls,
		events:   events,
	}
}

// ObserveCall records one gateway call.
func (g *GatewayMetrics) ObserveCall(table, op string, err error, elapsed time.Duration) {
	if g == nil || g.calls == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	g.calls.WithLabelValues(normalizeLabel(table), normalizeLabel(op), outcome).Inc()
	g.duration.WithLabelValues(normalizeLabel(table), normalizeLabel(op)).Observe(elapsed.Seconds())
}

// IncEvent counts a delivered realtime event.
func (g *GatewayMetrics) IncEvent(table, kind string) {
	if g == nil || g.events == nil {
		return
	}
	g.events.WithLabelValues(normalizeLabel(table), normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
