package interceptor

import (
	"time"

	"github.com/agent-racer/netwatch/internal/classify"
	"github.com/agent-racer/netwatch/internal/status"
	metrics "github.com/rcrowley/go-metrics"
)

// Metrics counts observed outcomes in a go-metrics registry.
type Metrics struct {
	requests    metrics.Meter
	failures    metrics.Meter
	reachable   metrics.Counter
	unreachable metrics.Counter
	roundTrip   metrics.Timer
	registry    metrics.Registry
}

// NewMetrics registers the interceptor's metrics in r, or in a fresh
// registry when r is nil.
func NewMetrics(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	return &Metrics{
		requests:    metrics.GetOrRegisterMeter("requests", r),
		failures:    metrics.GetOrRegisterMeter("requests.failed", r),
		reachable:   metrics.GetOrRegisterCounter("outcomes.connected", r),
		unreachable: metrics.GetOrRegisterCounter("outcomes.disconnected", r),
		roundTrip:   metrics.GetOrRegisterTimer("roundtrip", r),
		registry:    r,
	}
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() metrics.Registry { return m.registry }

func (m *Metrics) record(o classify.Outcome, s status.ConnectionStatus) {
	m.requests.Mark(1)
	if o.Failed {
		m.failures.Mark(1)
		metrics.GetOrRegisterCounter("failures."+o.Kind.String(), m.registry).Inc(1)
	}
	if s.IsDisconnected() {
		m.unreachable.Inc(1)
	} else {
		m.reachable.Inc(1)
	}
}

func (m *Metrics) observeRoundTrip(start time.Time) {
	m.roundTrip.UpdateSince(start)
}
