package libevents

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame outcomes, used as the "outcome" label of the frames counter.
const (
	OutcomeDispatched = "dispatched"
	OutcomeMalformed  = "malformed"
	OutcomeUnrouted   = "unrouted"
	OutcomeRejected   = "rejected"
)

// Metrics holds the bridge server's Prometheus collectors.
type Metrics struct {
	FramesTotal      *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	Connections      prometheus.Gauge
}

// NewMetrics creates and registers the bridge collectors on registerer. A
// nil registerer leaves them unregistered, which is handy in tests.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		FramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "libevents",
				Subsystem: "bridge",
				Name:      "frames_total",
				Help:      "Total number of frames received, by outcome",
			},
			[]string{"outcome"},
		),
		DispatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "libevents",
				Subsystem: "bridge",
				Name:      "dispatch_seconds",
				Help:      "Time spent running listeners for one frame",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		Connections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "libevents",
				Subsystem: "bridge",
				Name:      "connections",
				Help:      "Number of open bridge connections",
			},
		),
	}
}

func (m *Metrics) observeFrame(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := frameOutcome(err)
	m.FramesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeDispatched {
		m.DispatchDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func frameOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeDispatched
	case errors.Is(err, ErrMalformedFrame):
		return OutcomeMalformed
	case errors.Is(err, ErrNoRoute):
		return OutcomeUnrouted
	default:
		return OutcomeRejected
	}
}
