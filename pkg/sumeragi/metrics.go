package sumeragi

import "github.com/prometheus/client_golang/prometheus"

// metrics are the counters spec §4.1/§5 name by value (committed_count,
// panic_count) plus the queue-depth gauge, exported the way client_golang
// intends: registered once, read never (a teacher dependency the teacher
// itself listed but never wired — see DESIGN.md).
type metrics struct {
	committedCount prometheus.Counter
	panicCount     prometheus.Counter
	queueDepth     prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		committedCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sumeragi",
			Name:      "committed_count",
			Help:      "Total number of transactions committed by this replica.",
		}),
		panicCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sumeragi",
			Name:      "panic_count",
			Help:      "Total number of panic-timer broadcasts triggered by this replica.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sumeragi",
			Name:      "intake_queue_depth",
			Help:      "Number of events currently queued or in flight in the intake pool.",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.committedCount, m.panicCount, m.queueDepth)
	return m
}
