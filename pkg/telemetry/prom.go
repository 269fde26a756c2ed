package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink emits counters and timers to prometheus. Counter names become the
// "event" label so that one vector covers the executor's whole event set
// (success, fatal, timeout, task_error) per queue.
type PromSink struct {
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPromSink creates a PromSink registered against reg.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	s := &PromSink{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskloop",
				Subsystem: "jobs",
				Name:      "events_total",
				Help:      "Total job lifecycle events by queue and event",
			},
			[]string{"queue", "event"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskloop",
				Subsystem: "jobs",
				Name:      "duration_seconds",
				Help:      "Observed durations by queue and timer name",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue", "timer"},
		),
	}

	reg.MustRegister(s.events, s.durations)
	return s
}

// Incr increments the event counter for the tag set's queue.
func (s *PromSink) Incr(name string, tags map[string]string) {
	s.events.WithLabelValues(tags[TagQueue], name).Inc()
}

// Timing records a duration observation for the tag set's queue.
func (s *PromSink) Timing(name string, d time.Duration, tags map[string]string) {
	s.durations.WithLabelValues(tags[TagQueue], name).Observe(d.Seconds())
}
