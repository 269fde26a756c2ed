package telemetry

import "time"

// Sink receives counters and timers. Implementations must be safe for
// concurrent use from many executors.
type Sink interface {
	// Incr increments a counter by one.
	Incr(name string, tags map[string]string)

	// Timing records a duration observation.
	Timing(name string, d time.Duration, tags map[string]string)
}

// NopSink discards all emissions. Selected when monitoring is globally
// disabled.
type NopSink struct{}

func (NopSink) Incr(string, map[string]string)                 {}
func (NopSink) Timing(string, time.Duration, map[string]string) {}

// Scope binds a Sink to one queue's derived tag set so that callers emit
// with a name only.
type Scope struct {
	sink Sink
	tags map[string]string
}

// NewScope derives the tag hierarchy for queue once and reuses it on every
// emission. A nil sink yields a no-op scope.
func NewScope(sink Sink, queue string) *Scope {
	if sink == nil {
		sink = NopSink{}
	}
	return &Scope{
		sink: sink,
		tags: DeriveTags(queue),
	}
}

// Incr increments the named counter with the scope's tags.
func (s *Scope) Incr(name string) {
	s.sink.Incr(name, s.tags)
}

// Timing records a duration with the scope's tags.
func (s *Scope) Timing(name string, d time.Duration) {
	s.sink.Timing(name, d, s.tags)
}

// Tags returns the scope's derived tag set.
func (s *Scope) Tags() map[string]string {
	return s.tags
}
