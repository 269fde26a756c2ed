package core

import "time"

// Event is the interface for all queue events.
type Event interface {
	eventMarker()
}

// JobStarted is emitted when the first attempt of a job begins.
type JobStarted struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobStarted) eventMarker() {}

// JobSucceeded is emitted when a job completes successfully.
type JobSucceeded struct {
	Job       *Job
	Attempts  int
	Duration  time.Duration
	Timestamp time.Time
}

func (*JobSucceeded) eventMarker() {}

// JobFatal is emitted when a job ends on the fatal path. The job is
// considered handled, not rescheduled.
type JobFatal struct {
	Job       *Job
	Attempts  int
	Error     error
	Timestamp time.Time
}

func (*JobFatal) eventMarker() {}

// JobRetrying is emitted after a retryable failure, before the backoff
// delay for the next attempt.
type JobRetrying struct {
	Job       *Job
	Attempt   int
	Error     error
	NextDelay time.Duration
	Timestamp time.Time
}

func (*JobRetrying) eventMarker() {}
