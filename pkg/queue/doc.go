// Package queue provides the Queue orchestrator: handler registration,
// enqueueing, recurring schedules, lifecycle hooks, and the event stream.
package queue
