package core

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors
var (
	ErrInvalidJobTypeName = errors.New("taskloop: invalid job type name (must be alphanumeric, start with letter)")
	ErrJobTypeNameTooLong = errors.New("taskloop: job type name too long")
	ErrInvalidQueueName   = errors.New("taskloop: invalid queue name")
	ErrQueueNameTooLong   = errors.New("taskloop: queue name too long")
	ErrJobPayloadTooLarge = errors.New("taskloop: job payload exceeds size limit")
	ErrJobNotOwned        = errors.New("taskloop: job not owned by this worker")
)

// ValidationError reports a missing or invalid construction option. It is
// the only error that escapes executor construction synchronously.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("taskloop: invalid option %q: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// FatalError is the task's signal that a failure is unrecoverable and must
// not be retried. The executor completes the job on the fatal path instead
// of scheduling another attempt.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps an error to indicate it should not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error carries the fatal signal.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// TimeoutError indicates an attempt exceeded its configured deadline. A
// timeout is never fatal by itself: the executor treats it as retryable.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task timed out after %v", e.Timeout)
}

// IsTimeout checks if an error is the executor's timeout signal.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// TaskError is a retryable task failure enriched with enough context for the
// reporting sink: queue name, correlation id, and the job payload. Fields
// are filled in only when absent, never overwritten.
type TaskError struct {
	Err     error
	Queue   string
	Tid     string
	Payload []byte
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("queue %s: %v", e.Queue, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// causer is the wrapping convention used by some error libraries. When a
// task hands back a wrapped error, the cause is what gets reported.
type causer interface {
	Cause() error
}

// EnrichTaskError normalizes a retryable failure before reporting: unwraps a
// wrapping cause if present, then ensures queue, correlation id, and payload
// context are attached. An already-enriched error keeps its existing fields.
func EnrichTaskError(err error, job *Job, queue string) *TaskError {
	if err == nil {
		return nil
	}

	var te *TaskError
	if !errors.As(err, &te) {
		if c, ok := err.(causer); ok && c.Cause() != nil {
			err = c.Cause()
		}
		te = &TaskError{Err: err}
	}

	if te.Queue == "" {
		te.Queue = queue
	}
	if job != nil {
		if te.Tid == "" {
			te.Tid = job.ID
		}
		if te.Payload == nil {
			te.Payload = job.Payload
		}
	}
	return te
}
