package taskloop

import (
	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/security"
)

// Error type aliases
type (
	// FatalError is the task's do-not-retry signal.
	FatalError = core.FatalError

	// TimeoutError indicates an attempt exceeded its deadline.
	TimeoutError = core.TimeoutError

	// TaskError is a retryable failure enriched with queue, tid, and payload.
	TaskError = core.TaskError

	// ValidationError reports a missing or invalid construction option.
	ValidationError = core.ValidationError

	// Outcome classifies a finished attempt.
	Outcome = core.Outcome
)

// Outcome constants
const (
	OutcomeSuccess   = core.OutcomeSuccess
	OutcomeFatal     = core.OutcomeFatal
	OutcomeTimeout   = core.OutcomeTimeout
	OutcomeRetryable = core.OutcomeRetryable
)

// Error variables
var (
	ErrInvalidJobTypeName = core.ErrInvalidJobTypeName
	ErrJobTypeNameTooLong = core.ErrJobTypeNameTooLong
	ErrInvalidQueueName   = core.ErrInvalidQueueName
	ErrQueueNameTooLong   = core.ErrQueueNameTooLong
	ErrJobPayloadTooLarge = core.ErrJobPayloadTooLarge
	ErrJobNotOwned        = core.ErrJobNotOwned
)

// Security limits
const (
	MaxJobTypeNameLength  = security.MaxJobTypeNameLength
	MaxJobPayloadSize     = security.MaxJobPayloadSize
	MaxConcurrency        = security.MaxConcurrency
	MaxErrorMessageLength = security.MaxErrorMessageLength
	MaxQueueNameLength    = security.MaxQueueNameLength
)

// Fatal wraps an error to indicate it should not be retried.
func Fatal(err error) error {
	return core.Fatal(err)
}

// IsFatal checks if an error carries the fatal signal.
func IsFatal(err error) bool {
	return core.IsFatal(err)
}

// IsTimeout checks if an error is the executor's timeout signal.
func IsTimeout(err error) bool {
	return core.IsTimeout(err)
}

// Classify maps a task error to its outcome: nil is success, the fatal
// signal wins over everything else, then timeout, else retryable.
func Classify(err error) Outcome {
	return core.Classify(err)
}

// ValidateJobTypeName validates a job type name.
func ValidateJobTypeName(name string) error {
	return security.ValidateJobTypeName(name)
}

// ValidateQueueName validates a dot-delimited queue name.
func ValidateQueueName(name string) error {
	return security.ValidateQueueName(name)
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeErrorMessage(msg)
}

// ClampConcurrency ensures concurrency is within limits.
func ClampConcurrency(n int) int {
	return security.ClampConcurrency(n)
}
