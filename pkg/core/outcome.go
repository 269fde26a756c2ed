package core

// Outcome is the classification of one attempt's result.
type Outcome int

const (
	// OutcomeSuccess means the task returned without error.
	OutcomeSuccess Outcome = iota
	// OutcomeFatal means the task explicitly declined further retries.
	OutcomeFatal
	// OutcomeTimeout means the attempt exceeded its deadline. Always retryable.
	OutcomeTimeout
	// OutcomeRetryable is the default bucket for any other failure.
	OutcomeRetryable
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFatal:
		return "fatal"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "retryable"
	}
}

// Classify maps an attempt error to its Outcome. The fatal check runs first:
// a task may intentionally fail fast even while racing a timeout, and that
// decision wins over everything else.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if IsFatal(err) {
		return OutcomeFatal
	}
	if IsTimeout(err) {
		return OutcomeTimeout
	}
	return OutcomeRetryable
}
