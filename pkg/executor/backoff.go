package executor

import "time"

// NextDelay is the retry scheduler's state transition: the delay doubles
// after each retryable failure and, when max is positive, is clamped there.
// Clamping is idempotent — once the cap is reached the delay stays put for
// arbitrarily many further retries. A zero max means unbounded growth.
func NextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if max > 0 && next > max {
		next = max
	}
	return next
}
