// Package executor implements the per-job run/retry state machine.
//
// One Executor owns one job for its whole lifetime: it runs the task under
// an optional per-attempt timeout, classifies the outcome, and retries
// retryable failures with capped exponential backoff until the task
// succeeds or declares the failure fatal. The completion callback fires
// exactly once, on the success or fatal path only. There is no retry-count
// ceiling: only the delay between retries is bounded.
//
// Executors are independent; any number of them can run concurrently, each
// in its own goroutine, sharing only the injected logging, telemetry, and
// error-reporting sinks.
package executor
