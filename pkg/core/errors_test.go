package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFatal_WrapsError(t *testing.T) {
	base := errors.New("malformed payload")
	err := Fatal(base)

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "fatal:")
}

func TestFatal_NilReturnsNil(t *testing.T) {
	assert.NoError(t, Fatal(nil))
}

func TestIsFatal_DetectsWrappedFatal(t *testing.T) {
	err := fmt.Errorf("handler: %w", Fatal(errors.New("bad input")))
	assert.True(t, IsFatal(err))
}

func TestIsFatal_FalseForPlainError(t *testing.T) {
	assert.False(t, IsFatal(errors.New("boom")))
	assert.False(t, IsFatal(nil))
}

func TestTimeoutError_Message(t *testing.T) {
	err := &TimeoutError{Timeout: 50 * time.Millisecond}
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "timed out after 50ms")
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("task", "is required")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "task", ve.Field)
	assert.Contains(t, err.Error(), `"task"`)
}

func TestClassify_Priority(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Classify(nil))
	assert.Equal(t, OutcomeFatal, Classify(Fatal(errors.New("no"))))
	assert.Equal(t, OutcomeTimeout, Classify(&TimeoutError{Timeout: time.Second}))
	assert.Equal(t, OutcomeRetryable, Classify(errors.New("flaky")))
}

func TestClassify_FatalWinsOverTimeout(t *testing.T) {
	// A task can fail fast even under a timeout race; the fatal check runs first.
	err := Fatal(&TimeoutError{Timeout: time.Second})
	assert.Equal(t, OutcomeFatal, Classify(err))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "fatal", OutcomeFatal.String())
	assert.Equal(t, "timeout", OutcomeTimeout.String())
	assert.Equal(t, "retryable", OutcomeRetryable.String())
}

type causedError struct {
	cause error
}

func (e *causedError) Error() string { return "wrapper: " + e.cause.Error() }
func (e *causedError) Cause() error  { return e.cause }

func TestEnrichTaskError_FillsContext(t *testing.T) {
	job := &Job{ID: "job-1", Payload: []byte(`{"n":1}`)}

	te := EnrichTaskError(errors.New("flaky"), job, "emails.send")

	require.NotNil(t, te)
	assert.Equal(t, "emails.send", te.Queue)
	assert.Equal(t, "job-1", te.Tid)
	assert.Equal(t, job.Payload, te.Payload)
}

func TestEnrichTaskError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	te := EnrichTaskError(&causedError{cause: cause}, &Job{ID: "j"}, "q")

	require.NotNil(t, te)
	assert.ErrorIs(t, te, cause)
}

func TestEnrichTaskError_NeverOverwrites(t *testing.T) {
	existing := &TaskError{Err: errors.New("flaky"), Queue: "original", Tid: "tid-0"}
	job := &Job{ID: "other", Payload: []byte("x")}

	te := EnrichTaskError(existing, job, "replacement")

	assert.Equal(t, "original", te.Queue)
	assert.Equal(t, "tid-0", te.Tid)
	// Payload was absent, so it is filled in.
	assert.Equal(t, job.Payload, te.Payload)
}

func TestEnrichTaskError_NilError(t *testing.T) {
	assert.Nil(t, EnrichTaskError(nil, &Job{}, "q"))
}
