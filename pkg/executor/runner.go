package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/taskloop/taskloop/pkg/core"
)

// taskResult carries one attempt's outcome across the timeout race.
type taskResult struct {
	value any
	err   error
}

// runTask executes one attempt. With a positive timeout the task races a
// timer: if the timer fires first the attempt is abandoned — any in-flight
// side effect keeps running but its result is disregarded — and a distinct
// TimeoutError is returned, distinguishable from anything the task itself
// raises. Task panics are converted to retryable errors so nothing escapes
// the run loop.
func (e *Executor) runTask(ctx context.Context) (any, error) {
	if e.cfg.Timeout <= 0 {
		return e.invoke(ctx)
	}

	// Buffered so the abandoned goroutine can deliver and exit.
	ch := make(chan taskResult, 1)
	go func() {
		value, err := e.invoke(ctx)
		ch <- taskResult{value: value, err: err}
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-timer.C:
		return nil, &core.TimeoutError{Timeout: e.cfg.Timeout}
	}
}

func (e *Executor) invoke(ctx context.Context) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.cfg.Task(ctx, e.job)
}
