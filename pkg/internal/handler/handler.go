// Package handler provides reflection-based handler execution for the taskloop package.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Handler holds metadata about a registered task handler.
type Handler struct {
	Fn         reflect.Value
	ArgsType   reflect.Type
	HasContext bool
	HasResult  bool

	// Registration-time execution overrides. Zero values fall back to
	// the environment defaults when the job runs.
	Timeout       time.Duration
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewHandler creates a Handler from a function. Supported signatures:
//
//	func(ctx context.Context, args T) error
//	func(ctx context.Context, args T) (R, error)
//	func(args T) error
//	func(args T) (R, error)
func NewHandler(fn any) (*Handler, error) {
	if fn == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || (fnVal.Kind() == reflect.Func && fnVal.IsNil()) {
		return nil, fmt.Errorf("handler function cannot be nil")
	}

	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function")
	}

	h := &Handler{Fn: fnVal}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return nil, fmt.Errorf("handler must have 1-2 arguments")
	}

	argIdx := 0
	if fnType.In(0).Implements(ctxType) {
		h.HasContext = true
		argIdx = 1
	}
	if argIdx < numIn {
		h.ArgsType = fnType.In(argIdx)
	}

	switch fnType.NumOut() {
	case 1:
		if !fnType.Out(0).Implements(errType) {
			return nil, fmt.Errorf("handler must return error")
		}
	case 2:
		if !fnType.Out(1).Implements(errType) {
			return nil, fmt.Errorf("handler must return (R, error)")
		}
		h.HasResult = true
	default:
		return nil, fmt.Errorf("handler must return error or (R, error)")
	}

	return h, nil
}

// Execute runs the handler against a JSON payload and returns its result,
// if the signature has one.
func (h *Handler) Execute(ctx context.Context, payload []byte) (any, error) {
	if !h.Fn.IsValid() || h.Fn.IsNil() {
		return nil, fmt.Errorf("handler function is nil or invalid")
	}

	var args []reflect.Value
	if h.HasContext {
		args = append(args, reflect.ValueOf(ctx))
	}

	if h.ArgsType != nil {
		argVal := reflect.New(h.ArgsType)
		if err := json.Unmarshal(payload, argVal.Interface()); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		args = append(args, argVal.Elem())
	}

	results := h.Fn.Call(args)

	if h.HasResult {
		if !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}

	if !results[0].IsNil() {
		return nil, results[0].Interface().(error)
	}
	return nil, nil
}
