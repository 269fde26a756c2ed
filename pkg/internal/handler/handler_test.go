package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emailArgs struct {
	To string `json:"to"`
}

func TestNewHandler_RejectsNonFunctions(t *testing.T) {
	_, err := NewHandler(nil)
	assert.Error(t, err)

	_, err = NewHandler("not a function")
	assert.Error(t, err)

	var fn func(context.Context, string) error
	_, err = NewHandler(fn)
	assert.Error(t, err)
}

func TestNewHandler_RejectsBadReturns(t *testing.T) {
	_, err := NewHandler(func(context.Context, string) {})
	assert.Error(t, err)

	_, err = NewHandler(func(context.Context, string) string { return "" })
	assert.Error(t, err)

	_, err = NewHandler(func(context.Context, string) (string, int) { return "", 0 })
	assert.Error(t, err)
}

func TestExecute_ErrorOnly(t *testing.T) {
	called := false
	h, err := NewHandler(func(ctx context.Context, args emailArgs) error {
		called = true
		assert.Equal(t, "a@b.c", args.To)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, h.HasContext)
	assert.False(t, h.HasResult)

	result, err := h.Execute(context.Background(), []byte(`{"to":"a@b.c"}`))

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.True(t, called)
}

func TestExecute_WithResult(t *testing.T) {
	h, err := NewHandler(func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})
	require.NoError(t, err)
	assert.True(t, h.HasResult)

	result, err := h.Execute(context.Background(), []byte(`21`))

	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestExecute_WithoutContext(t *testing.T) {
	h, err := NewHandler(func(n int) error {
		assert.Equal(t, 7, n)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, h.HasContext)

	_, err = h.Execute(context.Background(), []byte(`7`))
	assert.NoError(t, err)
}

func TestExecute_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	h, err := NewHandler(func(context.Context, int) error { return boom })
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), []byte(`1`))
	assert.ErrorIs(t, err, boom)
}

func TestExecute_BadPayload(t *testing.T) {
	h, err := NewHandler(func(context.Context, emailArgs) error { return nil })
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), []byte(`not json`))
	assert.Error(t, err)
}
