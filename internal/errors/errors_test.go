package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	require.Error(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(baseErr, "wrapped")
		require.Error(t, wrapped)
		assert.Equal(t, "wrapped: base error", wrapped.Error())
		assert.True(t, errors.Is(wrapped, baseErr))
	})

	t.Run("wrap nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "wrapped"))
	})
}

func TestIsAndAs(t *testing.T) {
	wrapped := Wrap(ErrNotFound, "order 42")
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(wrapped, ErrConflict))

	var target customError
	err := fmt.Errorf("outer: %w", customError{Msg: "inner"})
	require.True(t, As(err, &target))
	assert.Equal(t, "inner", target.Msg)
}

func TestFromContext(t *testing.T) {
	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := FromContext(context.DeadlineExceeded)
		assert.True(t, Is(err, ErrTimeout))
		assert.True(t, Is(err, context.DeadlineExceeded))
	})

	t.Run("already a timeout is unchanged", func(t *testing.T) {
		err := Wrap(ErrTimeout, "cache get")
		assert.Equal(t, err, FromContext(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		base := errors.New("boom")
		assert.Equal(t, base, FromContext(base))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, FromContext(nil))
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Wrap(ErrOffline, "remote write")))
	assert.True(t, IsTransient(Wrap(ErrTimeout, "cache put")))
	assert.True(t, IsTransient(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.True(t, IsTransient(Wrap(ErrGatewayUnavailable, "emit")))
	assert.False(t, IsTransient(ErrInvalidInput))
	assert.False(t, IsTransient(nil))
}
