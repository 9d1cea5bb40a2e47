package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "invalid input", err: InvalidInput("missing reasoning_id"), want: "ErrInvalidInput"},
		{name: "not found", err: NotFound("session abc"), want: "ErrNotFound"},
		{name: "conflict", err: Conflict("archive locked"), want: "ErrConflict"},
		{name: "transient", err: Transient("connection reset"), want: "ErrTransient"},
		{name: "aborted", err: fmt.Errorf("read: %w", ErrStreamAborted), want: "ErrStreamAborted"},
		{name: "internal", err: Internal("boom"), want: "ErrInternal"},
		{name: "canceled", err: context.Canceled, want: "Canceled"},
		{name: "canceled stream", err: fmt.Errorf("%w: %w", ErrStreamAborted, context.Canceled), want: "Canceled"},
		{name: "unknown", err: errors.New("other"), want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Category(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(InvalidInput("bad frame")))
	assert.True(t, IsRetryable(Transient("status 502")))
	assert.True(t, IsRetryable(Wrap(ErrStreamAborted, "stream")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	err := Wrap(ErrNotFound, "load fixture")
	assert.EqualError(t, err, "load fixture: not found")
	assert.True(t, IsCategory(err, ErrNotFound))
	assert.False(t, IsCategory(err, ErrConflict))
}

func TestInvalidInputf(t *testing.T) {
	err := InvalidInputf("event %q has no payload", "tool_calls")
	assert.EqualError(t, err, `event "tool_calls" has no payload: invalid input`)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
