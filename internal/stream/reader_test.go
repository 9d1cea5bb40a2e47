package stream

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Frames(t *testing.T) {
	input := ": keepalive\n\n" +
		"data: {\"a\":1}\n\n" +
		"event: message\r\n" +
		"data: line one\r\n" +
		"data: line two\r\n\r\n" +
		"data: [DONE]\n\n" +
		"data: after done\n\n"

	r := NewReader(strings.NewReader(input), 0)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(frame))

	frame, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", string(frame))

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrDone)

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrDone)
}

func TestReader_EOFWithoutDone(t *testing.T) {
	r := NewReader(strings.NewReader("data: last"), 0)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "last", string(frame))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_FrameTooLarge(t *testing.T) {
	input := "data: " + strings.Repeat("x", 300) + "\n\n" +
		"data: ok\n\n"
	r := NewReader(strings.NewReader(input), 128)

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(frame))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_MultiLineFrameTooLarge(t *testing.T) {
	input := "data: " + strings.Repeat("a", 50) + "\n" +
		"data: " + strings.Repeat("b", 50) + "\n\n" +
		"data: [DONE]\n\n"
	r := NewReader(strings.NewReader(input), 64)

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrDone)
}

func TestReader_LineLongerThanBuffer(t *testing.T) {
	payload := strings.Repeat("y", 200*1024)
	r := NewReader(strings.NewReader("data: "+payload+"\n\n"), 0)

	frame, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, payload, string(frame))
}

func TestReader_OversizedFrameAtEOF(t *testing.T) {
	r := NewReader(strings.NewReader("data: "+strings.Repeat("z", 100)), 32)

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
