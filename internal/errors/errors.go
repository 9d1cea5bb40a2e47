package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrInvalidInput - malformed or incomplete event (dropped by the stream pump, reported by CLI commands)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - archived session or fixture file missing
	ErrNotFound = errors.New("not found")

	// ErrConflict - archive locked by another writer, or an identity reused by a different entity kind
	ErrConflict = errors.New("conflict")

	// ErrTransient - transport failure, the event source may be retried by the caller
	ErrTransient = errors.New("transient error")

	// ErrStreamAborted - the stream ended without an end-of-stream marker
	ErrStreamAborted = errors.New("stream aborted")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)
