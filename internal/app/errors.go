// Package app wires capture, playback and the sequence store together and
// enforces that at most one of record and play runs at a time.
package app

import (
	"errors"

	"github.com/dshills/keyloop/internal/store"
)

// Application errors.
var (
	// ErrBusy indicates a record or play request while the other is active.
	ErrBusy = errors.New("another capture or playback is active")

	// ErrNotRecording indicates a stop request with no capture running.
	ErrNotRecording = errors.New("not recording")

	// ErrNothingToPlay indicates a play request with no current sequence.
	ErrNothingToPlay = errors.New("no current sequence to play")

	// ErrClosed indicates the application has been closed.
	ErrClosed = errors.New("application closed")
)

// InitError represents a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// opError returns nil for a nil err and a store.OperationError otherwise.
func opError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &store.OperationError{Op: op, Name: name, Err: err}
}
