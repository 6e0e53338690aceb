package macro

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRecording is returned when a recording is started twice.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrAlreadyPlaying is returned when playback is started twice.
	ErrAlreadyPlaying = errors.New("already playing")

	// ErrFailSafe is reported by a backend when the user triggered its
	// emergency stop. Playback aborts when it sees this error.
	ErrFailSafe = errors.New("fail-safe triggered")

	// ErrUnmappedKey is returned when a key name has no replay mapping.
	ErrUnmappedKey = errors.New("unmapped key")

	// ErrUnknownEvent is returned for event kinds the package does not know.
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrInvalidOptions is returned for unusable playback options.
	ErrInvalidOptions = errors.New("invalid playback options")

	// ErrOutOfOrder is returned when timestamps decrease.
	ErrOutOfOrder = errors.New("timestamps out of order")
)

// RecoveredPanicError wraps a panic recovered during playback.
type RecoveredPanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *RecoveredPanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *RecoveredPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
