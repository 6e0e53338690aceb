package store

import (
	"errors"
	"fmt"
)

// Store errors.
var (
	// ErrEmptyName indicates a blank sequence name.
	ErrEmptyName = errors.New("sequence name is empty")

	// ErrInvalidName indicates a name that cannot be used as a file name.
	ErrInvalidName = errors.New("invalid sequence name")

	// ErrSameName indicates a rename to the current name.
	ErrSameName = errors.New("new name is the same as the old name")

	// ErrExists indicates the target name is already taken.
	ErrExists = errors.New("sequence already exists")

	// ErrNotFound indicates no sequence has the given name.
	ErrNotFound = errors.New("sequence not found")

	// ErrInvalidField indicates an event field that cannot be edited.
	ErrInvalidField = errors.New("invalid event field")

	// ErrIndexOutOfRange indicates an event index past the end of a sequence.
	ErrIndexOutOfRange = errors.New("event index out of range")
)

// OperationError records the operation and sequence that failed. The app
// layer uses it for record and play failures too.
type OperationError struct {
	Op      string // Operation name (e.g., "save", "rename", "play")
	Name    string // Sequence name
	Context string // Additional context
	Err     error  // Underlying error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Name)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an OperationError for the same operation.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return e.Op == t.Op && (t.Name == "" || e.Name == t.Name)
}

func opError(op, name string, err error) error {
	return &OperationError{Op: op, Name: name, Err: err}
}
