package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that violates a range or presence rule. Nothing
	// is written when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the user document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists indicates a document with the same user id exists.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrIndexOutOfRange is returned when a display index does not address a
	// row of the descending view.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNoMatch is returned by a delete when the displayed record matches
	// nothing in either history list.
	ErrNoMatch = errors.New("no matching record")
)

// PersistenceError wraps a failed write to the document store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
