package interfaces

import "errors"

var (
	// ErrNotFound is returned when no record matches the id, or when the
	// record exists but is not owned by the caller.
	ErrNotFound = errors.New("record not found")
	// ErrPrecondition is returned when the record exists but its current
	// state does not allow the requested transition.
	ErrPrecondition = errors.New("precondition failed")
)
