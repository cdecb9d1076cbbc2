package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict marks a unique-constraint violation.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks any backend failure that is not the caller's
	// fault: lost connection, closed database, I/O errors.
	ErrUnavailable = errors.New("storage unavailable")
)

// Unique fields of the student table.
const (
	FieldRegNumber = "reg_number"
	FieldEmail     = "email"
)

// ConflictError reports which unique field a create collided on.
type ConflictError struct {
	Field string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate %s: %v", e.Field, e.Err)
}

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Unwrap() []error {
	return []error{ErrConflict, e.Err}
}

// Conflict builds a *ConflictError for field caused by err.
func Conflict(field string, err error) error {
	if err == nil {
		err = ErrConflict
	}
	return &ConflictError{Field: field, Err: err}
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) matches.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
