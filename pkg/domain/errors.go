package domain

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed or incomplete input before it reaches the
// store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a durable-backend failure. There is no fallback
// persistence tier, so it is fatal to the current operation.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

// ErrForbidden is returned when an actor's role does not permit an operation.
var ErrForbidden = errors.New("operation not permitted for role")

// ErrNoSession is returned when a session token does not resolve to a unit.
var ErrNoSession = errors.New("no active session for token")
