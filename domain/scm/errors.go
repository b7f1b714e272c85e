package scm

import (
	"errors"
	"fmt"
)

var (
	// ErrAdapterUnavailable indicates the SCM could not be reached or the
	// repository could not be opened.
	ErrAdapterUnavailable = errors.New("scm adapter unavailable")

	// ErrUnknownKind indicates no adapter is registered for a kind.
	ErrUnknownKind = errors.New("unknown scm kind")

	// ErrNotSupported indicates the adapter lacks a capability.
	ErrNotSupported = errors.New("operation not supported by scm")

	// ErrNotFound indicates a path or revision does not exist.
	ErrNotFound = errors.New("scm entry not found")
)

// AdapterError wraps a failure of an adapter operation.
type AdapterError struct {
	Op  string
	Err error
}

// NewAdapterError wraps err as a failure of op. A nil err stays nil.
func NewAdapterError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Op: op, Err: err}
}

// Error implements error.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("scm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}
