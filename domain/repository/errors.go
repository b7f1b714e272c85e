package repository

import (
	"errors"
	"fmt"
)

// ErrDuplicateRevision indicates a changeset with the same revision already
// exists for the repository.
var ErrDuplicateRevision = errors.New("revision already exists")

// ValidationError describes an invalid field value.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}
