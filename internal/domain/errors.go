package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id does not match any item in a collection.
var ErrNotFound = errors.New("item not found")

// ValidationError reports invalid user input. No repository call is made
// when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RepositoryError wraps a failed list/insert/update/delete call against the
// entity repository.
type RepositoryError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
