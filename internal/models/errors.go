package models

import (
	"errors"
	"fmt"
)

// ErrAlertNotFound indicates the referenced alert id does not exist.
var ErrAlertNotFound = errors.New("alert not found")

// ErrAlertNotActive indicates an operation that requires an active alert
// was attempted on a resolved one.
var ErrAlertNotActive = errors.New("alert is not active")

// ErrStationNotFound indicates the referenced station does not exist.
var ErrStationNotFound = errors.New("station not found")

// ValidationError rejects a malformed payload or filter before any store
// access happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
