package core

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing record or an absent persisted roster.
var ErrNotFound = errors.New("not found")

// ValidationError is returned when a record field violates its constraint.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
