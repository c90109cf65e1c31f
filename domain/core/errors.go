package core

import (
	"errors"
	"fmt"
)

// ErrInsufficientData reports a table without enough data to validate.
// Richer, coded errors live in internal/errors; this sentinel exists so the
// domain layer stays free of that dependency.
var ErrInsufficientData = errors.New("insufficient data for analysis")

// NewValidationError reports a structural problem with a domain value
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}
