package triage

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned by every prediction while the classifier or
// preprocessor failed to load.
var ErrModelUnavailable = errors.New("model not loaded properly")

// MissingFieldError reports a required clinical field absent from a strict request.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing field: %s", e.Field)
}

// TypeCoercionError reports a field whose value could not be converted to its
// declared type.
type TypeCoercionError struct {
	Field string
	Value any
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("invalid value for field '%s': %v", e.Field, e.Value)
}

// PredictionError wraps a failure of the preprocessor or classifier.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Cause)
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

// UnknownTierError means the classifier produced a class missing from the
// tier table.
type UnknownTierError struct {
	Tier int
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown risk tier %d", e.Tier)
}
