package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds. Typed errors below unwrap to these.
var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrValidation   = errors.New("validation failed")
)

// InvalidRangeError reports a range whose end precedes its start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%s: end %s precedes start %s", ErrInvalidRange,
		e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// ValidationError reports a preference value outside its valid range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
