package text

import (
	"errors"
	"fmt"
)

// Styled text errors.
var (
	// ErrOutOfRange indicates a position or index outside the valid bounds.
	ErrOutOfRange = errors.New("out of range")

	// ErrCapacityExceeded indicates the style registry is full.
	// A style index is a bitmask, so at most MaxStyles styles can be tracked.
	ErrCapacityExceeded = errors.New("style capacity exceeded")
)

// RangeError describes an access outside [0, Bound).
type RangeError struct {
	Op    string // Operation name (e.g., "styleIndexAt", "get")
	Index int    // Offending index or position
	Bound int    // Exclusive upper bound at the time of the call
	Err   error  // Underlying sentinel, usually ErrOutOfRange
}

// NewRangeError creates a RangeError wrapping ErrOutOfRange.
func NewRangeError(op string, index, bound int) *RangeError {
	return &RangeError{
		Op:    op,
		Index: index,
		Bound: bound,
		Err:   ErrOutOfRange,
	}
}

func (e *RangeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: index %d not in [0, %d): %v", e.Op, e.Index, e.Bound, e.Err)
}

func (e *RangeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CapacityError reports the style that could not be registered.
type CapacityError struct {
	Style Style
	Count int // Number of styles already registered
}

func (e *CapacityError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("register %s: %d styles registered: %v", e.Style, e.Count, ErrCapacityExceeded)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
