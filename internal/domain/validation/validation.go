// Package validation holds the input validation error shared by all domain
// services. Inputs are rejected with it before any storage is touched.
package validation

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
)

// Error reports a malformed input field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// New returns a validation error for field.
func New(field, reason string) error {
	return &Error{Field: field, Reason: reason}
}

// Is reports whether err is, or wraps, a validation error.
func Is(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

// MaxQuantity is the largest quantity or stock delta accepted. Quantities
// are stored in INTEGER columns.
const MaxQuantity = math.MaxInt32

var tooLargeReason = fmt.Sprintf("must be at most %d", MaxQuantity)

// PositiveQuantity rejects quantities outside [1, MaxQuantity].
func PositiveQuantity(field string, qty int) error {
	if qty < 1 {
		return New(field, "must be greater than 0")
	}
	if qty > MaxQuantity {
		return New(field, tooLargeReason)
	}
	return nil
}

// NonNegativeQuantity rejects quantities outside [0, MaxQuantity].
func NonNegativeQuantity(field string, qty int) error {
	if qty < 0 {
		return New(field, "must be 0 or greater")
	}
	if qty > MaxQuantity {
		return New(field, tooLargeReason)
	}
	return nil
}

// QuantityDelta rejects deltas whose magnitude exceeds MaxQuantity.
func QuantityDelta(field string, delta int) error {
	if delta < -MaxQuantity || delta > MaxQuantity {
		return New(field, fmt.Sprintf("must be between %d and %d", -MaxQuantity, MaxQuantity))
	}
	return nil
}

// Required rejects empty strings.
func Required(field, value string) error {
	if value == "" {
		return New(field, "is required")
	}
	return nil
}

// PositiveID rejects identifiers below one.
func PositiveID(field string, id int64) error {
	if id < 1 {
		return New(field, "must be a positive identifier")
	}
	return nil
}
