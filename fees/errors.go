/*
errors.go - Error types for the fee ledger

ERROR CATEGORIES:
  1. Validation - bad input, duplicate roll numbers (client errors)
  2. Not found  - ids that no longer exist
  3. Store      - persistence failures, wrapped with context

Input validation failures unwrap to validation.ErrInvalid; use errors.Is.
*/
package fees

import (
	"errors"
	"fmt"

	"github.com/warp/fee-engine/validation"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStudentNotFound is returned when a student id does not exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrDiscountNotFound is returned when a discount id does not exist on the student.
	ErrDiscountNotFound = errors.New("discount not found")

	// ErrDuplicateRollNumber is returned when another student already has the roll number.
	ErrDuplicateRollNumber = errors.New("a student with this roll number already exists")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// DuplicateRollNumberError names the roll number and the student holding it.
type DuplicateRollNumberError struct {
	RollNumber string
	ExistingID string
}

func (e *DuplicateRollNumberError) Error() string {
	return fmt.Sprintf("roll number %q already used by student %s", e.RollNumber, e.ExistingID)
}

func (e *DuplicateRollNumberError) Unwrap() error {
	return ErrDuplicateRollNumber
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, validation.ErrInvalid) ||
		errors.Is(err, ErrDuplicateRollNumber)
}

// IsNotFound returns true if the error indicates a missing student or discount.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrDiscountNotFound)
}
