/*
errors.go - Error types for accounts, sessions and permission checks

ERROR CATEGORIES:
  1. Authentication - no session, bad credentials
  2. Authorization  - capability flag is off
  3. Invariants     - last admin, self deletion
  4. Validation     - duplicate email, unknown role, wrong old password
  5. Not found      - unknown account
*/
package access

import (
	"errors"
	"fmt"

	"github.com/warp/fee-engine/validation"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPermissionDenied is returned when the user lacks a capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEmailExists is returned when registering an email already in use.
	ErrEmailExists = errors.New("user with this email already exists")

	// ErrUserNotFound is returned when no account has the email.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword is returned by ChangePassword when the old password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrLastAdmin is returned when an operation would leave no admin account.
	ErrLastAdmin = errors.New("cannot remove the last admin")

	// ErrSelfDeletion is returned when the signed-in user tries to delete themselves.
	ErrSelfDeletion = errors.New("cannot delete your own account")

	// ErrInvalidRole is returned for a role other than admin or user.
	ErrInvalidRole = errors.New("invalid role")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// PermissionError names the capability a user was missing.
type PermissionError struct {
	Email      string
	Capability Capability
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s lacks %s", e.Email, e.Capability)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, validation.ErrInvalid) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrWrongPassword)
}

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsInvariantViolation returns true if the operation was refused to keep the
// account set consistent.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrLastAdmin) || errors.Is(err, ErrSelfDeletion)
}
