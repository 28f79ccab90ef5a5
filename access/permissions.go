/*
Package access implements who may do what in the fee engine.

PURPOSE:
  Holds the role/permission model, the identity store (accounts + the single
  signed-in session), password hashing and session tokens. Every mutating
  API route asks HasPermission (via Authorize) before calling into a store.

PERMISSION MODEL:
  A Permissions value is a closed set of boolean capability flags. Roles only
  choose the starting bundle:

    admin -> every flag true
    user  -> canViewStudents + canViewDashboardSummary

  After that, flags are edited individually and checked individually. The
  role is never consulted at check time.

SEE ALSO:
  - identity.go: account and session store
  - api/auth.go: middleware mapping routes to capabilities
*/
package access

import "strings"

// =============================================================================
// CAPABILITIES
// =============================================================================

// Capability names one permission flag. Values match the JSON field names.
type Capability string

const (
	CanViewStudents         Capability = "canViewStudents"
	CanAddStudents          Capability = "canAddStudents"
	CanEditStudents         Capability = "canEditStudents"
	CanDeleteStudents       Capability = "canDeleteStudents"
	CanManagePayments       Capability = "canManagePayments"
	CanManageDiscounts      Capability = "canManageDiscounts"
	CanViewReports          Capability = "canViewReports"
	CanImportExport         Capability = "canImportExport"
	CanManageUsers          Capability = "canManageUsers"
	CanViewDashboardSummary Capability = "canViewDashboardSummary"
)

// Capabilities lists every capability in display order.
var Capabilities = []Capability{
	CanViewStudents,
	CanAddStudents,
	CanEditStudents,
	CanDeleteStudents,
	CanManagePayments,
	CanManageDiscounts,
	CanViewReports,
	CanImportExport,
	CanManageUsers,
	CanViewDashboardSummary,
}

// Permissions is the fixed set of capability flags held by an account.
type Permissions struct {
	CanViewStudents         bool `json:"canViewStudents"`
	CanAddStudents          bool `json:"canAddStudents"`
	CanEditStudents         bool `json:"canEditStudents"`
	CanDeleteStudents       bool `json:"canDeleteStudents"`
	CanManagePayments       bool `json:"canManagePayments"`
	CanManageDiscounts      bool `json:"canManageDiscounts"`
	CanViewReports          bool `json:"canViewReports"`
	CanImportExport         bool `json:"canImportExport"`
	CanManageUsers          bool `json:"canManageUsers"`
	CanViewDashboardSummary bool `json:"canViewDashboardSummary"`
}

// Has reports the flag for c. Unknown capabilities are never granted.
func (p Permissions) Has(c Capability) bool {
	switch c {
	case CanViewStudents:
		return p.CanViewStudents
	case CanAddStudents:
		return p.CanAddStudents
	case CanEditStudents:
		return p.CanEditStudents
	case CanDeleteStudents:
		return p.CanDeleteStudents
	case CanManagePayments:
		return p.CanManagePayments
	case CanManageDiscounts:
		return p.CanManageDiscounts
	case CanViewReports:
		return p.CanViewReports
	case CanImportExport:
		return p.CanImportExport
	case CanManageUsers:
		return p.CanManageUsers
	case CanViewDashboardSummary:
		return p.CanViewDashboardSummary
	default:
		return false
	}
}

// =============================================================================
// ROLES
// =============================================================================

// Role is the coarse account type. It selects the initial permission bundle
// and decides who counts towards the last-admin invariant.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// AdminPermissions grants every capability.
func AdminPermissions() Permissions {
	return Permissions{
		CanViewStudents:         true,
		CanAddStudents:          true,
		CanEditStudents:         true,
		CanDeleteStudents:       true,
		CanManagePayments:       true,
		CanManageDiscounts:      true,
		CanViewReports:          true,
		CanImportExport:         true,
		CanManageUsers:          true,
		CanViewDashboardSummary: true,
	}
}

// DefaultUserPermissions is the bundle a newly registered user receives.
func DefaultUserPermissions() Permissions {
	return Permissions{
		CanViewStudents:         true,
		CanViewDashboardSummary: true,
	}
}

// BundleForRole returns the permission bundle a role starts with.
func BundleForRole(r Role) Permissions {
	if r == RoleAdmin {
		return AdminPermissions()
	}
	return DefaultUserPermissions()
}

// =============================================================================
// CHECKS
// =============================================================================

// User is the session view of an account. It never carries the password hash.
type User struct {
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// HasPermission reports whether user holds capability c.
// A nil user holds nothing.
func HasPermission(user *User, c Capability) bool {
	if user == nil {
		return false
	}
	return user.Permissions.Has(c)
}

// Authorize is HasPermission with a reason attached.
func Authorize(user *User, c Capability) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	if !user.Permissions.Has(c) {
		return &PermissionError{Email: user.Email, Capability: c}
	}
	return nil
}
