package domain

import dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"

// Role is a domain value that identifies what a user account can do.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

// Supported roles.
const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleBoth      Role = "both"
	RoleAdmin     Role = "admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleDonor:     true,
	RoleRecipient: true,
	RoleBoth:      true,
	RoleAdmin:     true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// CanDonate reports whether the role permits donor-only operations.
func (r Role) CanDonate() bool {
	return r == RoleDonor || r == RoleBoth
}

// CanRequest reports whether the role permits creating blood requests.
func (r Role) CanRequest() bool {
	return r == RoleRecipient || r == RoleBoth
}
