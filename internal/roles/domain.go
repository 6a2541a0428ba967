package roles

import (
	"fmt"
	"time"
)

// Role is the access level assigned to an identity. Unassigned is an explicit
// variant rather than a nil so callers never need a missing-role special case.
type Role string

const (
	RoleMaster     Role = "master"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleUnassigned Role = "unassigned"
)

// ParseRole maps a wire value onto a selectable Role. Unassigned is not
// selectable; it only ever results from the absence of an assignment.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMaster, RoleAdmin, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("roles: unknown role %q", s)
}

// Assignment is the current role record for an identity. At most one exists
// per identity; a new assignment replaces all prior ones.
type Assignment struct {
	IdentityID string
	Role       Role
	AssignedAt time.Time
}
