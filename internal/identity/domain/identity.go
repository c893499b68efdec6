// Package domain holds the identity model: the authenticated principal as
// presented by the identity provider, and the fully resolved user the
// authorization core makes decisions over.
package domain

import (
	"time"

	"fitdesk/backend/internal/permission"
	roledomain "fitdesk/backend/internal/role/domain"
)

// Principal is the authenticated identity as supplied by the identity
// provider (token claims or an upstream session). It carries the role
// assignment but no resolved permissions.
type Principal struct {
	ID       string
	Email    string
	Name     string
	Role     string
	TeamRole string
	BranchID string
	OrgID    string
}

// BranchAssignment is the set of branches a user is assigned to. All set to
// true means assignment to every branch (used for global-scope operators).
type BranchAssignment struct {
	All bool
	IDs []string
}

// Contains reports whether the assignment includes branchID.
func (a BranchAssignment) Contains(branchID string) bool {
	if a.All {
		return true
	}
	for _, id := range a.IDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// UserWithRoles is the resolved principal the decision API operates on. It is
// built once per identity resolution, is read-only to callers, and is
// discarded wholesale when the identity changes.
type UserWithRoles struct {
	ID       string
	Email    string
	Name     string
	Role     string // primary role id
	TeamRole string
	OrgID    string

	// Roles normally holds one definition but the model supports several.
	Roles []*roledomain.RoleDefinition

	// CustomPermissions are additive per-user grants; DeniedPermissions are
	// subtractive overrides and always win.
	CustomPermissions permission.Set
	DeniedPermissions permission.Set

	BranchID         string
	AssignedBranches BranchAssignment
	IsActive         bool

	ResolvedAt time.Time
}

// PrimaryRole returns the first role definition, or nil when the user has no
// recognized role (unknown role id at resolution time).
func (u *UserWithRoles) PrimaryRole() *roledomain.RoleDefinition {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	return u.Roles[0]
}

// Binding is the per-user override record stored alongside the user: custom
// grants, denials, branch assignment, and active flag.
type Binding struct {
	UserID            string
	Name              string
	CustomPermissions permission.Set
	DeniedPermissions permission.Set
	AssignedBranches  BranchAssignment
	IsActive          bool
}
