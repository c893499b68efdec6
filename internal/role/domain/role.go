// Package domain holds the role model: a role is a named bundle of
// permissions plus a scope class describing how much of the organization the
// role may reach.
package domain

import (
	"errors"
	"fmt"
	"time"

	"fitdesk/backend/internal/permission"
)

// Scope is the breadth a role is entitled to operate over, independent of
// which permissions it holds.
type Scope string

const (
	// ScopeGlobal reaches every branch in every organization.
	ScopeGlobal Scope = "global"
	// ScopeBranch reaches the branches of the user's own organization,
	// subject to branch assignment for non-elevated roles.
	ScopeBranch Scope = "branch"
	// ScopeSelf reaches only the user's own records and home branch.
	ScopeSelf Scope = "self"
)

// System role identifiers. These are immutable after creation; custom roles
// must not reuse them.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleTeam       = "team"
	RoleMember     = "member"
)

// Team sub-classifications. Informational only; a team role carries no
// permissions beyond its RoleDefinition.
const (
	TeamRoleManager = "manager"
	TeamRoleStaff   = "staff"
	TeamRoleTrainer = "trainer"
)

var (
	// ErrImmutableRole is returned on any attempted write to a system role.
	ErrImmutableRole = errors.New("role: system role is immutable")
	// ErrRoleExists is returned when a role id collides with an existing role.
	ErrRoleExists = errors.New("role: role already exists")
	// ErrRoleNotFound is returned when no role exists for the given id.
	ErrRoleNotFound = errors.New("role: not found")
)

// RoleDefinition describes one role: identity, scope class, and permission set.
type RoleDefinition struct {
	ID          string
	Name        string
	Description string
	Color       string
	IsSystem    bool
	Scope       Scope
	Permissions permission.Set
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the definition for persistence: id and name required, a
// known scope, and every permission drawn from the catalog.
func (r *RoleDefinition) Validate() error {
	if r.ID == "" {
		return errors.New("role id is required")
	}
	if r.Name == "" {
		return errors.New("role name is required")
	}
	switch r.Scope {
	case ScopeGlobal, ScopeBranch, ScopeSelf:
	default:
		return fmt.Errorf("invalid role scope %q", r.Scope)
	}
	for p := range r.Permissions {
		if !permission.IsKnown(p) {
			return fmt.Errorf("role %s: unknown permission %q", r.ID, p)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can never mutate registry state through
// a returned definition.
func (r *RoleDefinition) Clone() *RoleDefinition {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Permissions = r.Permissions.Clone()
	return &cp
}
