package identity

import (
	"context"
	"errors"
	"time"

	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/identity/repository"
	"fitdesk/backend/internal/permission"
	roledomain "fitdesk/backend/internal/role/domain"
)

// RoleGetter is the slice of the role registry the binding needs.
type RoleGetter interface {
	GetRole(id string) (*roledomain.RoleDefinition, error)
}

// AuditRecorder records permission-relevant events. Best-effort; may be nil.
type AuditRecorder interface {
	Event(ctx context.Context, orgID, actorID, action, resourceType, resourceID, metadata string)
}

// Binding joins a principal against the role registry and the per-user
// override record. It is a read-through projection: no write path, no cached
// state. Re-invoked whenever the upstream principal changes; the previous
// result is discarded, never patched.
type Binding struct {
	roles RoleGetter
	repo  repository.Repository
	audit AuditRecorder
}

// NewBinding returns a binding over the given registry and repository.
// auditLog may be nil.
func NewBinding(roles RoleGetter, repo repository.Repository, auditLog AuditRecorder) *Binding {
	return &Binding{roles: roles, repo: repo, audit: auditLog}
}

// Resolve builds the UserWithRoles for p. Returns (nil, nil) when p is nil,
// when the principal has no recognized binding, or when the user is inactive;
// callers treat nil as "no permissions, no branch access". A role id missing
// from the registry yields a user with an empty role list (and therefore no
// effective permissions) plus an audit event for operational visibility.
func (b *Binding) Resolve(ctx context.Context, p *domain.Principal) (*domain.UserWithRoles, error) {
	if p == nil {
		return nil, nil
	}

	rec, err := b.repo.GetBinding(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.IsActive {
		return nil, nil
	}

	user := &domain.UserWithRoles{
		ID:                p.ID,
		Email:             p.Email,
		Name:              rec.Name,
		Role:              p.Role,
		TeamRole:          p.TeamRole,
		OrgID:             p.OrgID,
		CustomPermissions: rec.CustomPermissions,
		DeniedPermissions: rec.DeniedPermissions,
		BranchID:          p.BranchID,
		AssignedBranches:  rec.AssignedBranches,
		IsActive:          rec.IsActive,
		ResolvedAt:        time.Now().UTC(),
	}
	if user.Name == "" {
		user.Name = p.Name
	}
	if user.CustomPermissions == nil {
		user.CustomPermissions = permission.NewSet()
	}
	if user.DeniedPermissions == nil {
		user.DeniedPermissions = permission.NewSet()
	}

	def, err := b.roles.GetRole(p.Role)
	switch {
	case err == nil:
		user.Roles = []*roledomain.RoleDefinition{def}
	case errors.Is(err, roledomain.ErrRoleNotFound):
		// Unknown role: the user resolves with no roles, so every permission
		// and branch check fails closed.
		if b.audit != nil {
			b.audit.Event(ctx, p.OrgID, p.ID, "resolve_unknown_role", "role", p.Role, "")
		}
	default:
		return nil, err
	}

	return user, nil
}
