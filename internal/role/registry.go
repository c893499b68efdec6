// Package role implements the role registry: the single source of truth for
// which permissions a role carries. System roles are compiled in and
// immutable; organization-defined custom roles are persisted through the
// repository and share the same shape.
package role

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitdesk/backend/internal/permission"
	"fitdesk/backend/internal/role/domain"
)

// Repository is the persistence surface the registry needs for custom roles.
type Repository interface {
	ListRoles(ctx context.Context) ([]*domain.RoleDefinition, error)
	CreateRole(ctx context.Context, r *domain.RoleDefinition) error
	UpdateRole(ctx context.Context, r *domain.RoleDefinition) error
	DeleteRole(ctx context.Context, id string) error
}

// Registry resolves role ids to definitions. Reads are lock-free of the
// database: all definitions are held in memory for the lifetime of the
// process and refreshed on mutation.
type Registry struct {
	mu     sync.RWMutex
	system map[string]*domain.RoleDefinition
	custom map[string]*domain.RoleDefinition
	repo   Repository
}

// NewRegistry returns a registry seeded with the built-in system roles.
// repo may be nil; then the registry is memory-only (used in tests).
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		system: systemRoles(),
		custom: make(map[string]*domain.RoleDefinition),
		repo:   repo,
	}
}

// LoadCustomRoles replaces the in-memory custom role set from the repository.
// Called at startup and after administrative edits from another process.
func (r *Registry) LoadCustomRoles(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	list, err := r.repo.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("load custom roles: %w", err)
	}
	custom := make(map[string]*domain.RoleDefinition, len(list))
	for _, def := range list {
		if _, clash := r.system[def.ID]; clash {
			// A persisted role must never shadow a system role.
			continue
		}
		custom[def.ID] = def.Clone()
	}
	r.mu.Lock()
	r.custom = custom
	r.mu.Unlock()
	return nil
}

// GetRole returns the definition for id, or ErrRoleNotFound.
func (r *Registry) GetRole(id string) (*domain.RoleDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.system[id]; ok {
		return def.Clone(), nil
	}
	if def, ok := r.custom[id]; ok {
		return def.Clone(), nil
	}
	return nil, domain.ErrRoleNotFound
}

// ListRoles returns every role, system roles first, each group ordered by id.
func (r *Registry) ListRoles() []*domain.RoleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.RoleDefinition, 0, len(r.system)+len(r.custom))
	for _, def := range r.system {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	custom := make([]*domain.RoleDefinition, 0, len(r.custom))
	for _, def := range r.custom {
		custom = append(custom, def.Clone())
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].ID < custom[j].ID })
	return append(out, custom...)
}

// CreateCustomRole validates and persists a new custom role. The id is
// generated when empty. Returns ErrRoleExists on collision with any existing
// role, including system roles.
func (r *Registry) CreateCustomRole(ctx context.Context, def *domain.RoleDefinition) (*domain.RoleDefinition, error) {
	cp := def.Clone()
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	cp.IsSystem = false
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if cp.Permissions == nil {
		cp.Permissions = permission.NewSet()
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.system[cp.ID]; ok {
		return nil, domain.ErrRoleExists
	}
	if _, ok := r.custom[cp.ID]; ok {
		return nil, domain.ErrRoleExists
	}
	if r.repo != nil {
		if err := r.repo.CreateRole(ctx, cp); err != nil {
			return nil, err
		}
	}
	r.custom[cp.ID] = cp
	return cp.Clone(), nil
}

// UpdateCustomRole replaces the name, description, color, scope, and
// permission set of an existing custom role. Writes to a system role fail
// with ErrImmutableRole.
func (r *Registry) UpdateCustomRole(ctx context.Context, def *domain.RoleDefinition) (*domain.RoleDefinition, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.system[def.ID]; ok {
		return nil, domain.ErrImmutableRole
	}
	existing, ok := r.custom[def.ID]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	cp := def.Clone()
	cp.IsSystem = false
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	if r.repo != nil {
		if err := r.repo.UpdateRole(ctx, cp); err != nil {
			return nil, err
		}
	}
	r.custom[cp.ID] = cp
	return cp.Clone(), nil
}

// DeleteCustomRole removes a custom role. Deleting a system role fails with
// ErrImmutableRole.
func (r *Registry) DeleteCustomRole(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.system[id]; ok {
		return domain.ErrImmutableRole
	}
	if _, ok := r.custom[id]; !ok {
		return domain.ErrRoleNotFound
	}
	if r.repo != nil {
		if err := r.repo.DeleteRole(ctx, id); err != nil {
			return err
		}
	}
	delete(r.custom, id)
	return nil
}

// systemRoles builds the compiled-in role set for the reference deployment.
func systemRoles() map[string]*domain.RoleDefinition {
	everything := permission.NewSet(permission.Catalog()...)

	adminPerms := everything.Clone()
	delete(adminPerms, permission.SystemManage)
	delete(adminPerms, permission.BranchesManage)

	teamPerms := permission.NewSet(
		permission.MembersView, permission.MembersCreate, permission.MembersEdit,
		permission.ClassesView, permission.ClassesEdit, permission.ClassesSchedule,
		permission.LockersView, permission.LockersAssign,
		permission.TrainersView,
		permission.FinanceView,
		permission.InvoicesView,
		permission.ReportsView,
		permission.SMSSend,
		permission.ProfileView, permission.ProfileEdit,
	)

	memberPerms := permission.NewSet(
		permission.ProfileView, permission.ProfileEdit,
		permission.ClassesView,
	)

	defs := []*domain.RoleDefinition{
		{
			ID:          domain.RoleSuperAdmin,
			Name:        "Super Admin",
			Description: "Platform operator with access to every organization and branch",
			Color:       "#7c3aed",
			IsSystem:    true,
			Scope:       domain.ScopeGlobal,
			Permissions: everything,
		},
		{
			ID:          domain.RoleAdmin,
			Name:        "Admin",
			Description: "Organization administrator; reaches every branch of the organization",
			Color:       "#2563eb",
			IsSystem:    true,
			Scope:       domain.ScopeBranch,
			Permissions: adminPerms,
		},
		{
			ID:          domain.RoleTeam,
			Name:        "Team",
			Description: "Front-desk, trainers, and managers working assigned branches",
			Color:       "#059669",
			IsSystem:    true,
			Scope:       domain.ScopeBranch,
			Permissions: teamPerms,
		},
		{
			ID:          domain.RoleMember,
			Name:        "Member",
			Description: "Gym member; self-service only",
			Color:       "#d97706",
			IsSystem:    true,
			Scope:       domain.ScopeSelf,
			Permissions: memberPerms,
		},
	}

	out := make(map[string]*domain.RoleDefinition, len(defs))
	for _, d := range defs {
		out[d.ID] = d
	}
	return out
}
