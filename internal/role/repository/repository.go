package repository

import (
	"context"

	"fitdesk/backend/internal/role/domain"
)

// Repository defines persistence for organization-defined custom roles.
// System roles are compiled into the registry and never stored.
type Repository interface {
	ListRoles(ctx context.Context) ([]*domain.RoleDefinition, error)
	CreateRole(ctx context.Context, r *domain.RoleDefinition) error
	UpdateRole(ctx context.Context, r *domain.RoleDefinition) error
	DeleteRole(ctx context.Context, id string) error
}
