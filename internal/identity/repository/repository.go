package repository

import (
	"context"

	"fitdesk/backend/internal/identity/domain"
)

// Repository defines persistence for per-user authorization bindings:
// custom grants, denials, branch assignment, and the active flag.
type Repository interface {
	// GetBinding returns the binding for userID, or nil if the user has no
	// recognized binding. It returns an error only for database failures,
	// not for missing rows.
	GetBinding(ctx context.Context, userID string) (*domain.Binding, error)
}
