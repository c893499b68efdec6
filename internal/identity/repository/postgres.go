package repository

import (
	"context"
	"database/sql"
	"errors"

	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository reads user bindings from the users and
// user_permission_overrides tables.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a binding repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetBinding returns the binding for userID, or nil if no such user exists.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetBinding(ctx context.Context, userID string) (*domain.Binding, error) {
	var (
		b           domain.Binding
		allBranches bool
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_active, all_branches FROM users WHERE id = $1`,
		userID).Scan(&b.UserID, &b.Name, &b.IsActive, &allBranches)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	b.AssignedBranches.All = allBranches

	if !allBranches {
		ids, err := r.assignedBranchIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		b.AssignedBranches.IDs = ids
	}

	grants, denials, err := r.overrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	b.CustomPermissions = grants
	b.DeniedPermissions = denials
	return &b, nil
}

func (r *PostgresRepository) assignedBranchIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT branch_id FROM user_branch_assignments WHERE user_id = $1 ORDER BY branch_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) overrides(ctx context.Context, userID string) (grants, denials permission.Set, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT permission, denied FROM user_permission_overrides WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	grants = permission.NewSet()
	denials = permission.NewSet()
	for rows.Next() {
		var (
			tag    string
			denied bool
		)
		if err := rows.Scan(&tag, &denied); err != nil {
			return nil, nil, err
		}
		if denied {
			denials.Add(permission.Permission(tag))
		} else {
			grants.Add(permission.Permission(tag))
		}
	}
	return grants, denials, rows.Err()
}
