package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fitdesk/backend/internal/branch"
	"fitdesk/backend/internal/branch/domain"
)

var _ branch.Directory = (*PostgresDirectory)(nil)

// PostgresDirectory implements the branch directory over the branches table.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory returns a directory backed by db.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// ListBranches returns the active branches of orgID ordered by id. Failures
// are wrapped in ErrDirectoryUnavailable so decision paths degrade instead of
// propagating database errors.
func (d *PostgresDirectory) ListBranches(ctx context.Context, orgID string) ([]*domain.Branch, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, org_id, status, created_at
		   FROM branches WHERE org_id = $1 AND status = 'active' ORDER BY id`,
		orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", branch.ErrDirectoryUnavailable, err)
	}
	defer rows.Close()

	var out []*domain.Branch
	for rows.Next() {
		var b domain.Branch
		var status string
		if err := rows.Scan(&b.ID, &b.Name, &b.OrgID, &status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", branch.ErrDirectoryUnavailable, err)
		}
		b.Status = domain.BranchStatus(status)
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", branch.ErrDirectoryUnavailable, err)
	}
	return out, nil
}
