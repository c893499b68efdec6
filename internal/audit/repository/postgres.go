package repository

import (
	"context"
	"database/sql"

	"fitdesk/backend/internal/audit/domain"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists audit logs in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends the audit log. The entry must have ID and CreatedAt set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	actor := sql.NullString{String: a.ActorID, Valid: a.ActorID != ""}
	resourceID := sql.NullString{String: a.ResourceID, Valid: a.ResourceID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, org_id, actor_id, action, resource_type, resource_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.OrgID, actor, a.Action, a.ResourceType, resourceID, meta, a.CreatedAt)
	return err
}

// ListByOrg returns audit logs for the given org, newest first, paginated by
// limit and offset. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, actor_id, action, resource_type, resource_id, metadata, created_at
		   FROM audit_logs WHERE org_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a          domain.AuditLog
			actor      sql.NullString
			resourceID sql.NullString
			meta       sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OrgID, &actor, &a.Action, &a.ResourceType,
			&resourceID, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActorID = actor.String
		a.ResourceID = resourceID.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
