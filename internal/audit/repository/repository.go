package repository

import (
	"context"

	"fitdesk/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs. Create is append-only;
// there is no update or delete path.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error)
}
