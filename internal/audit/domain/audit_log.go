package domain

import "time"

// AuditLog is one append-only audit event. Entries are ordered by CreatedAt
// and are never edited or deleted.
type AuditLog struct {
	ID           string
	OrgID        string
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     string
	CreatedAt    time.Time
}
