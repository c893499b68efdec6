package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	auditdomain "fitdesk/backend/internal/audit/domain"
)

// AuditLister is the read surface of the audit repository.
type AuditLister interface {
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

type auditEntryResponse struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	ActorID      string    `json:"actor_id,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Metadata     string    `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListAudit renders the caller's org audit trail, newest first, paginated by
// limit and offset query parameters.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.auditList == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"entries": []auditEntryResponse{}})
		return
	}
	user := UserFromContext(r.Context())
	limit := queryInt32(r, "limit", h.pageSize)
	if limit <= 0 || limit > 500 {
		limit = h.pageSize
	}
	offset := queryInt32(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.auditList.ListByOrg(r.Context(), user.OrgID, limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "audit listing failed")
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:           e.ID,
			OrgID:        e.OrgID,
			ActorID:      e.ActorID,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Metadata:     e.Metadata,
			CreatedAt:    e.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"limit":   limit,
		"offset":  offset,
	})
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}
