// Package server is the HTTP surface over the authorization core: per-request
// identity resolution, permission-gated admin routes, and the diagnostic
// endpoints the management UI drives its gating from.
package server

import (
	"context"
	"net/http"

	"fitdesk/backend/internal/authz"
	"fitdesk/backend/internal/branch"
	branchdomain "fitdesk/backend/internal/branch/domain"
	"fitdesk/backend/internal/role"
)

// AuditRecorder records audit events. Best-effort; may be nil.
type AuditRecorder interface {
	Event(ctx context.Context, orgID, actorID, action, resourceType, resourceID, metadata string)
}

// Handler carries the dependencies of the HTTP endpoints.
type Handler struct {
	registry  *role.Registry
	directory branch.Directory
	audit     AuditRecorder
	auditList AuditLister
	pageSize  int32

	// onRolesChanged is invoked after every successful role mutation so
	// long-lived sessions can refresh their snapshot. May be nil.
	onRolesChanged func()
}

// NewHandler returns a Handler. audit, auditList, and onRolesChanged may be
// nil; pageSize <= 0 falls back to 50.
func NewHandler(registry *role.Registry, directory branch.Directory, audit AuditRecorder, auditList AuditLister, pageSize int32, onRolesChanged func()) *Handler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Handler{
		registry:       registry,
		directory:      directory,
		audit:          audit,
		auditList:      auditList,
		pageSize:       pageSize,
		onRolesChanged: onRolesChanged,
	}
}

type mePermissionsResponse struct {
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	TeamRole    string   `json:"team_role,omitempty"`
	OrgID       string   `json:"org_id"`
	Permissions []string `json:"permissions"`
}

// MePermissions renders the caller's effective permission matrix.
func (h *Handler) MePermissions(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	perms := authz.UserPermissions(user)
	out := mePermissionsResponse{
		UserID:      user.ID,
		Role:        user.Role,
		TeamRole:    user.TeamRole,
		OrgID:       user.OrgID,
		Permissions: make([]string, 0, len(perms)),
	}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, string(p))
	}
	WriteJSON(w, http.StatusOK, out)
}

type meBranchesResponse struct {
	Branches        []string `json:"branches"`
	CurrentBranchID string   `json:"current_branch_id,omitempty"`
}

// MeBranches renders the branch ids the caller may access, or the "all"
// sentinel for global scope. A directory failure degrades to an empty list
// for org-bound roles; it never surfaces as an error.
func (h *Handler) MeBranches(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	branches, directoryOK := h.listBranches(r.Context(), user.OrgID)
	ids := authz.AccessibleBranches(user, branches, directoryOK)
	if ids == nil {
		ids = []string{}
	}
	WriteJSON(w, http.StatusOK, meBranchesResponse{
		Branches:        ids,
		CurrentBranchID: authz.CurrentBranchID(user, branches),
	})
}

type branchResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	OrgID  string `json:"org_id"`
	Status string `json:"status"`
}

// ListBranches renders the directory entries the caller may access, with
// metadata. Global scope sees the full directory of its org context.
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	branches, directoryOK := h.listBranches(r.Context(), user.OrgID)

	out := make([]branchResponse, 0, len(branches))
	for _, b := range branches {
		if b == nil {
			continue
		}
		if !authz.CanAccessBranch(user, b.ID, branches, directoryOK) {
			continue
		}
		out = append(out, branchResponse{
			ID:     b.ID,
			Name:   b.Name,
			OrgID:  b.OrgID,
			Status: string(b.Status),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"branches": out})
}

// listBranches wraps the directory lookup. The second return is false when
// the directory is unavailable; decision helpers then fail closed.
func (h *Handler) listBranches(ctx context.Context, orgID string) ([]*branchdomain.Branch, bool) {
	if h.directory == nil {
		return nil, false
	}
	branches, err := h.directory.ListBranches(ctx, orgID)
	if err != nil {
		return nil, false
	}
	return branches, true
}
