package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitdesk/backend/internal/permission"
	roledomain "fitdesk/backend/internal/role/domain"
)

type roleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Scope       string   `json:"scope"`
	Permissions []string `json:"permissions"`
}

type roleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	IsSystem    bool      `json:"is_system"`
	Scope       string    `json:"scope"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

func roleToResponse(def *roledomain.RoleDefinition) roleResponse {
	perms := def.Permissions.Sorted()
	out := roleResponse{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Color:       def.Color,
		IsSystem:    def.IsSystem,
		Scope:       string(def.Scope),
		Permissions: make([]string, 0, len(perms)),
		CreatedAt:   def.CreatedAt,
		UpdatedAt:   def.UpdatedAt,
	}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, string(p))
	}
	return out
}

func (req *roleRequest) toDefinition(id string) *roledomain.RoleDefinition {
	perms := permission.NewSet()
	for _, p := range req.Permissions {
		perms.Add(permission.Permission(p))
	}
	return &roledomain.RoleDefinition{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Scope:       roledomain.Scope(req.Scope),
		Permissions: perms,
	}
}

// ListRoles renders every role, system roles first.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	defs := h.registry.ListRoles()
	out := make([]roleResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, roleToResponse(def))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"roles": out})
}

// GetRole renders one role by id.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.GetRole(chi.URLParam(r, "id"))
	if err != nil {
		h.writeRoleError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, roleToResponse(def))
}

// CreateRole creates a custom role.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	def, err := h.registry.CreateCustomRole(r.Context(), req.toDefinition(""))
	if err != nil {
		h.writeRoleError(w, err)
		return
	}
	h.auditRole(r, "role_created", def)
	h.notifyRolesChanged()
	WriteJSON(w, http.StatusCreated, roleToResponse(def))
}

// UpdateRole replaces the mutable fields of a custom role. System roles are
// immutable and answer 409.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	def, err := h.registry.UpdateCustomRole(r.Context(), req.toDefinition(chi.URLParam(r, "id")))
	if err != nil {
		h.writeRoleError(w, err)
		return
	}
	h.auditRole(r, "role_updated", def)
	h.notifyRolesChanged()
	WriteJSON(w, http.StatusOK, roleToResponse(def))
}

// DeleteRole removes a custom role. System roles answer 409.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.DeleteCustomRole(r.Context(), id); err != nil {
		h.writeRoleError(w, err)
		return
	}
	if h.audit != nil {
		user := UserFromContext(r.Context())
		h.audit.Event(r.Context(), user.OrgID, user.ID, "role_deleted", "role", id, "")
	}
	h.notifyRolesChanged()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) auditRole(r *http.Request, action string, def *roledomain.RoleDefinition) {
	if h.audit == nil {
		return
	}
	user := UserFromContext(r.Context())
	meta, _ := json.Marshal(map[string]string{"name": def.Name})
	h.audit.Event(r.Context(), user.OrgID, user.ID, action, "role", def.ID, string(meta))
}

func (h *Handler) notifyRolesChanged() {
	if h.onRolesChanged != nil {
		h.onRolesChanged()
	}
}

func (h *Handler) writeRoleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roledomain.ErrImmutableRole):
		WriteError(w, http.StatusConflict, "immutable_role", "system roles cannot be modified")
	case errors.Is(err, roledomain.ErrRoleExists):
		WriteError(w, http.StatusConflict, "role_exists", "a role with this id already exists")
	case errors.Is(err, roledomain.ErrRoleNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "no such role")
	default:
		WriteError(w, http.StatusBadRequest, "invalid_role", err.Error())
	}
}
