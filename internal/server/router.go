package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fitdesk/backend/internal/permission"
)

// NewRouter wires the HTTP routes. tokens and users drive the per-request
// authentication; h carries the endpoint dependencies.
func NewRouter(h *Handler, tokens TokenVerifier, users UserResolver) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Authenticate(tokens, users))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/me/permissions", h.MePermissions)
			r.Get("/me/branches", h.MeBranches)
			r.Get("/branches", h.ListBranches)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequirePermission(permission.RolesManage))
			r.Get("/roles", h.ListRoles)
			r.Post("/roles", h.CreateRole)
			r.Get("/roles/{id}", h.GetRole)
			r.Put("/roles/{id}", h.UpdateRole)
			r.Delete("/roles/{id}", h.DeleteRole)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequirePermission(permission.AuditView))
			r.Get("/audit", h.ListAudit)
		})
	})

	return r
}
