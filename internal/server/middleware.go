package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"fitdesk/backend/internal/authz"
	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
)

type ctxKey int

const userKey ctxKey = iota

// TokenVerifier validates a bearer token and returns the principal it encodes.
type TokenVerifier interface {
	VerifyAccess(token string) (*domain.Principal, error)
}

// UserResolver builds the resolved user for a principal. Matches
// identity.Binding.
type UserResolver interface {
	Resolve(ctx context.Context, p *domain.Principal) (*domain.UserWithRoles, error)
}

// UserFromContext returns the resolved user for the request, or nil when the
// request carried no valid token. Handlers treat nil as an anonymous caller.
func UserFromContext(ctx context.Context) *domain.UserWithRoles {
	u, _ := ctx.Value(userKey).(*domain.UserWithRoles)
	return u
}

// ContextWithUser stashes the resolved user on the context. Exported for
// handler tests.
func ContextWithUser(ctx context.Context, u *domain.UserWithRoles) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Authenticate extracts the bearer token, verifies it, and resolves the user
// once per request. A missing or invalid token does not fail the request; the
// user is simply absent and every gated route then denies. A resolution error
// (store down) also yields an absent user, so decisions stay fail-closed.
func Authenticate(tokens TokenVerifier, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := bearerPrincipal(tokens, r)
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.Resolve(r.Context(), principal)
			if err != nil {
				log.Printf("server: resolve user %s: %v", principal.ID, err)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func bearerPrincipal(tokens TokenVerifier, r *http.Request) *domain.Principal {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" {
		return nil
	}
	var raw string
	if i := strings.IndexByte(ah, ' '); i > 0 && strings.EqualFold(ah[:i], "Bearer") {
		raw = strings.TrimSpace(ah[i+1:])
	}
	if raw == "" {
		return nil
	}
	principal, err := tokens.VerifyAccess(raw)
	if err != nil {
		return nil
	}
	return principal
}

// RequirePermission gates a route on a single permission tag. Anonymous
// callers get 401, authenticated callers without the tag get 403.
func RequirePermission(p permission.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
				return
			}
			if !authz.HasPermission(user, p) {
				WriteError(w, http.StatusForbidden, "forbidden", "insufficient permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser gates a route on authentication only.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
