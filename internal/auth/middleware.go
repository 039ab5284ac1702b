package auth

import (
	"net/http"
	"strings"

	"github.com/fabrika-mes/fabrika/internal/platform/httpx"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

// Middleware guards routes with bearer-token authentication and role checks.
type Middleware struct {
	tokens *TokenIssuer
}

// NewMiddleware constructs Middleware.
func NewMiddleware(tokens *TokenIssuer) *Middleware {
	return &Middleware{tokens: tokens}
}

// Authenticate verifies the Authorization header and stores the actor in the
// request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		claims, err := m.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		actor := shared.Actor{ID: claims.UserID, Username: claims.Username, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireRole permits only actors whose role is in the allowed set. Admin is
// always permitted.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{RoleAdmin: true}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor.ID == 0 {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if !allowed[actor.Role] {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
