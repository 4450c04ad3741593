package middleware

import (
	"context"
	"net/http"
	"strings"

	"grievancedesk/models"
	"grievancedesk/roles"
	"grievancedesk/utils"
)

type contextKey int

const (
	actorKey contextKey = iota
	requestIDKey
)

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor set by RequireAuth.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}

// AuthMiddleware validates JWT token and extracts user_id and role
type AuthMiddleware struct {
	jwtSecret []byte
	catalog   *roles.Catalog
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtSecret string, catalog *roles.Catalog) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: []byte(jwtSecret),
		catalog:   catalog,
	}
}

// RequireAuth validates the bearer token and puts the actor in the request
// context. Tokens naming a role outside the catalog are rejected.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected: Bearer <token>")
			return
		}

		actor, err := utils.ParseJWT(parts[1], m.jwtSecret)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
			return
		}
		if !m.catalog.Known(actor.Role) {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Token role is not recognised")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}
