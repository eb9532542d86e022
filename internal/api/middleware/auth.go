package middleware

import (
	"context"
	"net/http"

	"github.com/mb-events/server/internal/api/respond"
	"github.com/mb-events/server/internal/auth"
)

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from a session token.
type Identity struct {
	UserID   string
	Email    string
	FullName string
}

// RequireAuth rejects requests without a valid bearer session token and
// stores the caller's identity in the request context.
func RequireAuth(tokens *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "authentication required", err)
				return
			}

			claims, err := tokens.ValidateSession(token)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "invalid or expired token", err)
				return
			}

			identity := Identity{
				UserID:   claims.Subject,
				Email:    claims.Email,
				FullName: claims.FullName,
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
