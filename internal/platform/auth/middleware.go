package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lantern-eats/api/internal/domain"
)

// Verifier checks a bearer token and returns the authenticated identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// RequireAuth enforces a valid bearer token and stores the identity on the request context.
func RequireAuth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				respondAuthError(w, http.StatusServiceUnavailable, "verification_unavailable", "token verifier not configured")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "token_missing", "authorization header missing or malformed")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					respondAuthError(w, http.StatusUnauthorized, "token_expired", "token expired")
				default:
					respondAuthError(w, http.StatusUnauthorized, "token_invalid", "token invalid")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRoles restricts the route to identities carrying one of the listed roles.
// It must run after RequireAuth.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "token_missing", "authentication required")
				return
			}
			if !identity.HasAnyRole(roles...) {
				respondAuthError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
		"status":  status,
	})
}
