package middleware

import (
	"net/http"

	"github.com/tastybites/backend/internal/auth"
	"github.com/tastybites/backend/internal/models"
)

// RequireAuth validates the session cookie and injects the claims into
// the request context. Missing, expired and forged tokens are all
// reported the same way.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"success":false,"message":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			claims := tokens.Verify(cookie.Value)
			if claims == nil {
				http.Error(w, `{"success":false,"message":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth injects claims when a valid session cookie is present
// but never rejects the request. Public routes that behave differently
// for signed-in users mount this instead of RequireAuth.
func OptionalAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
				if claims := tokens.Verify(cookie.Value); claims != nil {
					r = r.WithContext(auth.WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allow is the single authorization policy: admins can do anything,
// everyone else needs an exact role match.
func Allow(claims *auth.Claims, requiredRole string) bool {
	if claims == nil {
		return false
	}
	return claims.Role == requiredRole || claims.Role == models.RoleAdmin
}

// RequireRole gates a route on the authorization policy. It must be
// mounted after RequireAuth.
func RequireRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Allow(auth.ClaimsFromContext(r.Context()), requiredRole) {
				http.Error(w, `{"success":false,"message":"`+requiredRole+` access required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
