package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tastybites/backend/internal/auth"
	"github.com/tastybites/backend/internal/models"
)

func sessionFor(t *testing.T, m *auth.TokenManager, role string) *http.Cookie {
	t.Helper()
	token, err := m.Issue(&models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Priya",
		Email: "priya@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func claimsEcho(t *testing.T, captured **auth.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = auth.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthNoCookie(t *testing.T) {
	t.Parallel()

	m := auth.NewTokenManager("test-secret", false)
	var captured *auth.Claims
	h := RequireAuth(m)(claimsEcho(t, &captured))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, captured)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestRequireAuthBadToken(t *testing.T) {
	t.Parallel()

	m := auth.NewTokenManager("test-secret", false)
	var captured *auth.Claims
	h := RequireAuth(m)(claimsEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, captured)
}

func TestRequireAuthInjectsClaims(t *testing.T) {
	t.Parallel()

	m := auth.NewTokenManager("test-secret", false)
	var captured *auth.Claims
	h := RequireAuth(m)(claimsEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionFor(t, m, models.RoleUser))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "priya@example.com", captured.Email)
	assert.Equal(t, models.RoleUser, captured.Role)
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	m := auth.NewTokenManager("test-secret", false)
	var captured *auth.Claims
	h := OptionalAuth(m)(claimsEcho(t, &captured))

	// Anonymous requests pass through with no claims.
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, captured)

	// A valid cookie attaches claims.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionFor(t, m, models.RoleEditor))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, models.RoleEditor, captured.Role)
}

func TestAllowPolicy(t *testing.T) {
	t.Parallel()

	assert.False(t, Allow(nil, models.RoleUser))
	assert.True(t, Allow(&auth.Claims{Role: models.RoleUser}, models.RoleUser))
	assert.False(t, Allow(&auth.Claims{Role: models.RoleUser}, models.RoleEditor))
	assert.True(t, Allow(&auth.Claims{Role: models.RoleEditor}, models.RoleEditor))
	// Admins pass every check.
	assert.True(t, Allow(&auth.Claims{Role: models.RoleAdmin}, models.RoleUser))
	assert.True(t, Allow(&auth.Claims{Role: models.RoleAdmin}, models.RoleEditor))
	assert.True(t, Allow(&auth.Claims{Role: models.RoleAdmin}, models.RoleAdmin))
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	m := auth.NewTokenManager("test-secret", false)
	h := RequireAuth(m)(RequireRole(models.RoleAdmin)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
	)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionFor(t, m, models.RoleUser))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin access required")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionFor(t, m, models.RoleAdmin))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
