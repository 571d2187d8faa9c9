package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tastybites/backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Asha",
		Email: "asha@example.com",
		Role:  models.RoleUser,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", false)
	u := testUser()

	token, err := m.Issue(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := m.Verify(token)
	require.NotNil(t, claims)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, u.Name, claims.Name)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestTokenTampered(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", false)
	token, err := m.Issue(testUser())
	require.NoError(t, err)

	// Flip one byte in the payload segment.
	b := []byte(token)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}
	assert.Nil(t, m.Verify(string(b)))
}

func TestTokenWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager("secret-one", false)
	verifier := NewTokenManager("secret-two", false)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)
	assert.Nil(t, verifier.Verify(token))
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", false)
	claims := Claims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-8 * 24 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	assert.Nil(t, m.Verify(token))
}

func TestTokenRejectsNonHMAC(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", false)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.Nil(t, m.Verify(token))
}

func TestClaimsContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ClaimsFromContext(context.Background()))

	claims := &Claims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleUser}
	ctx := WithClaims(context.Background(), claims)
	assert.Same(t, claims, ClaimsFromContext(ctx))
}

func TestSessionCookieLifecycle(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", true)

	w := httptest.NewRecorder()
	m.SetCookie(w, "abc123")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookie, c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, int(TokenTTL/time.Second), c.MaxAge)

	w = httptest.NewRecorder()
	m.ClearCookie(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}
