package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tastybites/backend/internal/models"
)

const (
	// TokenTTL is the session validity window.
	TokenTTL = 7 * 24 * time.Hour
	// SessionCookie is the name of the cookie carrying the session token.
	SessionCookie = "token"
)

// Claims bind a session token to an account identity and role.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies stateless session tokens.
type TokenManager struct {
	secret []byte
	secure bool // Secure cookie flag, on in production
}

func NewTokenManager(secret string, secure bool) *TokenManager {
	return &TokenManager{secret: []byte(secret), secure: secure}
}

// Issue creates a signed token for the user, valid for TokenTTL.
func (m *TokenManager) Issue(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID.Hex(),
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature and expiry. It returns nil for any failure:
// expired, tampered and malformed tokens are indistinguishable to callers.
func (m *TokenManager) Verify(tokenString string) *Claims {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	return claims
}

// SetCookie installs the session cookie with a max-age matching TokenTTL.
func (m *TokenManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TokenTTL / time.Second),
	})
}

// ClearCookie deletes the session cookie.
func (m *TokenManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   -1,
	})
}
