package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/otp"
	"github.com/tastybites/backend/internal/store"
)

// fakeUsers is an in-memory Users implementation with a unique email key.
type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Update(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if v, ok := fields["password"]; ok {
		u.Password = v.(string)
	}
	if v, ok := fields["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := fields["bio"]; ok {
		u.Bio = v.(string)
	}
	return nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordExpires = expires
	return nil
}

func (f *fakeUsers) ClearResetToken(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.ResetPasswordToken = ""
		u.ResetPasswordExpires = time.Time{}
	}
	return nil
}

func (f *fakeUsers) GetByResetToken(_ context.Context, tokenHash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetPasswordToken == tokenHash && u.ResetPasswordExpires.After(time.Now()) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// fakeOTPs backs a real otp.Service in handler tests.
type fakeOTPs struct {
	mu   sync.Mutex
	recs map[string]*models.OTP
}

func newFakeOTPs() *fakeOTPs {
	return &fakeOTPs{recs: make(map[string]*models.OTP)}
}

func (f *fakeOTPs) Replace(_ context.Context, rec *models.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.recs[rec.Email] = &cp
	return nil
}

func (f *fakeOTPs) Find(_ context.Context, email, code string) (*models.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[email]
	if !ok || rec.Code != code {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeOTPs) MarkVerified(_ context.Context, email, code string, newExpiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[email]
	if !ok || rec.Code != code || rec.Verified {
		return store.ErrNotFound
	}
	rec.Verified = true
	rec.ExpiresAt = newExpiry
	return nil
}

func (f *fakeOTPs) FindVerified(_ context.Context, email string) (*models.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[email]
	if !ok || !rec.Verified || !rec.ExpiresAt.After(time.Now()) {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeOTPs) DeleteByEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, email)
	return nil
}

func (f *fakeOTPs) markVerified(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[email] = &models.OTP{
		Email:     email,
		Code:      "123456",
		Verified:  true,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

type openLimiter struct{}

func (openLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

// recordingMailer captures outgoing mail for assertions and can be told
// to start failing.
type recordingMailer struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (m *recordingMailer) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.bodies = append(m.bodies, body)
	return nil
}

func (m *recordingMailer) failWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *recordingMailer) lastBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		return ""
	}
	return m.bodies[len(m.bodies)-1]
}

type handlerFixture struct {
	handler *Handler
	users   *fakeUsers
	otps    *fakeOTPs
	mailer  *recordingMailer
	tokens  *TokenManager
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	users := newFakeUsers()
	otps := newFakeOTPs()
	mailer := &recordingMailer{}
	tokens := NewTokenManager("test-secret", false)
	svc := otp.NewService(otps, openLimiter{}, mailer, zap.NewNop())
	return &handlerFixture{
		handler: NewHandler(users, svc, tokens, mailer, zap.NewNop(), "http://localhost:3000"),
		users:   users,
		otps:    otps,
		mailer:  mailer,
		tokens:  tokens,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestRegisterWithoutVerifiedOTP(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	w := postJSON(t, fx.handler.Register, models.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "hunter22",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "verify your email")
}

func TestRegisterHappyPath(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.otps.markVerified("asha@example.com")

	w := postJSON(t, fx.handler.Register, models.RegisterRequest{
		Name: "Asha", Email: "Asha@Example.com", Password: "hunter22",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie, "session cookie missing")
	claims := fx.tokens.Verify(cookie.Value)
	require.NotNil(t, claims)
	assert.Equal(t, "asha@example.com", claims.Email)

	u, err := fx.users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, VerifyPassword("hunter22", u.Password))

	// The verified OTP is consumed.
	_, err = fx.otps.FindVerified(context.Background(), "asha@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.otps.markVerified("asha@example.com")
	w := postJSON(t, fx.handler.Register, models.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	fx.otps.markVerified("asha@example.com")
	w = postJSON(t, fx.handler.Register, models.RegisterRequest{
		Name: "Asha Again", Email: "asha@example.com", Password: "hunter23",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already in use")
}

func TestLogin(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, fx.users.Create(context.Background(), &models.User{
		Name: "Asha", Email: "asha@example.com", Password: hash, Role: models.RoleUser,
	}))

	w := postJSON(t, fx.handler.Login, models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = postJSON(t, fx.handler.Login, models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = postJSON(t, fx.handler.Login, models.LoginRequest{Email: "Asha@Example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, sessionCookie(t, w))
}

var resetTokenRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	hash, err := HashPassword("old-password")
	require.NoError(t, err)
	require.NoError(t, fx.users.Create(context.Background(), &models.User{
		Name: "Asha", Email: "asha@example.com", Password: hash, Role: models.RoleUser,
	}))

	// Unknown addresses get the same response and no email.
	w := postJSON(t, fx.handler.ForgotPassword, models.ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, fx.mailer.lastBody())

	w = postJSON(t, fx.handler.ForgotPassword, models.ForgotPasswordRequest{Email: "asha@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	match := resetTokenRe.FindStringSubmatch(fx.mailer.lastBody())
	require.Len(t, match, 2, "reset email should carry the token")
	token := match[1]

	w = postJSON(t, fx.handler.ResetPassword, models.ResetPasswordRequest{Token: "deadbeef", Password: "new-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")

	w = postJSON(t, fx.handler.ResetPassword, models.ResetPasswordRequest{Token: token, Password: "new-password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := fx.users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("new-password", u.Password))
	assert.False(t, VerifyPassword("old-password", u.Password))

	// The token is single use.
	w = postJSON(t, fx.handler.ResetPassword, models.ResetPasswordRequest{Token: token, Password: "another"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForgotPasswordSendFailureRollsBackToken(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, fx.users.Create(context.Background(), &models.User{
		Name: "Asha", Email: "asha@example.com", Password: hash, Role: models.RoleUser,
	}))
	fx.mailer.failWith(errors.New("smtp unreachable"))

	w := postJSON(t, fx.handler.ForgotPassword, models.ForgotPasswordRequest{Email: "asha@example.com"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The stored token must not survive a failed send, or a token the
	// user never received would sit live for ten minutes.
	u, err := fx.users.GetByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Empty(t, u.ResetPasswordToken)
	assert.True(t, u.ResetPasswordExpires.IsZero())
}

func TestVerifyOTPEndpointMessages(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.otps.Replace(ctx, &models.OTP{
		Email:     "asha@example.com",
		Code:      "654321",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}))

	w := postJSON(t, fx.handler.VerifyOTP, models.VerifyOTPRequest{Email: "asha@example.com", OTP: "111111"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no matching record")

	w = postJSON(t, fx.handler.VerifyOTP, models.VerifyOTPRequest{Email: "asha@example.com", OTP: "654321"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verified":true`)

	w = postJSON(t, fx.handler.VerifyOTP, models.VerifyOTPRequest{Email: "asha@example.com", OTP: "654321"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already been used")
}
