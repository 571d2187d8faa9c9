package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/email"
	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/otp"
	"github.com/tastybites/backend/internal/response"
	"github.com/tastybites/backend/internal/store"
)

const resetTokenTTL = 10 * time.Minute

// Users defines the account persistence the handlers need.
type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	GetByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
}

// Handler holds the auth, OTP and profile HTTP handlers.
type Handler struct {
	users    Users
	otps     *otp.Service
	tokens   *TokenManager
	mailer   email.Mailer
	validate *validator.Validate
	log      *zap.Logger
	origin   string // fallback frontend origin for reset links
}

func NewHandler(users Users, otps *otp.Service, tokens *TokenManager, mailer email.Mailer, log *zap.Logger, origin string) *Handler {
	return &Handler{
		users:    users,
		otps:     otps,
		tokens:   tokens,
		mailer:   mailer,
		validate: validator.New(),
		log:      log,
		origin:   origin,
	}
}

func (h *Handler) decodeValid(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.New("missing or malformed fields")
	}
	return nil
}

// userSummary is the account shape returned by auth endpoints.
type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func summarize(u *models.User) userSummary {
	return userSummary{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role}
}

// SendOTP issues a verification code for an email address.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.SendOTPRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.otps.Request(r.Context(), req.Email); err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			response.Error(w, http.StatusTooManyRequests, err.Error())
			return
		}
		h.log.Error("send otp failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}
	response.OK(w, "OTP sent successfully")
}

// VerifyOTP checks a submitted code. The three failure modes keep
// distinct messages so the client can branch.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]interface{}{"verified": false, "message": err.Error()})
		return
	}

	if err := h.otps.Verify(r.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, otp.ErrNoMatch), errors.Is(err, otp.ErrAlreadyUsed), errors.Is(err, otp.ErrExpired):
			response.JSON(w, http.StatusBadRequest, map[string]interface{}{"verified": false, "message": err.Error()})
		default:
			h.log.Error("verify otp failed", zap.Error(err))
			response.JSON(w, http.StatusInternalServerError, map[string]interface{}{"verified": false, "message": "Verification failed"})
		}
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"verified": true, "message": "OTP verified successfully"})
}

// Register creates an account for an OTP-verified email.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	addr := otp.Normalize(req.Email)

	if _, err := h.users.GetByEmail(r.Context(), addr); err == nil {
		response.Error(w, http.StatusConflict, "Email already in use")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error("register lookup failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	if err := h.otps.Require(r.Context(), addr); err != nil {
		if errors.Is(err, otp.ErrNotVerified) {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("register otp check failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &models.User{
		Name:          req.Name,
		Email:         addr,
		Password:      hashed,
		Role:          models.RoleUser,
		EmailVerified: true, // gated by the OTP flow
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusConflict, "Email already in use")
			return
		}
		h.log.Error("create user failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	if err := h.otps.Discard(r.Context(), addr); err != nil {
		h.log.Warn("otp cleanup failed", zap.String("email", addr), zap.Error(err))
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	h.tokens.SetCookie(w, token)

	// Welcome email is best effort and must not block registration.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		subject, body := email.WelcomeBody(user.Name)
		if err := h.mailer.Send(ctx, addr, subject, body); err != nil {
			h.log.Warn("welcome email failed", zap.String("email", addr), zap.Error(err))
		}
	}()

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Registration successful",
		"user":    summarize(user),
	})
}

// Login authenticates credentials and installs the session cookie.
// Unknown email and wrong password are indistinguishable to the caller.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), otp.Normalize(req.Email))
	if err != nil || !VerifyPassword(req.Password, user.Password) {
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}
	h.tokens.SetCookie(w, token)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    summarize(user),
	})
}

// Logout deletes the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearCookie(w)
	response.OK(w, "Logged out successfully")
}

// Me returns the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, "User not found")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// ForgotPassword emails a reset link. The response never reveals whether
// the address is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	const reply = "If your email is registered, you will receive a password reset link"

	var req models.ForgotPasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), otp.Normalize(req.Email))
	if err != nil {
		response.OK(w, reply)
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		h.log.Error("reset token generation failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	token := hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))

	if err := h.users.SetResetToken(r.Context(), user.ID, hex.EncodeToString(sum[:]), time.Now().Add(resetTokenTTL)); err != nil {
		h.log.Error("reset token store failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.origin
	}
	subject, body := email.PasswordResetBody(origin + "/auth/reset-password?token=" + token)
	if err := h.mailer.Send(r.Context(), user.Email, subject, body); err != nil {
		// Roll back so a dangling token can't be replayed later.
		if cerr := h.users.ClearResetToken(r.Context(), user.ID); cerr != nil {
			h.log.Error("reset token rollback failed", zap.Error(cerr))
		}
		h.log.Error("reset email failed", zap.String("email", user.Email), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	response.OK(w, reply)
}

// ResetPassword completes the reset flow with the emailed token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sum := sha256.Sum256([]byte(req.Token))
	user, err := h.users.GetByResetToken(r.Context(), hex.EncodeToString(sum[:]))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if err := h.users.Update(r.Context(), user.ID, bson.M{"password": hashed}); err != nil {
		h.log.Error("password update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	if err := h.users.ClearResetToken(r.Context(), user.ID); err != nil {
		h.log.Warn("reset token clear failed", zap.Error(err))
	}

	response.OK(w, "Password reset successful")
}

// ChangePassword rotates the password for the authenticated account.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChangePasswordRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if !VerifyPassword(req.CurrentPassword, user.Password) {
		response.Error(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to change password")
		return
	}
	if err := h.users.Update(r.Context(), id, bson.M{"password": hashed}); err != nil {
		h.log.Error("password update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to change password")
		return
	}

	response.OK(w, "Password changed successfully")
}

// UpdateProfile edits the authenticated account's public fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.UpdateProfileRequest
	if err := h.decodeValid(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Bio != "" {
		fields["bio"] = req.Bio
	}
	if req.Avatar != "" {
		fields["avatar"] = req.Avatar
	}
	if req.Website != "" {
		fields["website"] = req.Website
	}
	if req.SocialLinks != nil {
		fields["social_links"] = req.SocialLinks
	}
	if len(fields) == 0 {
		response.Error(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.users.Update(r.Context(), id, fields); err != nil {
		h.log.Error("profile update failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, "User not found")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}
