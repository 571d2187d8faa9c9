// Package otp implements the email verification flow gating registration:
// a 6-digit code is issued per address, verified once, then consumed when
// the account is created.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tastybites/backend/internal/email"
	"github.com/tastybites/backend/internal/models"
	"github.com/tastybites/backend/internal/store"
)

// CodeTTL is how long an issued code stays valid. Successful verification
// grants a fresh window of the same length so the TTL reaper cannot
// delete a verified code before registration consumes it.
const CodeTTL = 10 * time.Minute

var (
	ErrNoMatch     = errors.New("invalid OTP - no matching record found")
	ErrAlreadyUsed = errors.New("OTP has already been used")
	ErrExpired     = errors.New("OTP has expired")
	ErrNotVerified = errors.New("please verify your email with OTP first")
	ErrRateLimited = errors.New("too many verification codes requested, try again later")
)

// Store is the persistence contract the service needs. Replace must be
// an atomic upsert keyed by email.
type Store interface {
	Replace(ctx context.Context, rec *models.OTP) error
	Find(ctx context.Context, email, code string) (*models.OTP, error)
	MarkVerified(ctx context.Context, email, code string, newExpiry time.Time) error
	FindVerified(ctx context.Context, email string) (*models.OTP, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// Limiter caps how often codes can be requested per email.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Service drives the OTP state machine.
type Service struct {
	store   Store
	limiter Limiter
	mailer  email.Mailer
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, limiter Limiter, mailer email.Mailer, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		limiter: limiter,
		mailer:  mailer,
		log:     log,
		now:     time.Now,
	}
}

// Normalize canonicalizes an email address for OTP and account lookups.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// GenerateCode returns a uniformly random 6-digit decimal code, leading
// zeros preserved.
func GenerateCode() (string, error) {
	const digits = "0123456789"
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}

// Request issues a fresh code for the address, replacing any prior one,
// and emails it. A send failure is a hard error: the user cannot proceed
// without the code, so there is no point pretending it worked.
func (s *Service) Request(ctx context.Context, addr string) error {
	addr = Normalize(addr)

	ok, err := s.limiter.Allow(ctx, addr)
	if err != nil {
		// Redis being down should not lock everyone out of registration.
		s.log.Warn("otp rate limiter unavailable", zap.Error(err))
	} else if !ok {
		return ErrRateLimited
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}

	rec := &models.OTP{
		Email:     addr,
		Code:      code,
		Verified:  false,
		ExpiresAt: s.now().Add(CodeTTL),
	}
	if err := s.store.Replace(ctx, rec); err != nil {
		return err
	}

	subject, body := email.OTPBody(code)
	if err := s.mailer.Send(ctx, addr, subject, body); err != nil {
		s.log.Error("otp email send failed", zap.String("email", addr), zap.Error(err))
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

// Verify checks a submitted code. The three failure modes stay distinct
// so clients can tell a typo from a stale code.
func (s *Service) Verify(ctx context.Context, addr, code string) error {
	addr = Normalize(addr)
	code = strings.TrimSpace(code)

	rec, err := s.store.Find(ctx, addr, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoMatch
		}
		return err
	}
	if rec.Verified {
		return ErrAlreadyUsed
	}
	if !rec.ExpiresAt.After(s.now()) {
		return ErrExpired
	}
	if err := s.store.MarkVerified(ctx, addr, code, s.now().Add(CodeTTL)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with a concurrent verify of the same code.
			return ErrAlreadyUsed
		}
		return err
	}
	return nil
}

// Require checks that the address holds a verified, unexpired record.
// Registration calls this before creating the account and Discard after,
// so a failed insert doesn't burn the code.
func (s *Service) Require(ctx context.Context, addr string) error {
	_, err := s.store.FindVerified(ctx, Normalize(addr))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotVerified
		}
		return err
	}
	return nil
}

// Discard deletes every record for the address, consuming the code once
// the account exists.
func (s *Service) Discard(ctx context.Context, addr string) error {
	return s.store.DeleteByEmail(ctx, Normalize(addr))
}
