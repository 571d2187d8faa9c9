package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP is a short-lived email verification code. At most one record exists
// per email (upsert on reissue); a TTL index on expires_at reaps stale rows.
type OTP struct {
	ID        primitive.ObjectID `json:"-"          bson:"_id,omitempty"`
	Email     string             `json:"email"      bson:"email"`
	Code      string             `json:"-"          bson:"otp"`
	Verified  bool               `json:"verified"   bson:"verified"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
}

// SendOTPRequest is the JSON body for POST /api/auth/send-otp.
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest is the JSON body for POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

// ContactMessage is a contact-form submission, persisted in Postgres.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactRequest is the JSON body for POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name"    validate:"required,max=100"`
	Email   string `json:"email"   validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}
