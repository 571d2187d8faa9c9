package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles assignable to an account.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// SocialLinks holds optional profile links shown on an author page.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"  bson:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"   bson:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
	Pinterest string `json:"pinterest,omitempty" bson:"pinterest,omitempty"`
}

// User is an account document. Email is stored lowercased and unique.
type User struct {
	ID            primitive.ObjectID `json:"id"                      bson:"_id,omitempty"`
	Name          string             `json:"name"                    bson:"name"`
	Email         string             `json:"email"                   bson:"email"`
	Password      string             `json:"-"                       bson:"password"` // bcrypt hash, never serialized
	Role          string             `json:"role"                    bson:"role"`
	EmailVerified bool               `json:"email_verified"          bson:"email_verified"`
	Bio           string             `json:"bio,omitempty"           bson:"bio,omitempty"`
	Avatar        string             `json:"avatar,omitempty"        bson:"avatar,omitempty"`
	Website       string             `json:"website,omitempty"       bson:"website,omitempty"`
	SocialLinks   *SocialLinks       `json:"social_links,omitempty"  bson:"social_links,omitempty"`

	ResetPasswordToken   string    `json:"-" bson:"reset_password_token,omitempty"`
	ResetPasswordExpires time.Time `json:"-" bson:"reset_password_expires,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// AuthorRef is the subset of a user embedded in content responses.
type AuthorRef struct {
	ID     primitive.ObjectID `json:"id"               bson:"_id"`
	Name   string             `json:"name"             bson:"name"`
	Avatar string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the JSON body for PUT /api/user/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6"`
}

// UpdateProfileRequest is the JSON body for PUT /api/user/profile.
type UpdateProfileRequest struct {
	Name        string       `json:"name"    validate:"omitempty,max=50"`
	Bio         string       `json:"bio"     validate:"omitempty,max=500"`
	Avatar      string       `json:"avatar"`
	Website     string       `json:"website"`
	SocialLinks *SocialLinks `json:"social_links"`
}

// ForgotPasswordRequest is the JSON body for POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON body for POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}
