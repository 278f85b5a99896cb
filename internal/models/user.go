package models

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried in JwtCustomClaims.Role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an end user stored in MongoDB.
// Social-only accounts have no password hash.
type User struct {
	ID           primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email        string             `json:"email,omitempty" bson:"email,omitempty"`
	Password     string             `json:"-" bson:"password,omitempty"` // bcrypt hash
	FacebookID   string             `json:"facebookId,omitempty" bson:"facebookId,omitempty"`
	IsGoogleUser bool               `json:"isGoogleUser" bson:"isGoogleUser"`
	IsBlocked    bool               `json:"isBlocked" bson:"isBlocked"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// ErrMissingIdentity is returned for a user with neither email nor Facebook id.
var ErrMissingIdentity = errors.New("user must have an email or a facebook id")

// Validate enforces that at least one identity is present.
func (u *User) Validate() error {
	if u.Email == "" && u.FacebookID == "" {
		return ErrMissingIdentity
	}
	return nil
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// NormalizeEmail is the form in which emails are stored and looked up
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CredentialsRequest is the body of register and login
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *CredentialsRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

// PasswordRequest is the body of set-password and reset-password.
// ResetToken is the token returned by verify-otp or verify-reset-otp for Email.
type PasswordRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	ResetToken string `json:"resetToken"`
}

func (r *PasswordRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

// EmailRequest is the body of send-otp and forgot-password
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

// VerifyOtpRequest is the body of verify-otp and verify-reset-otp
type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,len=6,numeric"`
}

func (r *VerifyOtpRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

// GoogleLoginRequest carries a Firebase ID token obtained by the client's Google sign-in
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FacebookLoginRequest carries the Facebook user id returned by the client SDK
type FacebookLoginRequest struct {
	UserID string `json:"userID" validate:"required"`
}

// LoginResponse is returned by every successful login flow
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
}

// PasswordResetClaims are issued once an OTP for Email has been verified.
// They carry no user id, so JWTAuthMiddleware never accepts them.
type PasswordResetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
