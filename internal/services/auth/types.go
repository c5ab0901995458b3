package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRefreshNotFound    = errors.New("refresh token not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTOTPRequired       = errors.New("two-factor code required")
	ErrTOTPInvalid        = errors.New("invalid two-factor code")
	ErrTOTPNotConfigured  = errors.New("two-factor is not configured")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or expired")
	ErrRateLimited        = errors.New("too many attempts")
)

type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %ds", e.RetryAfterSec)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

type SessionRecord struct {
	SID       string
	AccountID uuid.UUID
	Role      enums.Role
	ExpiresAt time.Time
}

type AccessClaims struct {
	AccountID uuid.UUID
	SID       string
	Role      enums.Role
	ExpiresAt time.Time
}

type AuthResult struct {
	AccessToken    string
	RefreshToken   string
	AccessExpires  time.Time
	RefreshExpires time.Time
	Account        model.Account
}

// RoleResolution is the outcome of a role lookup. Known is false when the lookup failed.
type RoleResolution struct {
	Role  enums.Role
	Known bool
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	PhoneNumber     string
	County          string
	TermsAccepted   bool
}

type SignInInput struct {
	Email    string
	Password string
	TOTPCode string
	ClientIP string
}
