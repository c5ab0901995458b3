package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

type Account struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	County      string     `json:"county"`
	Role        enums.Role `json:"role"`
	TOTPEnabled bool       `json:"totp_enabled"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AccountCredentials is the secret half of an account, never serialised.
type AccountCredentials struct {
	AccountID    uuid.UUID
	PasswordHash string
	TOTPSecret   string
	TOTPEnabled  bool
	Role         enums.Role
}
