package dto

import "github.com/Emmanuelamanga/cos-platform/internal/domain/model"

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	PhoneNumber     string `json:"phone_number"`
	County          string `json:"county"`
	TermsAccepted   bool   `json:"terms_accepted"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	Account      model.Account `json:"account"`
	AccessToken  string        `json:"access_token,omitempty"`
	ExpiresInSec int64         `json:"expires_in_sec,omitempty"`
	RedirectTo   string        `json:"redirect_to"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type TOTPSetupResponse struct {
	Secret    string `json:"secret"`
	OTPURL    string `json:"otpauth_url"`
	QRDataURL string `json:"qr_data_url"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

type MessageResponse struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}
