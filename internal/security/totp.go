package security

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

type TOTPEnrollment struct {
	Secret    string
	OTPURL    string
	QRDataURL string
}

func GenerateTOTPSecret(issuer, accountName string) (secret string, otpURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Algorithm:   otp.AlgorithmSHA1,
		Digits:      otp.DigitsSix,
		Period:      30,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// NewTOTPEnrollment bundles a fresh secret with a scannable QR code for the authenticator app.
func NewTOTPEnrollment(issuer, accountName string) (TOTPEnrollment, error) {
	secret, otpURL, err := GenerateTOTPSecret(issuer, accountName)
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("generate totp secret: %w", err)
	}
	qr, err := MakeQRCodeDataURL(otpURL, 256)
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("render totp qr: %w", err)
	}
	return TOTPEnrollment{Secret: secret, OTPURL: otpURL, QRDataURL: qr}, nil
}

func ValidateTOTP(secret, code string, now time.Time) bool {
	cleanCode := strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if len(cleanCode) != 6 || strings.TrimSpace(secret) == "" {
		return false
	}
	valid, err := totp.ValidateCustom(cleanCode, secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

func MakeQRCodeDataURL(content string, size int) (string, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
