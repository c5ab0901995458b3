package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("check password: %v", err)
	}
	if err := CheckPassword(hash, "wrong horse"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := CheckPassword("", "correct horse"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword for empty hash, got %v", err)
	}
}

func TestHashPasswordRejectsShortPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestSecretCipherRoundTrip(t *testing.T) {
	c, err := NewSecretCipher(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	sealed, err := c.Encrypt("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.HasPrefix(sealed, encryptedValuePrefix) {
		t.Fatalf("missing prefix: %s", sealed)
	}

	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("unexpected plaintext: %s", plain)
	}

	if _, err := c.Decrypt("JBSWY3DPEHPK3PXP"); !errors.Is(err, ErrNotEncrypted) {
		t.Fatalf("expected ErrNotEncrypted, got %v", err)
	}
}

func TestNewSecretCipherRejectsBadKey(t *testing.T) {
	if _, err := NewSecretCipher("too-short"); !errors.Is(err, ErrInvalidSecretCipherKey) {
		t.Fatalf("expected ErrInvalidSecretCipherKey, got %v", err)
	}
}

func TestValidateTOTP(t *testing.T) {
	enrollment, err := NewTOTPEnrollment("COS", "citizen@example.com")
	if err != nil {
		t.Fatalf("new enrollment: %v", err)
	}
	if !strings.HasPrefix(enrollment.QRDataURL, "data:image/png;base64,") {
		t.Fatalf("unexpected qr data url prefix")
	}

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCodeCustom(enrollment.Secret, now, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	if !ValidateTOTP(enrollment.Secret, code, now) {
		t.Fatalf("expected code to validate")
	}
	if ValidateTOTP(enrollment.Secret, code, now.Add(5*time.Minute)) {
		t.Fatalf("expected stale code to be rejected")
	}
	if ValidateTOTP(enrollment.Secret, "12345", now) {
		t.Fatalf("expected short code to be rejected")
	}
}
