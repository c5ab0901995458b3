package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Opaque token sizes in random bytes. Refresh and reset tokens travel in
// cookies and links, so they are URL-safe base64 without padding.
const (
	refreshTokenBytes = 32
	resetTokenBytes   = 32
	sessionIDBytes    = 16
)

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func NewRefreshToken() (string, error) {
	return randomToken(refreshTokenBytes)
}

func NewResetToken() (string, error) {
	return randomToken(resetTokenBytes)
}

func NewSessionID() (string, error) {
	return randomToken(sessionIDBytes)
}
