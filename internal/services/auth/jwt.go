package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

const (
	accessIssuer   = "cos-platform"
	accessAudience = "cos-web"
	clockLeeway    = 30 * time.Second
)

// JWTManager signs the short-lived access tokens carried in the access
// cookie. Sessions live in redis; the token only names one of them.
type JWTManager struct {
	key       []byte
	accessTTL time.Duration
	parser    *jwt.Parser
	now       func() time.Time
}

type accessTokenClaims struct {
	Session string `json:"sid"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	m := &JWTManager{
		key:       []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(accessIssuer),
		jwt.WithAudience(accessAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

func (m *JWTManager) GenerateAccessToken(accountID uuid.UUID, sid string, role enums.Role) (string, time.Time, error) {
	switch {
	case len(m.key) == 0:
		return "", time.Time{}, errors.New("jwt secret is empty")
	case accountID == uuid.Nil:
		return "", time.Time{}, errors.New("access token needs an account id")
	case strings.TrimSpace(sid) == "":
		return "", time.Time{}, errors.New("access token needs a session id")
	}

	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.accessTTL)
	claims := accessTokenClaims{
		Session: sid,
		Role:    string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    accessIssuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken reports every malformed, expired or foreign token as
// ErrUnauthorized so callers can fall back to the refresh cookie.
func (m *JWTManager) ParseAccessToken(raw string) (AccessClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AccessClaims{}, ErrUnauthorized
	}

	var claims accessTokenClaims
	if _, err := m.parser.ParseWithClaims(raw, &claims, m.keyFunc); err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil || accountID == uuid.Nil || strings.TrimSpace(claims.Session) == "" {
		return AccessClaims{}, ErrUnauthorized
	}

	return AccessClaims{
		AccountID: accountID,
		SID:       claims.Session,
		Role:      enums.Role(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *JWTManager) keyFunc(*jwt.Token) (any, error) {
	if len(m.key) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	return m.key, nil
}
