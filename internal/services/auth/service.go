package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	"github.com/Emmanuelamanga/cos-platform/internal/security"
)

const (
	MinRefreshTTL = 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	defaultResetTokenTTL = 30 * time.Minute
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) error
}

type AccountStore interface {
	CreateAccount(ctx context.Context, in pgrepo.NewAccount) (model.Account, error)
	GetCredentialsByEmail(ctx context.Context, email string) (model.Account, model.AccountCredentials, error)
	GetCredentials(ctx context.Context, id uuid.UUID) (model.Account, model.AccountCredentials, error)
	GetRole(ctx context.Context, id uuid.UUID) (enums.Role, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	SetTOTPSecret(ctx context.Context, id uuid.UUID, sealedSecret string, enabled bool) error
}

type ResetTokenStore interface {
	Save(ctx context.Context, token string, accountID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

type SignInLimiter interface {
	Allow(ctx context.Context, key string) (int64, bool, error)
	Reset(ctx context.Context, key string) error
}

type Dependencies struct {
	JWT      *JWTManager
	Sessions SessionStore
	Accounts AccountStore
	Resets   ResetTokenStore
	Limiter  SignInLimiter
	Cipher   *security.SecretCipher
	Logger   *zap.Logger
}

type Config struct {
	RefreshTTL    time.Duration
	ResetTokenTTL time.Duration
	TOTPIssuer    string
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	accounts   AccountStore
	resets     ResetTokenStore
	limiter    SignInLimiter
	cipher     *security.SecretCipher
	log        *zap.Logger
	refreshTTL time.Duration
	resetTTL   time.Duration
	issuer     string
	now        func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	refreshTTL := cfg.RefreshTTL
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetTokenTTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	issuer := strings.TrimSpace(cfg.TOTPIssuer)
	if issuer == "" {
		issuer = "Citizen Observatory"
	}

	return &Service{
		jwt:        deps.JWT,
		sessions:   deps.Sessions,
		accounts:   deps.Accounts,
		resets:     deps.Resets,
		limiter:    deps.Limiter,
		cipher:     deps.Cipher,
		log:        log,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		issuer:     issuer,
		now:        time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (model.Account, error) {
	if s.accounts == nil {
		return model.Account{}, fmt.Errorf("account store is not configured")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case !validate.Email(email):
		return model.Account{}, validate.Field("email", "Please enter a valid email address")
	case !validate.Required(in.FullName):
		return model.Account{}, validate.Field("full_name", "Please enter your full name")
	case !validate.MaxRunes(strings.TrimSpace(in.FullName), 120):
		return model.Account{}, validate.Field("full_name", "Full name must be 120 characters or less")
	case len([]rune(in.Password)) < security.MinPasswordLength:
		return model.Account{}, validate.Field("password", fmt.Sprintf("Password must be at least %d characters", security.MinPasswordLength))
	case in.Password != in.ConfirmPassword:
		return model.Account{}, validate.Field("confirm_password", "Passwords do not match")
	case !in.TermsAccepted:
		return model.Account{}, validate.Field("terms_accepted", "You must accept the terms to create an account")
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.CreateAccount(ctx, pgrepo.NewAccount{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		County:       strings.TrimSpace(in.County),
		Role:         enums.RoleCitizen,
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return model.Account{}, pgrepo.ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("account_created", zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *Service) SignIn(ctx context.Context, in SignInInput) (AuthResult, error) {
	if s.accounts == nil {
		return AuthResult{}, fmt.Errorf("account store is not configured")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return AuthResult{}, ErrInvalidInput
	}

	limitKey := signInLimitKey(email, in.ClientIP)
	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, limitKey)
		if err != nil {
			s.log.Warn("sign in limiter unavailable", zap.Error(err))
		} else if !allowed {
			return AuthResult{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	account, creds, err := s.accounts.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("load credentials: %w", err)
	}
	if err := security.CheckPassword(creds.PasswordHash, in.Password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	if creds.TOTPEnabled {
		if strings.TrimSpace(in.TOTPCode) == "" {
			return AuthResult{}, ErrTOTPRequired
		}
		secret, err := s.openTOTPSecret(creds.TOTPSecret)
		if err != nil {
			return AuthResult{}, err
		}
		if !security.ValidateTOTP(secret, in.TOTPCode, s.now()) {
			return AuthResult{}, ErrTOTPInvalid
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, limitKey); err != nil {
			s.log.Warn("reset sign in limiter", zap.Error(err))
		}
	}

	return s.issueForAccount(ctx, account)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.AccountID, session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:    accessToken,
		RefreshToken:   newRefreshToken,
		AccessExpires:  accessExpires,
		RefreshExpires: newExpiresAt,
		Account:        model.Account{ID: session.AccountID, Role: session.Role},
	}, nil
}

func (s *Service) SignOut(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) SignOutAll(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

// ValidateAccessToken checks the signature and that the backing session is still alive.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.AccountID != claims.AccountID {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

// ResolveRole never fails; a lookup error yields an unknown resolution and is logged.
func (s *Service) ResolveRole(ctx context.Context, accountID uuid.UUID) RoleResolution {
	if s.accounts == nil {
		s.log.Warn("role lookup skipped, account store is not configured")
		return RoleResolution{}
	}
	role, err := s.accounts.GetRole(ctx, accountID)
	if err != nil {
		s.log.Warn("role lookup failed", zap.String("account_id", accountID.String()), zap.Error(err))
		return RoleResolution{}
	}
	return RoleResolution{Role: role, Known: true}
}

// RequestPasswordReset issues a single-use token. Unknown emails succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.accounts == nil || s.resets == nil {
		return fmt.Errorf("password reset dependencies are not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !validate.Email(email) {
		return validate.Field("email", "Please enter a valid email address")
	}

	account, _, err := s.accounts.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			s.log.Info("password_reset_unknown_email")
			return nil
		}
		return fmt.Errorf("load account for reset: %w", err)
	}

	token, err := NewResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.resets.Save(ctx, token, account.ID, s.resetTTL); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	s.log.Info("password_reset_issued", zap.String("account_id", account.ID.String()))
	s.log.Debug("password_reset_link", zap.String("path", "/reset-password/confirm?token="+token))
	return nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if s.accounts == nil || s.resets == nil {
		return fmt.Errorf("password reset dependencies are not configured")
	}
	if strings.TrimSpace(token) == "" {
		return ErrResetTokenInvalid
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return validate.Field("new_password", fmt.Sprintf("Password must be at least %d characters", security.MinPasswordLength))
		}
		return fmt.Errorf("hash password: %w", err)
	}

	accountID, err := s.resets.Consume(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.sessions.DeleteAllForAccount(ctx, accountID); err != nil {
		return fmt.Errorf("revoke sessions after reset: %w", err)
	}

	s.log.Info("password_reset_completed", zap.String("account_id", accountID.String()))
	return nil
}

// BeginTOTPSetup stores a fresh, not yet enabled secret and returns what the authenticator app needs.
func (s *Service) BeginTOTPSetup(ctx context.Context, identity Identity) (security.TOTPEnrollment, error) {
	if s.cipher == nil {
		return security.TOTPEnrollment{}, ErrTOTPNotConfigured
	}

	account, _, err := s.accounts.GetCredentials(ctx, identity.AccountID)
	if err != nil {
		return security.TOTPEnrollment{}, fmt.Errorf("load account: %w", err)
	}

	enrollment, err := security.NewTOTPEnrollment(s.issuer, account.Email)
	if err != nil {
		return security.TOTPEnrollment{}, err
	}
	sealed, err := s.cipher.Encrypt(enrollment.Secret)
	if err != nil {
		return security.TOTPEnrollment{}, fmt.Errorf("seal totp secret: %w", err)
	}
	if err := s.accounts.SetTOTPSecret(ctx, account.ID, sealed, false); err != nil {
		return security.TOTPEnrollment{}, fmt.Errorf("store totp secret: %w", err)
	}

	return enrollment, nil
}

func (s *Service) ConfirmTOTPSetup(ctx context.Context, identity Identity, code string) error {
	_, creds, err := s.accounts.GetCredentials(ctx, identity.AccountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if creds.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}

	secret, err := s.openTOTPSecret(creds.TOTPSecret)
	if err != nil {
		return err
	}
	if !security.ValidateTOTP(secret, code, s.now()) {
		return ErrTOTPInvalid
	}
	if err := s.accounts.SetTOTPSecret(ctx, identity.AccountID, creds.TOTPSecret, true); err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}

	s.log.Info("totp_enabled", zap.String("account_id", identity.AccountID.String()))
	return nil
}

func (s *Service) openTOTPSecret(sealed string) (string, error) {
	if s.cipher == nil {
		return "", ErrTOTPNotConfigured
	}
	secret, err := s.cipher.Decrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("open totp secret: %w", err)
	}
	return secret, nil
}

func (s *Service) issueForAccount(ctx context.Context, account model.Account) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionExpiresAt := s.now().Add(s.refreshTTL)
	session := SessionRecord{
		SID:       sessionID,
		AccountID: account.ID,
		Role:      account.Role,
		ExpiresAt: sessionExpiresAt,
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(account.ID, sessionID, account.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		AccessExpires:  accessExpires,
		RefreshExpires: sessionExpiresAt,
		Account:        account,
	}, nil
}

func signInLimitKey(email, ip string) string {
	return email + ":" + strings.TrimSpace(ip)
}
