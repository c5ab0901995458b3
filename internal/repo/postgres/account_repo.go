package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

type NewAccount struct {
	Email        string
	PasswordHash string
	FullName     string
	PhoneNumber  string
	County       string
	Role         enums.Role
}

type ProfileUpdate struct {
	FullName    string
	PhoneNumber string
	County      string
}

const accountColumns = `id, email, full_name, phone_number, county, role, totp_enabled, created_at, updated_at`

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) CreateAccount(ctx context.Context, in NewAccount) (model.Account, error) {
	if r.pool == nil {
		return model.Account{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(in.Email) == "" || in.PasswordHash == "" {
		return model.Account{}, fmt.Errorf("invalid account payload")
	}
	if in.Role == "" {
		in.Role = enums.RoleCitizen
	}

	account, err := scanAccount(r.pool.QueryRow(ctx, `
INSERT INTO accounts (email, password_hash, full_name, phone_number, county, role, created_at, updated_at)
VALUES (LOWER($1), $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING `+accountColumns,
		strings.TrimSpace(in.Email), in.PasswordHash, in.FullName, in.PhoneNumber, in.County, string(in.Role),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	if r.pool == nil {
		return model.Account{}, fmt.Errorf("postgres pool is nil")
	}

	account, err := scanAccount(r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
FROM accounts
WHERE id = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	if r.pool == nil {
		return model.Account{}, fmt.Errorf("postgres pool is nil")
	}

	account, err := scanAccount(r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
FROM accounts
WHERE email = LOWER($1)
`, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) GetCredentialsByEmail(ctx context.Context, email string) (model.Account, model.AccountCredentials, error) {
	return r.getCredentials(ctx, `WHERE email = LOWER($1)`, strings.TrimSpace(email))
}

func (r *AccountRepo) GetCredentials(ctx context.Context, id uuid.UUID) (model.Account, model.AccountCredentials, error) {
	return r.getCredentials(ctx, `WHERE id = $1`, id)
}

func (r *AccountRepo) getCredentials(ctx context.Context, where string, arg any) (model.Account, model.AccountCredentials, error) {
	if r.pool == nil {
		return model.Account{}, model.AccountCredentials{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		account    model.Account
		creds      model.AccountCredentials
		role       string
		totpSecret *string
	)
	err := r.pool.QueryRow(ctx, `
SELECT id, email, full_name, phone_number, county, role, totp_enabled, created_at, updated_at, password_hash, totp_secret
FROM accounts
`+where, arg).Scan(
		&account.ID,
		&account.Email,
		&account.FullName,
		&account.PhoneNumber,
		&account.County,
		&role,
		&account.TOTPEnabled,
		&account.CreatedAt,
		&account.UpdatedAt,
		&creds.PasswordHash,
		&totpSecret,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.AccountCredentials{}, ErrAccountNotFound
		}
		return model.Account{}, model.AccountCredentials{}, fmt.Errorf("get account credentials: %w", err)
	}

	parsed, err := enums.ParseRole(role)
	if err != nil {
		return model.Account{}, model.AccountCredentials{}, fmt.Errorf("account %s: %w", account.ID, err)
	}
	account.Role = parsed
	creds.AccountID = account.ID
	creds.Role = parsed
	creds.TOTPEnabled = account.TOTPEnabled
	if totpSecret != nil {
		creds.TOTPSecret = *totpSecret
	}

	return account, creds, nil
}

// GetRole reads the role straight from storage so that role changes apply on the next request.
func (r *AccountRepo) GetRole(ctx context.Context, id uuid.UUID) (enums.Role, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var role string
	if err := r.pool.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1`, id).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("get account role: %w", err)
	}
	return enums.ParseRole(role)
}

func (r *AccountRepo) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (model.Account, error) {
	if r.pool == nil {
		return model.Account{}, fmt.Errorf("postgres pool is nil")
	}

	account, err := scanAccount(r.pool.QueryRow(ctx, `
UPDATE accounts
SET full_name = $2, phone_number = $3, county = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+accountColumns,
		id, in.FullName, in.PhoneNumber, in.County,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("update account profile: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) (model.Account, error) {
	if r.pool == nil {
		return model.Account{}, fmt.Errorf("postgres pool is nil")
	}

	account, err := scanAccount(r.pool.QueryRow(ctx, `
UPDATE accounts
SET role = $2, updated_at = NOW()
WHERE id = $1
RETURNING `+accountColumns,
		id, string(role),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("update account role: %w", err)
	}
	return account, nil
}

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET password_hash = $2, updated_at = NOW()
WHERE id = $1
`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) SetTOTPSecret(ctx context.Context, id uuid.UUID, sealedSecret string, enabled bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE accounts
SET totp_secret = NULLIF($2, ''), totp_enabled = $3, updated_at = NOW()
WHERE id = $1
`, id, sealedSecret, enabled)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) CountAll(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		account model.Account
		role    string
	)
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.FullName,
		&account.PhoneNumber,
		&account.County,
		&role,
		&account.TOTPEnabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return model.Account{}, err
	}

	parsed, err := enums.ParseRole(role)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %s: %w", account.ID, err)
	}
	account.Role = parsed
	return account, nil
}
