package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrForbidden    = errors.New("administrator role required")
	ErrSelfDemotion = errors.New("administrators cannot change their own role")
)

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in pgrepo.ProfileUpdate) (model.Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) (model.Account, error)
}

type ProfileInput struct {
	FullName    string
	PhoneNumber string
	County      string
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

func (s *Service) GetProfile(ctx context.Context, actor authsvc.Identity) (model.Account, error) {
	if actor.AccountID == uuid.Nil {
		return model.Account{}, authsvc.ErrUnauthorized
	}
	if s.store == nil {
		return model.Account{}, fmt.Errorf("account store is not configured")
	}

	account, err := s.store.GetByID(ctx, actor.AccountID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("get profile: %w", err)
	}
	return account, nil
}

func (s *Service) UpdateProfile(ctx context.Context, actor authsvc.Identity, in ProfileInput) (model.Account, error) {
	if actor.AccountID == uuid.Nil {
		return model.Account{}, authsvc.ErrUnauthorized
	}

	name := strings.TrimSpace(in.FullName)
	phone := strings.TrimSpace(in.PhoneNumber)
	switch {
	case !validate.Required(name):
		return model.Account{}, validate.Field("full_name", "Please enter your full name")
	case !validate.MaxRunes(name, 120):
		return model.Account{}, validate.Field("full_name", "Full name must be 120 characters or less")
	case !validPhone(phone):
		return model.Account{}, validate.Field("phone_number", "Please enter a valid phone number")
	}
	if s.store == nil {
		return model.Account{}, fmt.Errorf("account store is not configured")
	}

	account, err := s.store.UpdateProfile(ctx, actor.AccountID, pgrepo.ProfileUpdate{
		FullName:    name,
		PhoneNumber: phone,
		County:      strings.TrimSpace(in.County),
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("update profile: %w", err)
	}
	return account, nil
}

// ChangeRole lets an administrator change another account's role. New roles apply on the next request.
func (s *Service) ChangeRole(ctx context.Context, actor authsvc.Identity, target uuid.UUID, rawRole string) (model.Account, error) {
	if !actor.IsAdministrator() {
		return model.Account{}, ErrForbidden
	}
	role, err := enums.ParseRole(rawRole)
	if err != nil {
		return model.Account{}, validate.Field("role", "Role must be citizen, moderator or administrator")
	}
	if target == actor.AccountID && role != enums.RoleAdministrator {
		return model.Account{}, ErrSelfDemotion
	}
	if s.store == nil {
		return model.Account{}, fmt.Errorf("account store is not configured")
	}

	account, err := s.store.UpdateRole(ctx, target, role)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("change role: %w", err)
	}

	s.log.Info("account_role_changed",
		zap.String("account_id", target.String()),
		zap.String("role", string(role)),
		zap.String("changed_by", actor.AccountID.String()),
	)
	return account, nil
}

// validPhone accepts an empty value or 7 to 15 digits with an optional leading plus and common separators.
func validPhone(phone string) bool {
	if phone == "" {
		return true
	}
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
