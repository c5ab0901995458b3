package verification

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
	"github.com/Emmanuelamanga/cos-platform/internal/domain/rules"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	"github.com/Emmanuelamanga/cos-platform/internal/services/notify"
)

var (
	ErrForbidden = errors.New("administrator role required")
	ErrNotFound  = errors.New("case not found")
)

const maxNotesRunes = 2000

type Store interface {
	ApplyDecision(ctx context.Context, in pgrepo.DecisionInput, guard pgrepo.TransitionGuard) (model.VerificationRecord, model.Case, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.VerificationRecord, error)
}

type DecisionInput struct {
	Status        string
	Notes         string
	ContactMethod string
}

type Decision struct {
	Record model.VerificationRecord
	Case   model.Case
}

type Service struct {
	store    Store
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, notifier notify.Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, log: log, now: time.Now}
}

// Decide records an administrator's decision and moves the case status in one transaction.
// Terminal cases and disallowed transitions are rejected with rules.ErrTerminalStatus or rules.ErrInvalidTransition.
func (s *Service) Decide(ctx context.Context, actor authsvc.Identity, caseID uuid.UUID, in DecisionInput) (Decision, error) {
	if !actor.IsAdministrator() || actor.AccountID == uuid.Nil {
		return Decision{}, ErrForbidden
	}
	if caseID == uuid.Nil {
		return Decision{}, ErrNotFound
	}

	status, err := enums.ParseCaseStatus(strings.TrimSpace(in.Status))
	if err != nil || status == enums.CaseStatusPending {
		return Decision{}, validate.Field("status", "Status must be verified, rejected or needs_more_info")
	}

	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return Decision{}, validate.Field("notes", "Please add verification notes")
	}
	if !validate.MaxRunes(notes, maxNotesRunes) {
		return Decision{}, validate.Field("notes", fmt.Sprintf("Notes must be %d characters or less", maxNotesRunes))
	}

	var contact *enums.ContactMethod
	if raw := strings.TrimSpace(in.ContactMethod); raw != "" {
		method, err := enums.ParseContactMethod(raw)
		if err != nil {
			return Decision{}, validate.Field("contact_method", "Contact method must be phone, email, both or none")
		}
		contact = &method
	}

	if s.store == nil {
		return Decision{}, fmt.Errorf("verification store is not configured")
	}

	record, updated, err := s.store.ApplyDecision(ctx, pgrepo.DecisionInput{
		CaseID:        caseID,
		AdminID:       actor.AccountID,
		Notes:         notes,
		ContactMethod: contact,
		Status:        status,
	}, func(current enums.CaseStatus) error {
		return rules.CheckTransition(current, status)
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrCaseNotFound):
			return Decision{}, ErrNotFound
		case errors.Is(err, rules.ErrTerminalStatus), errors.Is(err, rules.ErrInvalidTransition):
			s.log.Info("verification_rejected", zap.String("case_id", caseID.String()), zap.String("target", string(status)), zap.Error(err))
			return Decision{}, err
		default:
			return Decision{}, fmt.Errorf("apply verification decision: %w", err)
		}
	}

	s.log.Info("case_verified",
		zap.String("case_id", caseID.String()),
		zap.String("admin_id", actor.AccountID.String()),
		zap.String("status", string(status)),
	)
	s.notifier.CaseDecided(ctx, updated, record)

	return Decision{Record: record, Case: updated}, nil
}

func (s *Service) History(ctx context.Context, actor authsvc.Identity, caseID uuid.UUID) ([]model.VerificationRecord, error) {
	if !actor.IsAdministrator() {
		return nil, ErrForbidden
	}
	if s.store == nil {
		return nil, fmt.Errorf("verification store is not configured")
	}
	records, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("list verification history: %w", err)
	}
	return records, nil
}
