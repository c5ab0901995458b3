package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	"github.com/Emmanuelamanga/cos-platform/internal/services/cases"
)

var errNotConfigured = errors.New("store is not configured")

const (
	recentCasesLimit   = 5
	notificationsLimit = 10
	oldestPendingLimit = 5
)

type CaseStore interface {
	List(ctx context.Context, f pgrepo.CaseFilter) ([]model.Case, error)
	CountByStatus(ctx context.Context, reporterID *uuid.UUID) (map[enums.CaseStatus]int, error)
	CountCounties(ctx context.Context) (int, error)
}

type VerificationStore interface {
	ListRecent(ctx context.Context, reporterID *uuid.UUID, limit int) ([]pgrepo.RecentVerification, error)
}

type AccountCounter interface {
	CountAll(ctx context.Context) (int, error)
}

type CitizenView struct {
	Counts        map[enums.CaseStatus]int
	RecentCases   []model.Case
	Notifications []pgrepo.RecentVerification
	Advisories    []cases.Advisory
}

type AdminView struct {
	Counts              map[enums.CaseStatus]int
	TotalCases          int
	TotalAccounts       int
	RecentVerifications []pgrepo.RecentVerification
	OldestPending       []model.Case
	Advisories          []cases.Advisory
}

// LandingStats backs the public home page counters.
type LandingStats struct {
	TotalCases      int
	VerifiedCases   int
	TotalAccounts   int
	CountiesCovered int
	Advisories      []cases.Advisory
}

type Service struct {
	cases    CaseStore
	verifies VerificationStore
	accounts AccountCounter
	log      *zap.Logger
}

func NewService(caseStore CaseStore, verifies VerificationStore, accounts AccountCounter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cases: caseStore, verifies: verifies, accounts: accounts, log: log}
}

// Citizen loads the signed-in account's own activity. Each failed read leaves a zero value and an advisory.
func (s *Service) Citizen(ctx context.Context, actor authsvc.Identity) (CitizenView, error) {
	if actor.AccountID == uuid.Nil {
		return CitizenView{}, authsvc.ErrUnauthorized
	}

	reporter := actor.AccountID
	view := CitizenView{
		Counts:        zeroCounts(),
		RecentCases:   []model.Case{},
		Notifications: []pgrepo.RecentVerification{},
		Advisories:    []cases.Advisory{},
	}
	var mu sync.Mutex
	advise := s.adviser(&mu, &view.Advisories)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if s.cases == nil {
			advise("counts", "Case totals are temporarily unavailable", errNotConfigured)
			return nil
		}
		counts, err := s.cases.CountByStatus(egCtx, &reporter)
		if err != nil {
			advise("counts", "Case totals are temporarily unavailable", err)
			return nil
		}
		view.Counts = counts
		return nil
	})
	eg.Go(func() error {
		if s.cases == nil {
			advise("recent_cases", "Your recent cases are temporarily unavailable", errNotConfigured)
			return nil
		}
		recent, err := s.cases.List(egCtx, pgrepo.CaseFilter{ReporterID: &reporter, Limit: recentCasesLimit})
		if err != nil {
			advise("recent_cases", "Your recent cases are temporarily unavailable", err)
			return nil
		}
		view.RecentCases = recent
		return nil
	})
	eg.Go(func() error {
		if s.verifies == nil {
			advise("notifications", "Notifications are temporarily unavailable", errNotConfigured)
			return nil
		}
		items, err := s.verifies.ListRecent(egCtx, &reporter, notificationsLimit)
		if err != nil {
			advise("notifications", "Notifications are temporarily unavailable", err)
			return nil
		}
		view.Notifications = items
		return nil
	})
	_ = eg.Wait()

	return view, nil
}

func (s *Service) Admin(ctx context.Context, actor authsvc.Identity) (AdminView, error) {
	if !actor.IsAdministrator() {
		return AdminView{}, cases.ErrForbidden
	}

	view := AdminView{
		Counts:              zeroCounts(),
		RecentVerifications: []pgrepo.RecentVerification{},
		OldestPending:       []model.Case{},
		Advisories:          []cases.Advisory{},
	}
	var mu sync.Mutex
	advise := s.adviser(&mu, &view.Advisories)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if s.cases == nil {
			advise("counts", "Case totals are temporarily unavailable", errNotConfigured)
			return nil
		}
		counts, err := s.cases.CountByStatus(egCtx, nil)
		if err != nil {
			advise("counts", "Case totals are temporarily unavailable", err)
			return nil
		}
		view.Counts = counts
		return nil
	})
	eg.Go(func() error {
		if s.accounts == nil {
			advise("accounts", "Account totals are temporarily unavailable", errNotConfigured)
			return nil
		}
		n, err := s.accounts.CountAll(egCtx)
		if err != nil {
			advise("accounts", "Account totals are temporarily unavailable", err)
			return nil
		}
		view.TotalAccounts = n
		return nil
	})
	eg.Go(func() error {
		if s.verifies == nil {
			advise("recent_verifications", "Recent verifications are temporarily unavailable", errNotConfigured)
			return nil
		}
		items, err := s.verifies.ListRecent(egCtx, nil, notificationsLimit)
		if err != nil {
			advise("recent_verifications", "Recent verifications are temporarily unavailable", err)
			return nil
		}
		view.RecentVerifications = items
		return nil
	})
	eg.Go(func() error {
		if s.cases == nil {
			advise("oldest_pending", "Pending queue is temporarily unavailable", errNotConfigured)
			return nil
		}
		pending, err := s.cases.List(egCtx, pgrepo.CaseFilter{
			Statuses:    []enums.CaseStatus{enums.CaseStatusPending},
			OldestFirst: true,
			Limit:       oldestPendingLimit,
		})
		if err != nil {
			advise("oldest_pending", "Pending queue is temporarily unavailable", err)
			return nil
		}
		view.OldestPending = pending
		return nil
	})
	_ = eg.Wait()

	for _, n := range view.Counts {
		view.TotalCases += n
	}
	return view, nil
}

// Landing is public. Failed counters stay at zero with an advisory.
func (s *Service) Landing(ctx context.Context) LandingStats {
	stats := LandingStats{Advisories: []cases.Advisory{}}
	var mu sync.Mutex
	advise := s.adviser(&mu, &stats.Advisories)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if s.cases == nil {
			advise("case_totals", "Case totals are temporarily unavailable", errNotConfigured)
			return nil
		}
		counts, err := s.cases.CountByStatus(egCtx, nil)
		if err != nil {
			advise("case_totals", "Case totals are temporarily unavailable", err)
			return nil
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		stats.TotalCases = total
		stats.VerifiedCases = counts[enums.CaseStatusVerified]
		return nil
	})
	eg.Go(func() error {
		if s.accounts == nil {
			advise("accounts", "Account totals are temporarily unavailable", errNotConfigured)
			return nil
		}
		n, err := s.accounts.CountAll(egCtx)
		if err != nil {
			advise("accounts", "Account totals are temporarily unavailable", err)
			return nil
		}
		stats.TotalAccounts = n
		return nil
	})
	eg.Go(func() error {
		if s.cases == nil {
			advise("counties", "County coverage is temporarily unavailable", errNotConfigured)
			return nil
		}
		n, err := s.cases.CountCounties(egCtx)
		if err != nil {
			advise("counties", "County coverage is temporarily unavailable", err)
			return nil
		}
		stats.CountiesCovered = n
		return nil
	})
	_ = eg.Wait()

	return stats
}

func (s *Service) adviser(mu *sync.Mutex, dst *[]cases.Advisory) func(source, message string, err error) {
	return func(source, message string, err error) {
		s.log.Warn("dashboard data unavailable", zap.String("source", source), zap.Error(err))
		mu.Lock()
		*dst = append(*dst, cases.Advisory{Source: source, Message: message})
		mu.Unlock()
	}
}

func zeroCounts() map[enums.CaseStatus]int {
	out := make(map[enums.CaseStatus]int, 4)
	for _, st := range enums.CaseStatuses() {
		out[st] = 0
	}
	return out
}
