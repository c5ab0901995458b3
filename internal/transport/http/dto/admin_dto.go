package dto

import (
	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
)

type VerifyCaseRequest struct {
	Status        string `json:"status"`
	Notes         string `json:"notes"`
	ContactMethod string `json:"contact_method"`
}

type VerifyCaseResponse struct {
	Case   model.Case               `json:"case"`
	Record model.VerificationRecord `json:"verification"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type RecentVerificationResponse struct {
	Record           model.VerificationRecord `json:"verification"`
	CaseShortSummary string                   `json:"case_short_description"`
}

type AdminDashboardResponse struct {
	Counts              map[enums.CaseStatus]int     `json:"counts"`
	TotalCases          int                          `json:"total_cases"`
	TotalAccounts       int                          `json:"total_accounts"`
	RecentVerifications []RecentVerificationResponse `json:"recent_verifications"`
	OldestPending       []model.Case                 `json:"oldest_pending"`
	Advisories          []casesvc.Advisory           `json:"advisories"`
}

type CitizenDashboardResponse struct {
	Counts        map[enums.CaseStatus]int     `json:"counts"`
	RecentCases   []model.Case                 `json:"recent_cases"`
	Notifications []RecentVerificationResponse `json:"notifications"`
	Advisories    []casesvc.Advisory           `json:"advisories"`
}

func RecentVerifications(items []pgrepo.RecentVerification) []RecentVerificationResponse {
	out := make([]RecentVerificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, RecentVerificationResponse{
			Record:           item.Record,
			CaseShortSummary: item.CaseShortSummary,
		})
	}
	return out
}
