package dto

import (
	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	evidencesvc "github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
)

type CaseListResponse struct {
	Cases      []model.Case             `json:"cases"`
	Total      int                      `json:"total"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
	Counties   []model.County           `json:"counties,omitempty"`
	CaseTypes  []model.CaseType         `json:"case_types,omitempty"`
	Counts     map[enums.CaseStatus]int `json:"counts,omitempty"`
	Advisories []casesvc.Advisory       `json:"advisories"`
}

type CaseDetailResponse struct {
	Case       model.Case                 `json:"case"`
	Reporter   casesvc.Reporter           `json:"reporter"`
	Evidence   []evidencesvc.File         `json:"evidence"`
	History    []model.VerificationRecord `json:"verification_history,omitempty"`
	Advisories []casesvc.Advisory         `json:"advisories"`
}

type EvidenceSummary struct {
	Attached []model.EvidenceFile  `json:"attached"`
	Failed   []evidencesvc.Failure `json:"failed"`
}

type SubmitCaseResponse struct {
	CaseID          uuid.UUID        `json:"case_id"`
	Status          enums.CaseStatus `json:"status"`
	Evidence        EvidenceSummary  `json:"evidence"`
	Message         string           `json:"message"`
	RedirectTo      string           `json:"redirect_to"`
	RedirectAfterMS int              `json:"redirect_after_ms"`
}

type SubmitFormResponse struct {
	Counties     []model.County     `json:"counties"`
	CaseTypes    []model.CaseType   `json:"case_types"`
	MaxFiles     int                `json:"max_files"`
	MaxFileBytes int64              `json:"max_file_bytes"`
	Advisories   []casesvc.Advisory `json:"advisories"`
}
