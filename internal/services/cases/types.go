package cases

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	"github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
)

var (
	ErrNotFound  = errors.New("case not found")
	ErrForbidden = errors.New("forbidden")
)

const maxShortDescriptionRunes = 100

type CaseStore interface {
	Create(ctx context.Context, in model.Case) (model.Case, error)
	GetDetail(ctx context.Context, id uuid.UUID) (pgrepo.CaseDetail, error)
	List(ctx context.Context, f pgrepo.CaseFilter) ([]model.Case, error)
	Count(ctx context.Context, f pgrepo.CaseFilter) (int, error)
	CountByStatus(ctx context.Context, reporterID *uuid.UUID) (map[enums.CaseStatus]int, error)
}

type ReferenceStore interface {
	ListCounties(ctx context.Context) ([]model.County, error)
	ListCaseTypes(ctx context.Context) ([]model.CaseType, error)
}

type EvidenceService interface {
	Validate(uploads []evidence.Upload) error
	AttachAll(ctx context.Context, caseID uuid.UUID, uploads []evidence.Upload) (evidence.Result, error)
	ListForCase(ctx context.Context, caseID uuid.UUID) ([]evidence.File, error)
}

// Advisory is a user-visible notice that part of a page could not be loaded.
type Advisory struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

type SubmitInput struct {
	CaseType            string
	County              string
	ShortDescription    string
	DetailedDescription string
	ObservationDate     string
	LocationAddress     string
	LocationLat         string
	LocationLng         string
	AdditionalInfo      string
	ContactConsent      bool
	Files               []evidence.Upload
}

type SubmitResult struct {
	Case     model.Case
	Evidence evidence.Result
}

type PublicQuery struct {
	Query    string
	County   string
	CaseType string
	Date     string
	Sort     string
	Limit    int
	Offset   int
}

type AdminQuery struct {
	Status   string
	Query    string
	County   string
	CaseType string
	Limit    int
	Offset   int
}

type ListPage struct {
	Cases      []model.Case
	Total      int
	Limit      int
	Offset     int
	Counties   []model.County
	CaseTypes  []model.CaseType
	Counts     map[enums.CaseStatus]int
	Advisories []Advisory
}

type Reporter struct {
	Name   string `json:"name"`
	County string `json:"county"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type Detail struct {
	Case       model.Case
	Reporter   Reporter
	Evidence   []evidence.File
	Advisories []Advisory
}

type ReferenceData struct {
	Counties   []model.County
	CaseTypes  []model.CaseType
	Advisories []Advisory
}
