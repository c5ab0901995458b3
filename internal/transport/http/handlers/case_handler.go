package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	evidencesvc "github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/dto"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

const (
	multipartMemory     = 8 << 20
	multipartFormSlack  = 1 << 20
	submitRedirectPath  = "/profile"
	submitRedirectDelay = 2000
)

type CaseHandler struct {
	service *casesvc.Service
	limits  evidencesvc.Limits
	log     *zap.Logger
}

func NewCaseHandler(service *casesvc.Service, limits evidencesvc.Limits, log *zap.Logger) *CaseHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CaseHandler{service: service, limits: limits, log: log}
}

// List serves the public listing: verified cases only, filtered by q, county, type and date.
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CASE_SERVICE_UNAVAILABLE", "case service is unavailable")
		return
	}
	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := h.service.ListPublic(r.Context(), casesvc.PublicQuery{
		Query:    q.Get("q"),
		County:   q.Get("county"),
		CaseType: q.Get("type"),
		Date:     q.Get("date"),
		Sort:     q.Get("sort"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toCaseListResponse(page))
}

func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CASE_SERVICE_UNAVAILABLE", "case service is unavailable")
		return
	}
	id, ok := uuidParam(r, "id")
	if !ok {
		writeNotFound(w, "CASE_NOT_FOUND", "case not found")
		return
	}

	viewer, _ := authsvc.IdentityFromContext(r.Context())
	detail, err := h.service.GetDetail(r.Context(), viewer, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CaseDetailResponse{
		Case:       detail.Case,
		Reporter:   detail.Reporter,
		Evidence:   detail.Evidence,
		Advisories: detail.Advisories,
	})
}

// SubmitForm returns what the submission form needs to render its selects.
func (h *CaseHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CASE_SERVICE_UNAVAILABLE", "case service is unavailable")
		return
	}
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	ref := h.service.ReferenceData(r.Context())
	httperrors.Write(w, http.StatusOK, dto.SubmitFormResponse{
		Counties:     ref.Counties,
		CaseTypes:    ref.CaseTypes,
		MaxFiles:     h.limits.MaxFiles,
		MaxFileBytes: h.limits.MaxFileBytes,
		Advisories:   ref.Advisories,
	})
}

func (h *CaseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CASE_SERVICE_UNAVAILABLE", "case service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	form := r.MultipartForm.Value
	res, err := h.service.Submit(r.Context(), identity, casesvc.SubmitInput{
		CaseType:            formValue(form, "case_type"),
		County:              formValue(form, "county"),
		ShortDescription:    formValue(form, "short_description"),
		DetailedDescription: formValue(form, "detailed_description"),
		ObservationDate:     formValue(form, "observation_date"),
		LocationAddress:     formValue(form, "location_address"),
		LocationLat:         formValue(form, "location_lat"),
		LocationLng:         formValue(form, "location_lng"),
		AdditionalInfo:      formValue(form, "additional_info"),
		ContactConsent:      formBool(formValue(form, "contact_consent")),
		Files:               uploadsFromForm(r.MultipartForm),
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	message := "Case submitted successfully."
	if len(res.Evidence.Failed) > 0 {
		message = "Case submitted, but some evidence files could not be uploaded."
	}
	httperrors.Write(w, http.StatusCreated, dto.SubmitCaseResponse{
		CaseID: res.Case.ID,
		Status: res.Case.Status,
		Evidence: dto.EvidenceSummary{
			Attached: res.Evidence.Attached,
			Failed:   res.Evidence.Failed,
		},
		Message:         message,
		RedirectTo:      submitRedirectPath,
		RedirectAfterMS: submitRedirectDelay,
	})
}

func (h *CaseHandler) maxRequestBytes() int64 {
	files := int64(h.limits.MaxFiles)
	if files <= 0 {
		files = 1
	}
	return files*h.limits.MaxFileBytes + multipartFormSlack
}

func uploadsFromForm(form *multipart.Form) []evidencesvc.Upload {
	if form == nil {
		return nil
	}
	headers := form.File["files"]
	out := make([]evidencesvc.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		out = append(out, evidencesvc.Upload{
			FileName:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				f, err := fh.Open()
				if err != nil {
					return nil, err
				}
				return f, nil
			},
		})
	}
	return out
}

func toCaseListResponse(page casesvc.ListPage) dto.CaseListResponse {
	return dto.CaseListResponse{
		Cases:      page.Cases,
		Total:      page.Total,
		Limit:      page.Limit,
		Offset:     page.Offset,
		Counties:   page.Counties,
		CaseTypes:  page.CaseTypes,
		Counts:     page.Counts,
		Advisories: page.Advisories,
	}
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func formBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(raw))
	return b
}
