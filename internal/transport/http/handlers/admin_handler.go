package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	accountsvc "github.com/Emmanuelamanga/cos-platform/internal/services/accounts"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	dashboardsvc "github.com/Emmanuelamanga/cos-platform/internal/services/dashboard"
	verificationsvc "github.com/Emmanuelamanga/cos-platform/internal/services/verification"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/dto"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

type AdminHandler struct {
	cases        *casesvc.Service
	verification *verificationsvc.Service
	accounts     *accountsvc.Service
	dashboard    *dashboardsvc.Service
	log          *zap.Logger
}

type AdminServices struct {
	Cases        *casesvc.Service
	Verification *verificationsvc.Service
	Accounts     *accountsvc.Service
	Dashboard    *dashboardsvc.Service
}

func NewAdminHandler(services AdminServices, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		cases:        services.Cases,
		verification: services.Verification,
		accounts:     services.Accounts,
		dashboard:    services.Dashboard,
		log:          log,
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.dashboard == nil {
		writeInternal(w, "DASHBOARD_SERVICE_UNAVAILABLE", "dashboard service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.dashboard.Admin(r.Context(), identity)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminDashboardResponse{
		Counts:              view.Counts,
		TotalCases:          view.TotalCases,
		TotalAccounts:       view.TotalAccounts,
		RecentVerifications: dto.RecentVerifications(view.RecentVerifications),
		OldestPending:       view.OldestPending,
		Advisories:          view.Advisories,
	})
}

func (h *AdminHandler) Cases(w http.ResponseWriter, r *http.Request) {
	if h.cases == nil {
		writeInternal(w, "CASE_SERVICE_UNAVAILABLE", "case service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := h.cases.AdminList(r.Context(), identity, casesvc.AdminQuery{
		Status:   q.Get("status"),
		Query:    q.Get("q"),
		County:   q.Get("county"),
		CaseType: q.Get("type"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toCaseListResponse(page))
}

// Case loads the detail and the verification history side by side. A failed history read becomes an advisory.
func (h *AdminHandler) Case(w http.ResponseWriter, r *http.Request) {
	if h.cases == nil || h.verification == nil {
		writeInternal(w, "CASE_SERVICE_UNAVAILABLE", "case service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !identity.IsAdministrator() {
		writeServiceError(w, h.log, casesvc.ErrForbidden)
		return
	}
	id, ok := uuidParam(r, "id")
	if !ok {
		writeNotFound(w, "CASE_NOT_FOUND", "case not found")
		return
	}

	var (
		detail    casesvc.Detail
		detailErr error
		history   = []model.VerificationRecord{}
		historyOK = true
	)
	eg, egCtx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		detail, detailErr = h.cases.GetDetail(egCtx, identity, id)
		return nil
	})
	eg.Go(func() error {
		records, err := h.verification.History(egCtx, identity, id)
		if err != nil {
			h.log.Warn("load verification history", zap.String("case_id", id.String()), zap.Error(err))
			historyOK = false
			return nil
		}
		history = records
		return nil
	})
	_ = eg.Wait()

	if detailErr != nil {
		writeServiceError(w, h.log, detailErr)
		return
	}

	advisories := detail.Advisories
	if !historyOK {
		advisories = append(advisories, casesvc.Advisory{Source: "verification_history", Message: "Verification history is temporarily unavailable"})
	}
	httperrors.Write(w, http.StatusOK, dto.CaseDetailResponse{
		Case:       detail.Case,
		Reporter:   detail.Reporter,
		Evidence:   detail.Evidence,
		History:    history,
		Advisories: advisories,
	})
}

func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.verification == nil {
		writeInternal(w, "VERIFICATION_SERVICE_UNAVAILABLE", "verification service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(r, "id")
	if !ok {
		writeNotFound(w, "CASE_NOT_FOUND", "case not found")
		return
	}

	var req dto.VerifyCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	decision, err := h.verification.Decide(r.Context(), identity, id, verificationsvc.DecisionInput{
		Status:        req.Status,
		Notes:         req.Notes,
		ContactMethod: req.ContactMethod,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.VerifyCaseResponse{
		Case:   decision.Case,
		Record: decision.Record,
	})
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		writeInternal(w, "ACCOUNT_SERVICE_UNAVAILABLE", "account service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(r, "id")
	if !ok {
		writeNotFound(w, "ACCOUNT_NOT_FOUND", "account not found")
		return
	}

	var req dto.ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	account, err := h.accounts.ChangeRole(r.Context(), identity, id, req.Role)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, account)
}
