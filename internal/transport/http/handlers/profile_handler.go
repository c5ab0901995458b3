package handlers

import (
	"net/http"

	"go.uber.org/zap"

	accountsvc "github.com/Emmanuelamanga/cos-platform/internal/services/accounts"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/dto"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

type ProfileHandler struct {
	accounts *accountsvc.Service
	cases    *casesvc.Service
	log      *zap.Logger
}

func NewProfileHandler(accounts *accountsvc.Service, cases *casesvc.Service, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{accounts: accounts, cases: cases, log: log}
}

// Get returns the account together with every case it reported.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		writeInternal(w, "ACCOUNT_SERVICE_UNAVAILABLE", "account service is unavailable")
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

	account, err := h.accounts.GetProfile(r.Context(), identity)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	resp := dto.ProfileResponse{Account: account}
	if h.cases != nil {
		page, err := h.cases.ListMine(r.Context(), identity, limit, offset)
		if err != nil {
			writeServiceError(w, h.log, err)
			return
		}
		mine := toCaseListResponse(page)
		resp.Cases = &mine
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		writeInternal(w, "ACCOUNT_SERVICE_UNAVAILABLE", "account service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), identity, accountsvc.ProfileInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		County:      req.County,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileResponse{Account: account})
}
