package handlers

import (
	"net/http"

	"go.uber.org/zap"

	dashboardsvc "github.com/Emmanuelamanga/cos-platform/internal/services/dashboard"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/dto"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

type DashboardHandler struct {
	service *dashboardsvc.Service
	log     *zap.Logger
}

func NewDashboardHandler(service *dashboardsvc.Service, log *zap.Logger) *DashboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardHandler{service: service, log: log}
}

func (h *DashboardHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DASHBOARD_SERVICE_UNAVAILABLE", "dashboard service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.service.Citizen(r.Context(), identity)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CitizenDashboardResponse{
		Counts:        view.Counts,
		RecentCases:   view.RecentCases,
		Notifications: dto.RecentVerifications(view.Notifications),
		Advisories:    view.Advisories,
	})
}
