package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	dashboardsvc "github.com/Emmanuelamanga/cos-platform/internal/services/dashboard"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

const homeLatestCases = 3

type pageContent struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

var staticPages = map[string]pageContent{
	"about": {
		Title:   "About the Citizen Observatory",
		Summary: "Citizens report what they observe in their county. Administrators verify each report before it is published.",
	},
	"contact": {
		Title:   "Contact us",
		Summary: "Questions about a report or your account can be sent to the observatory team.",
	},
	"unauthorized": {
		Title:   "Access denied",
		Summary: "You do not have permission to view this page.",
	},
}

type homeStats struct {
	TotalCases      int `json:"total_cases"`
	VerifiedCases   int `json:"verified_cases"`
	TotalAccounts   int `json:"total_accounts"`
	CountiesCovered int `json:"counties_covered"`
}

type homeResponse struct {
	pageContent
	Stats       homeStats          `json:"stats"`
	LatestCases []model.Case       `json:"latest_cases"`
	Advisories  []casesvc.Advisory `json:"advisories"`
}

type PageHandler struct {
	cases *casesvc.Service
	stats *dashboardsvc.Service
	log   *zap.Logger
}

func NewPageHandler(cases *casesvc.Service, stats *dashboardsvc.Service, log *zap.Logger) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{cases: cases, stats: stats, log: log}
}

// Home shows the landing counters and the most recently observed verified
// cases. Both are read concurrently and degrade independently.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	resp := homeResponse{
		pageContent: pageContent{
			Title:   "Citizen Observatory",
			Summary: "Report, verify and browse observations from across the counties.",
		},
		LatestCases: []model.Case{},
		Advisories:  []casesvc.Advisory{},
	}

	var (
		latest  casesvc.ListPage
		landing dashboardsvc.LandingStats
	)
	eg, ctx := errgroup.WithContext(r.Context())
	if h.cases != nil {
		eg.Go(func() error {
			page, err := h.cases.ListPublic(ctx, casesvc.PublicQuery{Limit: homeLatestCases})
			latest = page
			return err
		})
	}
	if h.stats != nil {
		eg.Go(func() error {
			landing = h.stats.Landing(ctx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	if latest.Cases != nil {
		resp.LatestCases = latest.Cases
	}
	resp.Advisories = append(resp.Advisories, latest.Advisories...)
	if h.stats == nil {
		resp.Advisories = append(resp.Advisories, casesvc.Advisory{Source: "stats", Message: "Platform statistics are temporarily unavailable"})
	} else {
		resp.Stats = homeStats{
			TotalCases:      landing.TotalCases,
			VerifiedCases:   landing.VerifiedCases,
			TotalAccounts:   landing.TotalAccounts,
			CountiesCovered: landing.CountiesCovered,
		}
		resp.Advisories = append(resp.Advisories, landing.Advisories...)
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *PageHandler) Static(name string) http.HandlerFunc {
	content, ok := staticPages[name]
	return func(w http.ResponseWriter, _ *http.Request) {
		if !ok {
			writeNotFound(w, "PAGE_NOT_FOUND", "page not found")
			return
		}
		status := http.StatusOK
		if name == "unauthorized" {
			status = http.StatusForbidden
		}
		httperrors.Write(w, status, content)
	}
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
