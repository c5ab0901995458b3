package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	accountsvc "github.com/Emmanuelamanga/cos-platform/internal/services/accounts"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	dashboardsvc "github.com/Emmanuelamanga/cos-platform/internal/services/dashboard"
	evidencesvc "github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
	verificationsvc "github.com/Emmanuelamanga/cos-platform/internal/services/verification"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	CaseService         *casesvc.Service
	VerificationService *verificationsvc.Service
	AccountService      *accountsvc.Service
	DashboardService    *dashboardsvc.Service
	EvidenceLimits      evidencesvc.Limits
	Cookies             handlers.SessionCookies
	GatePolicy          string
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	var sessions SessionResolver
	if deps.AuthService != nil {
		sessions = deps.AuthService
	}
	gate := NewGate(sessions, deps.Cookies, deps.GatePolicy, deps.Logger)

	healthHandler := handlers.NewHealthHandler()
	pageHandler := handlers.NewPageHandler(deps.CaseService, deps.DashboardService, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Cookies, deps.Logger)
	caseHandler := handlers.NewCaseHandler(deps.CaseService, deps.EvidenceLimits, deps.Logger)
	profileHandler := handlers.NewProfileHandler(deps.AccountService, deps.CaseService, deps.Logger)
	dashboardHandler := handlers.NewDashboardHandler(deps.DashboardService, deps.Logger)
	adminHandler := handlers.NewAdminHandler(handlers.AdminServices{
		Cases:        deps.CaseService,
		Verification: deps.VerificationService,
		Accounts:     deps.AccountService,
		Dashboard:    deps.DashboardService,
	}, deps.Logger)
	adminRoleMW := RequireRole(enums.RoleAdministrator)

	r.Get("/healthz", healthHandler.Get)

	r.Group(func(r chi.Router) {
		r.Use(gate.Middleware)

		r.Get("/", pageHandler.Home)
		r.Get("/about", pageHandler.Static("about"))
		r.Get("/contact", pageHandler.Static("contact"))
		r.Get("/unauthorized", pageHandler.Static("unauthorized"))

		r.Post("/sign-up", authHandler.SignUp)
		r.Post("/sign-in", authHandler.SignIn)
		r.Post("/sign-out", authHandler.SignOut)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Post("/reset-password/confirm", authHandler.ResetPasswordConfirm)

		r.Get("/cases", caseHandler.List)
		r.Get("/cases/{id}", caseHandler.Get)

		r.Get("/submit-case", caseHandler.SubmitForm)
		r.Post("/submit-case", caseHandler.Submit)
		r.Get("/dashboard", dashboardHandler.Handle)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Put("/", profileHandler.Update)
			r.Post("/2fa/setup", authHandler.TOTPSetup)
			r.Post("/2fa/confirm", authHandler.TOTPConfirm)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminRoleMW)
			r.Get("/", adminHandler.Dashboard)
			r.Get("/cases", adminHandler.Cases)
			r.Get("/cases/{id}", adminHandler.Case)
			r.Post("/cases/{id}/verify", adminHandler.Verify)
			r.Put("/accounts/{id}/role", adminHandler.ChangeRole)
		})
	})
}
