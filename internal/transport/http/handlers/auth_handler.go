package handlers

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/dto"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	cookies SessionCookies
	log     *zap.Logger
}

func NewAuthHandler(service *authsvc.Service, cookies SessionCookies, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{service: service, cookies: cookies, log: log}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	account, err := h.service.SignUp(r.Context(), authsvc.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
		PhoneNumber:     req.PhoneNumber,
		County:          req.County,
		TermsAccepted:   req.TermsAccepted,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.AuthResponse{
		Account:    account,
		RedirectTo: "/sign-in",
	})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.SignIn(r.Context(), authsvc.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		TOTPCode: req.TOTPCode,
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.cookies.Set(w, res)
	redirect := res.Account.Role.LandingPath()
	if next, ok := safeNext(r.URL.Query().Get("next")); ok {
		redirect = next
	}
	httperrors.Write(w, http.StatusOK, dto.AuthResponse{
		Account:      res.Account,
		AccessToken:  res.AccessToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		RedirectTo:   redirect,
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.SignOut(r.Context(), identity.SID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.cookies.Clear(w)
	httperrors.Write(w, http.StatusOK, dto.MessageResponse{OK: true, RedirectTo: "/sign-in"})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	token := h.cookies.RefreshToken(r)
	if token == "" && r.ContentLength != 0 {
		var req dto.RefreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
		token = req.RefreshToken
	}

	res, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		h.cookies.Clear(w)
		writeServiceError(w, h.log, err)
		return
	}

	h.cookies.Set(w, res)
	httperrors.Write(w, http.StatusOK, dto.AuthResponse{
		Account:      res.Account,
		AccessToken:  res.AccessToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		RedirectTo:   res.Account.Role.LandingPath(),
	})
}

// ResetPassword answers the same way whether or not the email belongs to an account.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusAccepted, dto.MessageResponse{
		OK:      true,
		Message: "If an account exists for this email, a reset link has been sent.",
	})
}

func (h *AuthHandler) ResetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.ResetPasswordConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.cookies.Clear(w)
	httperrors.Write(w, http.StatusOK, dto.MessageResponse{OK: true, RedirectTo: "/sign-in"})
}

func (h *AuthHandler) TOTPSetup(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	enrollment, err := h.service.BeginTOTPSetup(r.Context(), identity)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.TOTPSetupResponse{
		Secret:    enrollment.Secret,
		OTPURL:    enrollment.OTPURL,
		QRDataURL: enrollment.QRDataURL,
	})
}

func (h *AuthHandler) TOTPConfirm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.TOTPConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.ConfirmTOTPSetup(r.Context(), identity, req.Code); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{OK: true, Message: "Two-factor authentication is enabled."})
}

// safeNext only accepts local absolute paths so sign-in cannot be turned into an open redirect.
func safeNext(raw string) (string, bool) {
	next := strings.TrimSpace(raw)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "", false
	}
	if next == "/sign-in" || next == "/sign-up" {
		return "", false
	}
	return next, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
