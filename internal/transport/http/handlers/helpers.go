package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/rules"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	accountsvc "github.com/Emmanuelamanga/cos-platform/internal/services/accounts"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	casesvc "github.com/Emmanuelamanga/cos-platform/internal/services/cases"
	evidencesvc "github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
	verificationsvc "github.com/Emmanuelamanga/cos-platform/internal/services/verification"
	httperrors "github.com/Emmanuelamanga/cos-platform/internal/transport/http/errors"
)

// writeServiceError maps service sentinels to API errors. Anything unmapped is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var fieldErr *validate.FieldError
	if errors.As(err, &fieldErr) {
		httperrors.WriteFieldError(w, fieldErr.Field, fieldErr.Message)
		return
	}

	var limited *authsvc.RateLimitedError
	if errors.As(err, &limited) {
		httperrors.WriteRateLimited(w, "TOO_MANY_ATTEMPTS", "too many sign in attempts, try again later", limited.RetryAfterSec)
		return
	}

	switch {
	case errors.Is(err, validate.ErrInvalid),
		errors.Is(err, authsvc.ErrInvalidInput),
		errors.Is(err, evidencesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, authsvc.ErrResetTokenInvalid):
		writeBadRequest(w, "RESET_TOKEN_INVALID", "this reset link is invalid or has expired")
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, authsvc.ErrTOTPRequired):
		writeUnauthorized(w, "TOTP_REQUIRED", "two-factor code required")
	case errors.Is(err, authsvc.ErrTOTPInvalid):
		writeUnauthorized(w, "TOTP_INVALID", "invalid two-factor code")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, casesvc.ErrForbidden),
		errors.Is(err, verificationsvc.ErrForbidden),
		errors.Is(err, accountsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "administrator role required")
	case errors.Is(err, accountsvc.ErrSelfDemotion):
		writeForbidden(w, "SELF_DEMOTION", "administrators cannot change their own role")
	case errors.Is(err, casesvc.ErrNotFound),
		errors.Is(err, verificationsvc.ErrNotFound):
		writeNotFound(w, "CASE_NOT_FOUND", "case not found")
	case errors.Is(err, accountsvc.ErrNotFound):
		writeNotFound(w, "ACCOUNT_NOT_FOUND", "account not found")
	case errors.Is(err, rules.ErrTerminalStatus):
		writeConflict(w, "CASE_FINALISED", "this case has already been finalised")
	case errors.Is(err, rules.ErrInvalidTransition):
		writeConflict(w, "INVALID_TRANSITION", "this status change is not allowed")
	case errors.Is(err, pgrepo.ErrEmailTaken):
		writeConflict(w, "EMAIL_TAKEN", "an account with this email already exists")
	case errors.Is(err, authsvc.ErrTOTPNotConfigured):
		writeConflict(w, "TOTP_NOT_CONFIGURED", "two-factor authentication is not set up")
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeInternal(w, "INTERNAL_ERROR", "something went wrong, please try again")
	}
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok || identity.AccountID == uuid.Nil {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func uuidParam(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns def for a missing value and false for a malformed one.
func queryInt(r *http.Request, key string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, ok = queryInt(r, "limit", 0)
	if !ok || limit < 0 {
		httperrors.WriteFieldError(w, "limit", "limit must be a positive number")
		return 0, 0, false
	}
	offset, ok = queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		httperrors.WriteFieldError(w, "offset", "offset must not be negative")
		return 0, 0, false
	}
	return limit, offset, true
}
