package apiapp

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Emmanuelamanga/cos-platform/internal/config"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/handlers"
)

const (
	signInPath       = "/sign-in"
	signUpPath       = "/sign-up"
	unauthorizedPath = "/unauthorized"
	adminPath        = "/admin"
)

var publicPaths = map[string]struct{}{
	"/":               {},
	"/about":          {},
	"/contact":        {},
	signInPath:        {},
	signUpPath:        {},
	"/reset-password": {},
	unauthorizedPath:  {},
	"/healthz":        {},
	"/auth/refresh":   {},
	"/cases":          {},
}

var publicPrefixes = []string{"/public/", "/cases/", "/reset-password/"}

type SessionResolver interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (authsvc.AccessClaims, error)
	Refresh(ctx context.Context, refreshToken string) (authsvc.AuthResult, error)
	ResolveRole(ctx context.Context, accountID uuid.UUID) authsvc.RoleResolution
}

// Gate runs in front of every route. It either forwards the request with the
// resolved identity in the context or answers with a 303 redirect.
type Gate struct {
	sessions SessionResolver
	cookies  handlers.SessionCookies
	policy   string
	log      *zap.Logger
}

func NewGate(sessions SessionResolver, cookies handlers.SessionCookies, policy string, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	if policy != config.GateFailOpen {
		policy = config.GateFailClosed
	}
	return &Gate{sessions: sessions, cookies: cookies, policy: policy, log: log}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, hasSession, err := g.resolveSession(w, r)
		if err != nil {
			g.log.Error("session resolution failed",
				zap.String("path", r.URL.Path),
				zap.String("policy", g.policy),
				zap.Error(err),
			)
			if g.policy == config.GateFailOpen {
				next.ServeHTTP(w, r)
				return
			}
			hasSession = false
		}

		in := gateInput{
			Path:       r.URL.Path,
			Target:     r.URL.RequestURI(),
			HasSession: hasSession,
			TokenRole:  claims.Role,
			Policy:     g.policy,
		}
		if hasSession {
			in.Resolution = g.sessions.ResolveRole(r.Context(), claims.AccountID)
		}

		d := decide(in)
		if d.Redirect != "" {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		if hasSession {
			r = r.WithContext(authsvc.WithIdentity(r.Context(), authsvc.Identity{
				AccountID: claims.AccountID,
				SID:       claims.SID,
				Role:      d.Role,
			}))
		}
		next.ServeHTTP(w, r)
	})
}

// resolveSession validates the access token and, when it is missing or stale,
// rotates the refresh token and writes fresh cookies. Only infrastructure
// failures are returned as errors.
func (g *Gate) resolveSession(w http.ResponseWriter, r *http.Request) (authsvc.AccessClaims, bool, error) {
	if g.sessions == nil {
		return authsvc.AccessClaims{}, false, errors.New("session resolver is not configured")
	}

	if token := g.cookies.AccessToken(r); token != "" {
		claims, err := g.sessions.ValidateAccessToken(r.Context(), token)
		switch {
		case err == nil:
			return claims, true, nil
		case !errors.Is(err, authsvc.ErrUnauthorized):
			return authsvc.AccessClaims{}, false, err
		}
	}

	refreshToken := g.cookies.RefreshToken(r)
	if refreshToken == "" {
		return authsvc.AccessClaims{}, false, nil
	}

	result, err := g.sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, authsvc.ErrUnauthorized) || errors.Is(err, authsvc.ErrInvalidInput) {
			g.cookies.Clear(w)
			return authsvc.AccessClaims{}, false, nil
		}
		return authsvc.AccessClaims{}, false, err
	}
	g.cookies.Set(w, result)

	claims, err := g.sessions.ValidateAccessToken(r.Context(), result.AccessToken)
	if err != nil {
		if errors.Is(err, authsvc.ErrUnauthorized) {
			return authsvc.AccessClaims{}, false, nil
		}
		return authsvc.AccessClaims{}, false, err
	}
	return claims, true, nil
}

type gateInput struct {
	Path       string
	Target     string
	HasSession bool
	TokenRole  enums.Role
	Resolution authsvc.RoleResolution
	Policy     string
}

// gateDecision carries a redirect location, or the role the request proceeds with.
type gateDecision struct {
	Redirect string
	Role     enums.Role
}

func decide(in gateInput) gateDecision {
	if !in.HasSession {
		if isPublicPath(in.Path) {
			return gateDecision{}
		}
		return gateDecision{Redirect: signInPath + "?next=" + url.QueryEscape(in.Target)}
	}

	role := in.Resolution.Role
	if !in.Resolution.Known {
		if in.Policy == config.GateFailOpen {
			return gateDecision{Role: in.TokenRole}
		}
		role = enums.RoleCitizen
	}

	if isAdminPath(in.Path) && !role.IsAdministrator() {
		return gateDecision{Redirect: unauthorizedPath}
	}
	if in.Path == signInPath || in.Path == signUpPath {
		return gateDecision{Redirect: role.LandingPath()}
	}
	return gateDecision{Role: role}
}

func isPublicPath(path string) bool {
	if _, ok := publicPaths[path]; ok {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isAdminPath(path string) bool {
	return path == adminPath || strings.HasPrefix(path, adminPath+"/")
}
