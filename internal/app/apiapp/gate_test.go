package apiapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/config"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	"github.com/Emmanuelamanga/cos-platform/internal/transport/http/handlers"
)

var gateCookies = handlers.SessionCookies{AccessName: "cos_access", RefreshName: "cos_refresh"}

type fakeResolver struct {
	claims      map[string]authsvc.AccessClaims
	validateErr error
	refreshes   map[string]string
	role        authsvc.RoleResolution
	refreshed   int
}

func (f *fakeResolver) ValidateAccessToken(_ context.Context, token string) (authsvc.AccessClaims, error) {
	if f.validateErr != nil {
		return authsvc.AccessClaims{}, f.validateErr
	}
	claims, ok := f.claims[token]
	if !ok {
		return authsvc.AccessClaims{}, authsvc.ErrUnauthorized
	}
	return claims, nil
}

func (f *fakeResolver) Refresh(_ context.Context, refreshToken string) (authsvc.AuthResult, error) {
	access, ok := f.refreshes[refreshToken]
	if !ok {
		return authsvc.AuthResult{}, authsvc.ErrUnauthorized
	}
	f.refreshed++
	return authsvc.AuthResult{
		AccessToken:    access,
		RefreshToken:   refreshToken + "-next",
		AccessExpires:  time.Now().Add(15 * time.Minute),
		RefreshExpires: time.Now().Add(time.Hour),
		Account:        model.Account{ID: f.claims[access].AccountID},
	}, nil
}

func (f *fakeResolver) ResolveRole(context.Context, uuid.UUID) authsvc.RoleResolution {
	return f.role
}

func newSignedInResolver(role authsvc.RoleResolution) *fakeResolver {
	return &fakeResolver{
		claims: map[string]authsvc.AccessClaims{
			"good-token": {AccountID: uuid.New(), SID: "sid-1", Role: enums.RoleAdministrator},
		},
		role: role,
	}
}

func serveGate(t *testing.T, gate *Gate, req *http.Request) (*httptest.ResponseRecorder, *authsvc.Identity) {
	t.Helper()
	var seen *authsvc.Identity
	rr := httptest.NewRecorder()
	gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
			seen = &identity
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)
	return rr, seen
}

func withAccessCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "cos_access", Value: token})
	return req
}

func TestGateRedirectsAnonymousToSignIn(t *testing.T) {
	gate := NewGate(&fakeResolver{}, gateCookies, config.GateFailClosed, nil)

	rr, _ := serveGate(t, gate, httptest.NewRequest(http.MethodGet, "/submit-case", nil))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusSeeOther)
	}
	if got := rr.Header().Get("Location"); got != "/sign-in?next=%2Fsubmit-case" {
		t.Fatalf("unexpected location: got %s", got)
	}
}

func TestGatePassesPublicPaths(t *testing.T) {
	gate := NewGate(&fakeResolver{}, gateCookies, config.GateFailClosed, nil)

	for _, path := range []string{"/", "/about", "/cases", "/cases/7f6d", "/public/logo.png", "/reset-password/confirm", "/healthz"} {
		rr, identity := serveGate(t, gate, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status: got %d want %d", path, rr.Code, http.StatusOK)
		}
		if identity != nil {
			t.Fatalf("%s: anonymous request must not carry an identity", path)
		}
	}
}

func TestGateDoesNotTreatLookalikePrefixesAsPublic(t *testing.T) {
	gate := NewGate(&fakeResolver{}, gateCookies, config.GateFailClosed, nil)

	rr, _ := serveGate(t, gate, httptest.NewRequest(http.MethodGet, "/casesx", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusSeeOther)
	}
}

func TestGateSendsCitizenOnAdminToUnauthorized(t *testing.T) {
	resolver := newSignedInResolver(authsvc.RoleResolution{Role: enums.RoleCitizen, Known: true})
	gate := NewGate(resolver, gateCookies, config.GateFailClosed, nil)

	for _, path := range []string{"/admin", "/admin/cases"} {
		rr, _ := serveGate(t, gate, withAccessCookie(httptest.NewRequest(http.MethodGet, path, nil), "good-token"))
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("%s: unexpected status: got %d want %d", path, rr.Code, http.StatusSeeOther)
		}
		if got := rr.Header().Get("Location"); got != "/unauthorized" {
			t.Fatalf("%s: unexpected location: got %s", path, got)
		}
	}
}

func TestGateUsesStoredRoleOverTokenRole(t *testing.T) {
	resolver := newSignedInResolver(authsvc.RoleResolution{Role: enums.RoleModerator, Known: true})
	gate := NewGate(resolver, gateCookies, config.GateFailClosed, nil)

	rr, identity := serveGate(t, gate, withAccessCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "good-token"))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if identity == nil || identity.Role != enums.RoleModerator {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestGateAdministratorReachesAdmin(t *testing.T) {
	resolver := newSignedInResolver(authsvc.RoleResolution{Role: enums.RoleAdministrator, Known: true})
	gate := NewGate(resolver, gateCookies, config.GateFailClosed, nil)

	rr, identity := serveGate(t, gate, withAccessCookie(httptest.NewRequest(http.MethodGet, "/admin/cases", nil), "good-token"))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if identity == nil || identity.SID != "sid-1" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestGateRoleLookupFailureFollowsPolicy(t *testing.T) {
	tests := []struct {
		policy     string
		wantStatus int
		wantLoc    string
	}{
		{policy: config.GateFailClosed, wantStatus: http.StatusSeeOther, wantLoc: "/unauthorized"},
		{policy: config.GateFailOpen, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		gate := NewGate(newSignedInResolver(authsvc.RoleResolution{}), gateCookies, tt.policy, nil)
		rr, _ := serveGate(t, gate, withAccessCookie(httptest.NewRequest(http.MethodGet, "/admin/cases", nil), "good-token"))
		if rr.Code != tt.wantStatus {
			t.Fatalf("%s: unexpected status: got %d want %d", tt.policy, rr.Code, tt.wantStatus)
		}
		if got := rr.Header().Get("Location"); got != tt.wantLoc {
			t.Fatalf("%s: unexpected location: got %q want %q", tt.policy, got, tt.wantLoc)
		}
	}
}

func TestGateRedirectsSignedInAwayFromSignIn(t *testing.T) {
	tests := []struct {
		role enums.Role
		want string
	}{
		{role: enums.RoleAdministrator, want: "/admin"},
		{role: enums.RoleCitizen, want: "/dashboard"},
		{role: enums.RoleModerator, want: "/dashboard"},
	}

	for _, tt := range tests {
		gate := NewGate(newSignedInResolver(authsvc.RoleResolution{Role: tt.role, Known: true}), gateCookies, config.GateFailClosed, nil)
		for _, path := range []string{"/sign-in", "/sign-up"} {
			rr, _ := serveGate(t, gate, withAccessCookie(httptest.NewRequest(http.MethodGet, path, nil), "good-token"))
			if rr.Code != http.StatusSeeOther {
				t.Fatalf("%s %s: unexpected status: got %d want %d", tt.role, path, rr.Code, http.StatusSeeOther)
			}
			if got := rr.Header().Get("Location"); got != tt.want {
				t.Fatalf("%s %s: unexpected location: got %s want %s", tt.role, path, got, tt.want)
			}
		}
	}
}

func TestGateSessionInfrastructureFailure(t *testing.T) {
	resolver := newSignedInResolver(authsvc.RoleResolution{Role: enums.RoleCitizen, Known: true})
	resolver.validateErr = errors.New("redis down")

	closed := NewGate(resolver, gateCookies, config.GateFailClosed, nil)
	rr, _ := serveGate(t, closed, withAccessCookie(httptest.NewRequest(http.MethodGet, "/profile", nil), "good-token"))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("closed: unexpected status: got %d want %d", rr.Code, http.StatusSeeOther)
	}

	open := NewGate(resolver, gateCookies, config.GateFailOpen, nil)
	rr, identity := serveGate(t, open, withAccessCookie(httptest.NewRequest(http.MethodGet, "/profile", nil), "good-token"))
	if rr.Code != http.StatusOK {
		t.Fatalf("open: unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if identity != nil {
		t.Fatalf("open: request must proceed anonymously, got %+v", identity)
	}
}

func TestGateRefreshesExpiredAccessToken(t *testing.T) {
	resolver := newSignedInResolver(authsvc.RoleResolution{Role: enums.RoleCitizen, Known: true})
	resolver.refreshes = map[string]string{"refresh-1": "good-token"}
	gate := NewGate(resolver, gateCookies, config.GateFailClosed, nil)

	req := withAccessCookie(httptest.NewRequest(http.MethodGet, "/profile", nil), "expired-token")
	req.AddCookie(&http.Cookie{Name: "cos_refresh", Value: "refresh-1"})
	rr, identity := serveGate(t, gate, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if identity == nil || identity.Role != enums.RoleCitizen {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if resolver.refreshed != 1 {
		t.Fatalf("unexpected refresh count: got %d want 1", resolver.refreshed)
	}
	var rotated bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == "cos_refresh" && c.Value == "refresh-1-next" {
			rotated = true
		}
	}
	if !rotated {
		t.Fatalf("rotated refresh cookie was not written")
	}
}

func TestGateClearsCookiesOnDeadRefreshToken(t *testing.T) {
	gate := NewGate(&fakeResolver{}, gateCookies, config.GateFailClosed, nil)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: "cos_refresh", Value: "revoked"})
	rr, _ := serveGate(t, gate, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusSeeOther)
	}
	if len(rr.Result().Cookies()) != 2 {
		t.Fatalf("expected both session cookies to be cleared, got %d", len(rr.Result().Cookies()))
	}
}

func TestDecideKeepsQueryInNext(t *testing.T) {
	d := decide(gateInput{Path: "/admin/cases", Target: "/admin/cases?status=pending", Policy: config.GateFailClosed})
	if d.Redirect != "/sign-in?next=%2Fadmin%2Fcases%3Fstatus%3Dpending" {
		t.Fatalf("unexpected redirect: %s", d.Redirect)
	}
}
