package handlers

import (
	"net/http"
	"strings"
	"time"

	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
)

// SessionCookies names the HttpOnly cookies that carry the access and refresh tokens.
type SessionCookies struct {
	AccessName  string
	RefreshName string
	Secure      bool
}

func (c SessionCookies) Set(w http.ResponseWriter, res authsvc.AuthResult) {
	http.SetCookie(w, c.cookie(c.AccessName, res.AccessToken, res.AccessExpires))
	http.SetCookie(w, c.cookie(c.RefreshName, res.RefreshToken, res.RefreshExpires))
}

func (c SessionCookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.AccessName, c.RefreshName} {
		cookie := c.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

// AccessToken prefers the session cookie and falls back to a bearer header for API clients.
func (c SessionCookies) AccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(c.AccessName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token, _ := extractBearerToken(r.Header.Get("Authorization"))
	return token
}

func (c SessionCookies) RefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(c.RefreshName); err == nil {
		return cookie.Value
	}
	return ""
}

func (c SessionCookies) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}
