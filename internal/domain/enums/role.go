package enums

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

type Role string

const (
	RoleCitizen       Role = "citizen"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

var roleByTag = map[string]Role{
	"citizen":       RoleCitizen,
	"moderator":     RoleModerator,
	"administrator": RoleAdministrator,
}

// ParseRole accepts only the closed set of role tags, case-insensitively.
func ParseRole(raw string) (Role, error) {
	role, ok := roleByTag[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

func (r Role) IsAdministrator() bool {
	return r == RoleAdministrator
}

// LandingPath is where a signed-in account is sent from the sign-in and sign-up pages.
func (r Role) LandingPath() string {
	if r.IsAdministrator() {
		return "/admin"
	}
	return "/dashboard"
}
