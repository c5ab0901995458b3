package enums

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw     string
		want    Role
		wantErr bool
	}{
		{raw: "citizen", want: RoleCitizen},
		{raw: " Administrator ", want: RoleAdministrator},
		{raw: "MODERATOR", want: RoleModerator},
		{raw: "admin", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownRole) {
				t.Fatalf("ParseRole(%q): expected ErrUnknownRole, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRole(%q): got %q want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRoleLandingPath(t *testing.T) {
	if got := RoleAdministrator.LandingPath(); got != "/admin" {
		t.Fatalf("unexpected administrator landing: %s", got)
	}
	if got := RoleModerator.LandingPath(); got != "/dashboard" {
		t.Fatalf("unexpected moderator landing: %s", got)
	}
	if got := RoleCitizen.LandingPath(); got != "/dashboard" {
		t.Fatalf("unexpected citizen landing: %s", got)
	}
}

func TestParseCaseStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseCaseStatus("archived"); !errors.Is(err, ErrUnknownCaseStatus) {
		t.Fatalf("expected ErrUnknownCaseStatus, got %v", err)
	}
	got, err := ParseCaseStatus("Needs_More_Info")
	if err != nil || got != CaseStatusNeedsMoreInfo {
		t.Fatalf("unexpected parse result: %q %v", got, err)
	}
}

func TestParseContactMethod(t *testing.T) {
	if _, err := ParseContactMethod("sms"); !errors.Is(err, ErrUnknownContactMethod) {
		t.Fatalf("expected ErrUnknownContactMethod, got %v", err)
	}
	got, err := ParseContactMethod("both")
	if err != nil || got != ContactMethodBoth {
		t.Fatalf("unexpected parse result: %q %v", got, err)
	}
}
