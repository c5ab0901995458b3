package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    enums.CaseStatus
		to      enums.CaseStatus
		wantErr error
	}{
		{name: "pending to verified", from: enums.CaseStatusPending, to: enums.CaseStatusVerified},
		{name: "pending to rejected", from: enums.CaseStatusPending, to: enums.CaseStatusRejected},
		{name: "pending to needs more info", from: enums.CaseStatusPending, to: enums.CaseStatusNeedsMoreInfo},
		{name: "needs more info to verified", from: enums.CaseStatusNeedsMoreInfo, to: enums.CaseStatusVerified},
		{name: "needs more info to rejected", from: enums.CaseStatusNeedsMoreInfo, to: enums.CaseStatusRejected},
		{name: "needs more info again", from: enums.CaseStatusNeedsMoreInfo, to: enums.CaseStatusNeedsMoreInfo, wantErr: ErrInvalidTransition},
		{name: "pending to pending", from: enums.CaseStatusPending, to: enums.CaseStatusPending, wantErr: ErrInvalidTransition},
		{name: "verified is terminal", from: enums.CaseStatusVerified, to: enums.CaseStatusRejected, wantErr: ErrTerminalStatus},
		{name: "rejected is terminal", from: enums.CaseStatusRejected, to: enums.CaseStatusVerified, wantErr: ErrTerminalStatus},
		{name: "repeat verified", from: enums.CaseStatusVerified, to: enums.CaseStatusVerified, wantErr: ErrTerminalStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error: got %v want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	next := AllowedTransitions(enums.CaseStatusPending)
	if len(next) != 3 {
		t.Fatalf("unexpected transitions: %v", next)
	}
	next[0] = enums.CaseStatusRejected
	if AllowedTransitions(enums.CaseStatusPending)[0] != enums.CaseStatusVerified {
		t.Fatalf("transition table was mutated through returned slice")
	}
	if len(AllowedTransitions(enums.CaseStatusVerified)) != 0 {
		t.Fatalf("terminal status must have no transitions")
	}
}

func TestDayWindowIsHalfOpenUTCDay(t *testing.T) {
	start, end, err := DayWindow("2024-03-15")
	if err != nil {
		t.Fatalf("day window: %v", err)
	}
	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("unexpected window: got [%s, %s) want [%s, %s)", start, end, wantStart, wantEnd)
	}

	lastSecond := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	if lastSecond.Before(start) || !lastSecond.Before(end) {
		t.Fatalf("23:59:59 must fall inside the window")
	}
}

func TestDayWindowRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "15-03-2024", "2024-13-01", "yesterday"} {
		if _, _, err := DayWindow(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	local := time.Date(2024, 3, 16, 1, 30, 0, 0, loc)
	if got := DayKey(local); got != "2024-03-15" {
		t.Fatalf("unexpected day key: got %s want 2024-03-15", got)
	}
}
