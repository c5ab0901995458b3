package rules

import (
	"errors"
	"fmt"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

var (
	ErrTerminalStatus    = errors.New("case status is terminal")
	ErrInvalidTransition = errors.New("invalid case status transition")
)

var caseTransitions = map[enums.CaseStatus][]enums.CaseStatus{
	enums.CaseStatusPending: {
		enums.CaseStatusVerified,
		enums.CaseStatusRejected,
		enums.CaseStatusNeedsMoreInfo,
	},
	enums.CaseStatusNeedsMoreInfo: {
		enums.CaseStatusVerified,
		enums.CaseStatusRejected,
	},
}

func IsTerminal(status enums.CaseStatus) bool {
	return status == enums.CaseStatusVerified || status == enums.CaseStatusRejected
}

func AllowedTransitions(from enums.CaseStatus) []enums.CaseStatus {
	next := caseTransitions[from]
	out := make([]enums.CaseStatus, len(next))
	copy(out, next)
	return out
}

func CheckTransition(from, to enums.CaseStatus) error {
	if IsTerminal(from) {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, from)
	}
	for _, allowed := range caseTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
