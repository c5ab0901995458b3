package enums

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCaseStatus = errors.New("unknown case status")

type CaseStatus string

const (
	CaseStatusPending       CaseStatus = "pending"
	CaseStatusVerified      CaseStatus = "verified"
	CaseStatusRejected      CaseStatus = "rejected"
	CaseStatusNeedsMoreInfo CaseStatus = "needs_more_info"
)

var caseStatusByTag = map[string]CaseStatus{
	"pending":         CaseStatusPending,
	"verified":        CaseStatusVerified,
	"rejected":        CaseStatusRejected,
	"needs_more_info": CaseStatusNeedsMoreInfo,
}

func ParseCaseStatus(raw string) (CaseStatus, error) {
	status, ok := caseStatusByTag[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCaseStatus, raw)
	}
	return status, nil
}

func CaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusPending,
		CaseStatusVerified,
		CaseStatusRejected,
		CaseStatusNeedsMoreInfo,
	}
}
