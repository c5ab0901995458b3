package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

type VerificationRecord struct {
	ID                uuid.UUID            `json:"id"`
	CaseID            uuid.UUID            `json:"case_id"`
	AdminID           uuid.UUID            `json:"admin_id"`
	VerificationNotes string               `json:"verification_notes"`
	ContactMethod     *enums.ContactMethod `json:"contact_method,omitempty"`
	Status            enums.CaseStatus     `json:"status"`
	CreatedAt         time.Time            `json:"created_at"`
}
