package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Address        string       `json:"address"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	AdditionalInfo string       `json:"additional_info,omitempty"`
}

type Case struct {
	ID                  uuid.UUID        `json:"id"`
	CaseType            string           `json:"case_type"`
	County              string           `json:"county"`
	ShortDescription    string           `json:"short_description"`
	DetailedDescription string           `json:"detailed_description"`
	ObservationDate     time.Time        `json:"observation_date"`
	Location            Location         `json:"location_details"`
	Status              enums.CaseStatus `json:"status"`
	ReporterID          uuid.UUID        `json:"reporter_id"`
	ContactConsent      bool             `json:"contact_consent"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
