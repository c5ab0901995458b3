package model

import "github.com/google/uuid"

type County struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CaseType struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}
