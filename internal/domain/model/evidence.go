package model

import (
	"time"

	"github.com/google/uuid"
)

type EvidenceFile struct {
	ID        uuid.UUID `json:"id"`
	CaseID    uuid.UUID `json:"case_id"`
	FilePath  string    `json:"file_path"`
	FileType  string    `json:"file_type"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
