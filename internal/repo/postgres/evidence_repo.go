package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
)

type EvidenceRepo struct {
	pool *pgxpool.Pool
}

func NewEvidenceRepo(pool *pgxpool.Pool) *EvidenceRepo {
	return &EvidenceRepo{pool: pool}
}

func (r *EvidenceRepo) CreateEvidence(ctx context.Context, in model.EvidenceFile) (model.EvidenceFile, error) {
	if r.pool == nil {
		return model.EvidenceFile{}, fmt.Errorf("postgres pool is nil")
	}
	if in.CaseID == uuid.Nil || in.FilePath == "" {
		return model.EvidenceFile{}, fmt.Errorf("invalid evidence payload")
	}

	out := model.EvidenceFile{}
	err := r.pool.QueryRow(ctx, `
INSERT INTO evidence_files (case_id, file_path, file_type, file_name, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING id, case_id, file_path, file_type, file_name, size_bytes, created_at
`, in.CaseID, in.FilePath, in.FileType, in.FileName, in.SizeBytes).Scan(
		&out.ID,
		&out.CaseID,
		&out.FilePath,
		&out.FileType,
		&out.FileName,
		&out.SizeBytes,
		&out.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.EvidenceFile{}, ErrCaseNotFound
		}
		return model.EvidenceFile{}, fmt.Errorf("create evidence file: %w", err)
	}
	return out, nil
}

func (r *EvidenceRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.EvidenceFile, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, case_id, file_path, file_type, file_name, size_bytes, created_at
FROM evidence_files
WHERE case_id = $1
ORDER BY created_at ASC, id ASC
`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list evidence files: %w", err)
	}
	defer rows.Close()

	out := make([]model.EvidenceFile, 0)
	for rows.Next() {
		var f model.EvidenceFile
		if err := rows.Scan(&f.ID, &f.CaseID, &f.FilePath, &f.FileType, &f.FileName, &f.SizeBytes, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evidence file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence files: %w", err)
	}
	return out, nil
}
