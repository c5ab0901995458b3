package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
)

type VerificationRepo struct {
	pool *pgxpool.Pool
}

type DecisionInput struct {
	CaseID        uuid.UUID
	AdminID       uuid.UUID
	Notes         string
	ContactMethod *enums.ContactMethod
	Status        enums.CaseStatus
}

// TransitionGuard is evaluated against the locked current status before anything is written.
type TransitionGuard func(current enums.CaseStatus) error

type RecentVerification struct {
	Record           model.VerificationRecord
	CaseShortSummary string
}

const verificationColumns = `v.id, v.case_id, v.admin_id, v.verification_notes, v.contact_method, v.status, v.created_at`

func NewVerificationRepo(pool *pgxpool.Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

// ApplyDecision locks the case row, runs guard, appends the record and moves the case status, all in one transaction.
func (r *VerificationRepo) ApplyDecision(ctx context.Context, in DecisionInput, guard TransitionGuard) (model.VerificationRecord, model.Case, error) {
	if r.pool == nil {
		return model.VerificationRecord{}, model.Case{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		record  model.VerificationRecord
		updated model.Case
	)
	err := WithTx(ctx, r.pool, scopeDecision, func(ctx context.Context, tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, `
SELECT status
FROM cases
WHERE id = $1
FOR UPDATE
`, in.CaseID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCaseNotFound
			}
			return fmt.Errorf("lock case: %w", err)
		}

		status, err := enums.ParseCaseStatus(current)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(status); err != nil {
				return err
			}
		}

		var contact *string
		if in.ContactMethod != nil {
			v := string(*in.ContactMethod)
			contact = &v
		}

		record, err = scanVerification(tx.QueryRow(ctx, `
INSERT INTO verification_records AS v (case_id, admin_id, verification_notes, contact_method, status, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING `+verificationColumns,
			in.CaseID, in.AdminID, in.Notes, contact, string(in.Status),
		))
		if err != nil {
			return fmt.Errorf("insert verification record: %w", err)
		}

		updated, err = scanCase(tx.QueryRow(ctx, `
UPDATE cases AS c
SET status = $2, updated_at = NOW()
WHERE c.id = $1
RETURNING `+caseColumns,
			in.CaseID, string(in.Status),
		))
		if err != nil {
			return fmt.Errorf("update case status: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.VerificationRecord{}, model.Case{}, err
	}

	return record, updated, nil
}

func (r *VerificationRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]model.VerificationRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+verificationColumns+`
FROM verification_records v
WHERE v.case_id = $1
ORDER BY v.created_at DESC, v.id DESC
`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	out := make([]model.VerificationRecord, 0)
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification records: %w", err)
	}
	return out, nil
}

// ListRecent returns the newest decisions; a non-nil reporter restricts them to that reporter's cases.
func (r *VerificationRepo) ListRecent(ctx context.Context, reporterID *uuid.UUID, limit int) ([]RecentVerification, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+verificationColumns+`, c.short_description
FROM verification_records v
JOIN cases c ON c.id = v.case_id
WHERE $1::uuid IS NULL OR c.reporter_id = $1
ORDER BY v.created_at DESC, v.id DESC
LIMIT $2
`, reporterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent verifications: %w", err)
	}
	defer rows.Close()

	out := make([]RecentVerification, 0, limit)
	for rows.Next() {
		var (
			item    RecentVerification
			contact *string
			status  string
		)
		if err := rows.Scan(
			&item.Record.ID,
			&item.Record.CaseID,
			&item.Record.AdminID,
			&item.Record.VerificationNotes,
			&contact,
			&status,
			&item.Record.CreatedAt,
			&item.CaseShortSummary,
		); err != nil {
			return nil, fmt.Errorf("scan recent verification: %w", err)
		}
		if err := fillVerificationEnums(&item.Record, contact, status); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent verifications: %w", err)
	}
	return out, nil
}

func scanVerification(row pgx.Row) (model.VerificationRecord, error) {
	var (
		rec     model.VerificationRecord
		contact *string
		status  string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CaseID,
		&rec.AdminID,
		&rec.VerificationNotes,
		&contact,
		&status,
		&rec.CreatedAt,
	); err != nil {
		return model.VerificationRecord{}, err
	}
	if err := fillVerificationEnums(&rec, contact, status); err != nil {
		return model.VerificationRecord{}, err
	}
	return rec, nil
}

func fillVerificationEnums(rec *model.VerificationRecord, contact *string, status string) error {
	parsed, err := enums.ParseCaseStatus(status)
	if err != nil {
		return fmt.Errorf("verification %s: %w", rec.ID, err)
	}
	rec.Status = parsed

	if contact != nil && *contact != "" {
		method, err := enums.ParseContactMethod(*contact)
		if err != nil {
			return fmt.Errorf("verification %s: %w", rec.ID, err)
		}
		rec.ContactMethod = &method
	}
	return nil
}
