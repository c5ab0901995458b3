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

var ErrCaseNotFound = errors.New("case not found")

type CaseRepo struct {
	pool *pgxpool.Pool
}

type CaseDetail struct {
	Case           model.Case
	ReporterName   string
	ReporterCounty string
	ReporterEmail  string
	ReporterPhone  string
}

func NewCaseRepo(pool *pgxpool.Pool) *CaseRepo {
	return &CaseRepo{pool: pool}
}

// Create inserts a case; the status column is always written as pending.
func (r *CaseRepo) Create(ctx context.Context, in model.Case) (model.Case, error) {
	if r.pool == nil {
		return model.Case{}, fmt.Errorf("postgres pool is nil")
	}
	if in.ReporterID == uuid.Nil {
		return model.Case{}, fmt.Errorf("invalid case payload")
	}

	out, err := scanCase(r.pool.QueryRow(ctx, `
INSERT INTO cases AS c (
	case_type,
	county,
	short_description,
	detailed_description,
	observation_date,
	location_details,
	status,
	reporter_id,
	contact_consent,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8, NOW(), NOW())
RETURNING `+caseColumns,
		in.CaseType,
		in.County,
		in.ShortDescription,
		in.DetailedDescription,
		in.ObservationDate.UTC(),
		in.Location,
		in.ReporterID,
		in.ContactConsent,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Case{}, ErrAccountNotFound
		}
		return model.Case{}, fmt.Errorf("create case: %w", err)
	}
	return out, nil
}

func (r *CaseRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Case, error) {
	if r.pool == nil {
		return model.Case{}, fmt.Errorf("postgres pool is nil")
	}

	out, err := scanCase(r.pool.QueryRow(ctx, `
SELECT `+caseColumns+`
FROM cases c
WHERE c.id = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Case{}, ErrCaseNotFound
		}
		return model.Case{}, fmt.Errorf("get case: %w", err)
	}
	return out, nil
}

func (r *CaseRepo) GetDetail(ctx context.Context, id uuid.UUID) (CaseDetail, error) {
	if r.pool == nil {
		return CaseDetail{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		detail CaseDetail
		status string
		name   *string
		county *string
		email  *string
		phone  *string
	)
	err := r.pool.QueryRow(ctx, `
SELECT `+caseColumns+`, a.full_name, a.county, a.email, a.phone_number
FROM cases c
LEFT JOIN accounts a ON a.id = c.reporter_id
WHERE c.id = $1
`, id).Scan(
		&detail.Case.ID,
		&detail.Case.CaseType,
		&detail.Case.County,
		&detail.Case.ShortDescription,
		&detail.Case.DetailedDescription,
		&detail.Case.ObservationDate,
		&detail.Case.Location,
		&status,
		&detail.Case.ReporterID,
		&detail.Case.ContactConsent,
		&detail.Case.CreatedAt,
		&detail.Case.UpdatedAt,
		&name,
		&county,
		&email,
		&phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CaseDetail{}, ErrCaseNotFound
		}
		return CaseDetail{}, fmt.Errorf("get case detail: %w", err)
	}

	parsed, err := enums.ParseCaseStatus(status)
	if err != nil {
		return CaseDetail{}, fmt.Errorf("case %s: %w", detail.Case.ID, err)
	}
	detail.Case.Status = parsed
	detail.ReporterName = deref(name)
	detail.ReporterCounty = deref(county)
	detail.ReporterEmail = deref(email)
	detail.ReporterPhone = deref(phone)
	return detail, nil
}

func (r *CaseRepo) List(ctx context.Context, f CaseFilter) ([]model.Case, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	sql, args := buildCaseListQuery(f)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := make([]model.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

func (r *CaseRepo) Count(ctx context.Context, f CaseFilter) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	sql, args := buildCaseCountQuery(f)
	var count int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cases: %w", err)
	}
	return count, nil
}

// CountByStatus returns one entry per known status, zero-filled. A nil reporter counts every case.
func (r *CaseRepo) CountByStatus(ctx context.Context, reporterID *uuid.UUID) (map[enums.CaseStatus]int, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT status, COUNT(*)
FROM cases
WHERE $1::uuid IS NULL OR reporter_id = $1
GROUP BY status
`, reporterID)
	if err != nil {
		return nil, fmt.Errorf("count cases by status: %w", err)
	}
	defer rows.Close()

	out := make(map[enums.CaseStatus]int, 4)
	for _, s := range enums.CaseStatuses() {
		out[s] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		parsed, err := enums.ParseCaseStatus(status)
		if err != nil {
			return nil, err
		}
		out[parsed] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return out, nil
}

// CountCounties reports how many distinct counties have at least one case.
func (r *CaseRepo) CountCounties(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT county) FROM cases WHERE county <> ''`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count covered counties: %w", err)
	}
	return n, nil
}

func scanCase(row pgx.Row) (model.Case, error) {
	var (
		c      model.Case
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.CaseType,
		&c.County,
		&c.ShortDescription,
		&c.DetailedDescription,
		&c.ObservationDate,
		&c.Location,
		&status,
		&c.ReporterID,
		&c.ContactConsent,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return model.Case{}, err
	}

	parsed, err := enums.ParseCaseStatus(status)
	if err != nil {
		return model.Case{}, fmt.Errorf("case %s: %w", c.ID, err)
	}
	c.Status = parsed
	return c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
