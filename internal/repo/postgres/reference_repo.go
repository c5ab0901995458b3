package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
)

type ReferenceRepo struct {
	pool *pgxpool.Pool
}

func NewReferenceRepo(pool *pgxpool.Pool) *ReferenceRepo {
	return &ReferenceRepo{pool: pool}
}

func (r *ReferenceRepo) ListCounties(ctx context.Context) ([]model.County, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM counties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list counties: %w", err)
	}
	defer rows.Close()

	out := make([]model.County, 0)
	for rows.Next() {
		var c model.County
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan county: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counties: %w", err)
	}
	return out, nil
}

func (r *ReferenceRepo) ListCaseTypes(ctx context.Context) ([]model.CaseType, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description, '') FROM case_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list case types: %w", err)
	}
	defer rows.Close()

	out := make([]model.CaseType, 0)
	for rows.Next() {
		var c model.CaseType
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan case type: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case types: %w", err)
	}
	return out, nil
}

// Seed inserts missing counties and case types in one transaction and returns how many rows were added.
func (r *ReferenceRepo) Seed(ctx context.Context, counties []string, caseTypes []model.CaseType) (int, error) {
	added := 0
	err := WithTx(ctx, r.pool, scopeSeed, func(ctx context.Context, tx pgx.Tx) error {
		for _, name := range counties {
			tag, err := tx.Exec(ctx, `
INSERT INTO counties (name, created_at) VALUES ($1, NOW())
ON CONFLICT (name) DO NOTHING
`, strings.TrimSpace(name))
			if err != nil {
				return fmt.Errorf("seed county %q: %w", name, err)
			}
			added += int(tag.RowsAffected())
		}
		for _, ct := range caseTypes {
			tag, err := tx.Exec(ctx, `
INSERT INTO case_types (name, description, created_at) VALUES ($1, NULLIF($2, ''), NOW())
ON CONFLICT (name) DO NOTHING
`, strings.TrimSpace(ct.Name), ct.Description)
			if err != nil {
				return fmt.Errorf("seed case type %q: %w", ct.Name, err)
			}
			added += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
