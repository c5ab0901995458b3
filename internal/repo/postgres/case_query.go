package postgres

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

const (
	DefaultCaseListLimit = 20
	MaxCaseListLimit     = 100
)

const caseColumns = `c.id, c.case_type, c.county, c.short_description, c.detailed_description, c.observation_date, c.location_details, c.status, c.reporter_id, c.contact_consent, c.created_at, c.updated_at`

// CaseFilter narrows a case listing. Zero-valued fields impose no constraint; set fields are ANDed.
type CaseFilter struct {
	Statuses      []enums.CaseStatus
	ReporterID    *uuid.UUID
	Query         string
	County        string
	CaseType      string
	ObservedFrom  *time.Time
	ObservedUntil *time.Time
	OldestFirst   bool
	Limit         int
	Offset        int
}

type queryArgs struct {
	args []any
}

func (q *queryArgs) add(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func buildCaseWhere(f CaseFilter, q *queryArgs) string {
	conds := make([]string, 0, 6)

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		conds = append(conds, "c.status = ANY("+q.add(statuses)+")")
	}
	if f.ReporterID != nil {
		conds = append(conds, "c.reporter_id = "+q.add(*f.ReporterID))
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		conds = append(conds, "c.short_description ILIKE "+q.add("%"+escapeLike(term)+"%")+` ESCAPE '\'`)
	}
	if county := strings.TrimSpace(f.County); county != "" {
		conds = append(conds, "c.county = "+q.add(county))
	}
	if caseType := strings.TrimSpace(f.CaseType); caseType != "" {
		conds = append(conds, "c.case_type = "+q.add(caseType))
	}
	if f.ObservedFrom != nil {
		conds = append(conds, "c.observation_date >= "+q.add(f.ObservedFrom.UTC()))
	}
	if f.ObservedUntil != nil {
		conds = append(conds, "c.observation_date < "+q.add(f.ObservedUntil.UTC()))
	}

	if len(conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(conds, "\n  AND ")
}

func buildCaseListQuery(f CaseFilter) (string, []any) {
	q := &queryArgs{}
	where := buildCaseWhere(f, q)

	order := "DESC"
	if f.OldestFirst {
		order = "ASC"
	}
	limit, offset := NormalizePage(f.Limit, f.Offset)

	sql := "SELECT " + caseColumns + "\nFROM cases c" + where +
		"\nORDER BY c.observation_date " + order + ", c.id " + order +
		"\nLIMIT " + q.add(limit) + " OFFSET " + q.add(offset)
	return sql, q.args
}

func buildCaseCountQuery(f CaseFilter) (string, []any) {
	q := &queryArgs{}
	where := buildCaseWhere(f, q)
	return "SELECT COUNT(*)\nFROM cases c" + where, q.args
}

func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultCaseListLimit
	}
	if limit > MaxCaseListLimit {
		limit = MaxCaseListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
