package cases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/rules"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
	"github.com/Emmanuelamanga/cos-platform/internal/services/evidence"
	"github.com/Emmanuelamanga/cos-platform/internal/services/notify"
)

type Service struct {
	cases     CaseStore
	reference *referenceLoader
	evidence  EvidenceService
	notifier  notify.Notifier
	log       *zap.Logger
	now       func() time.Time
}

type Dependencies struct {
	Cases     CaseStore
	Reference ReferenceStore
	Cache     ReferenceCache
	Evidence  EvidenceService
	Notifier  notify.Notifier
	Logger    *zap.Logger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		cases:     deps.Cases,
		reference: newReferenceLoader(deps.Reference, deps.Cache, log),
		evidence:  deps.Evidence,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// Submit validates the form, stores the case as pending and attaches evidence best-effort.
func (s *Service) Submit(ctx context.Context, actor authsvc.Identity, in SubmitInput) (SubmitResult, error) {
	if actor.AccountID == uuid.Nil {
		return SubmitResult{}, authsvc.ErrUnauthorized
	}
	if s.cases == nil {
		return SubmitResult{}, fmt.Errorf("case store is not configured")
	}

	c, err := s.buildCase(in)
	if err != nil {
		return SubmitResult{}, err
	}
	if s.evidence != nil {
		if err := s.evidence.Validate(in.Files); err != nil {
			return SubmitResult{}, err
		}
	} else if len(in.Files) > 0 {
		return SubmitResult{}, validate.Field("files", "File uploads are currently unavailable")
	}

	c.ReporterID = actor.AccountID
	c.Status = enums.CaseStatusPending
	created, err := s.cases.Create(ctx, c)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create case: %w", err)
	}

	result := SubmitResult{Case: created, Evidence: evidence.Result{Attached: []model.EvidenceFile{}, Failed: []evidence.Failure{}}}
	if len(in.Files) > 0 {
		attached, err := s.evidence.AttachAll(ctx, created.ID, in.Files)
		if err != nil {
			s.log.Error("attach evidence", zap.String("case_id", created.ID.String()), zap.Error(err))
			for _, f := range in.Files {
				attached.Failed = append(attached.Failed, evidence.Failure{FileName: f.FileName, Reason: "upload failed"})
			}
			if attached.Attached == nil {
				attached.Attached = []model.EvidenceFile{}
			}
		}
		result.Evidence = attached
	}

	s.log.Info("case_submitted",
		zap.String("case_id", created.ID.String()),
		zap.String("reporter_id", actor.AccountID.String()),
		zap.Int("evidence_attached", len(result.Evidence.Attached)),
		zap.Int("evidence_failed", len(result.Evidence.Failed)),
	)
	s.notifier.CaseSubmitted(ctx, created, len(result.Evidence.Attached), len(result.Evidence.Failed))

	return result, nil
}

func (s *Service) buildCase(in SubmitInput) (model.Case, error) {
	switch {
	case !validate.Required(in.CaseType):
		return model.Case{}, validate.Field("case_type", "Please select a case type")
	case !validate.Required(in.County):
		return model.Case{}, validate.Field("county", "Please select a county")
	case !validate.Required(in.ShortDescription):
		return model.Case{}, validate.Field("short_description", "Please enter a short description")
	case !validate.MaxRunes(strings.TrimSpace(in.ShortDescription), maxShortDescriptionRunes):
		return model.Case{}, validate.Field("short_description", fmt.Sprintf("Short description must be %d characters or less", maxShortDescriptionRunes))
	case !validate.Required(in.DetailedDescription):
		return model.Case{}, validate.Field("detailed_description", "Please enter a detailed description")
	case !validate.Required(in.ObservationDate):
		return model.Case{}, validate.Field("observation_date", "Please select an observation date")
	}

	observed, err := parseObservationDate(in.ObservationDate)
	if err != nil {
		return model.Case{}, validate.Field("observation_date", "Please select a valid observation date")
	}
	if !validate.Required(in.LocationAddress) {
		return model.Case{}, validate.Field("location_address", "Please enter a location address")
	}
	coords, err := parseCoordinates(in.LocationLat, in.LocationLng)
	if err != nil {
		return model.Case{}, err
	}
	if !in.ContactConsent {
		return model.Case{}, validate.Field("contact_consent", "You must agree to be contacted for verification purposes")
	}

	return model.Case{
		CaseType:            strings.TrimSpace(in.CaseType),
		County:              strings.TrimSpace(in.County),
		ShortDescription:    strings.TrimSpace(in.ShortDescription),
		DetailedDescription: strings.TrimSpace(in.DetailedDescription),
		ObservationDate:     observed,
		Location: model.Location{
			Address:        strings.TrimSpace(in.LocationAddress),
			Coordinates:    coords,
			AdditionalInfo: strings.TrimSpace(in.AdditionalInfo),
		},
		ContactConsent: true,
	}, nil
}

// ListPublic returns verified cases only. Failed reads degrade to empty data plus advisories.
func (s *Service) ListPublic(ctx context.Context, q PublicQuery) (ListPage, error) {
	filter := pgrepo.CaseFilter{
		Statuses: []enums.CaseStatus{enums.CaseStatusVerified},
		Query:    q.Query,
		County:   q.County,
		CaseType: q.CaseType,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	switch strings.ToLower(strings.TrimSpace(q.Sort)) {
	case "", "newest":
	case "oldest":
		filter.OldestFirst = true
	default:
		return ListPage{}, validate.Field("sort", "Sort must be newest or oldest")
	}

	if day := strings.TrimSpace(q.Date); day != "" {
		from, until, err := rules.DayWindow(day)
		if err != nil {
			return ListPage{}, validate.Field("date", "Date must be in YYYY-MM-DD format")
		}
		filter.ObservedFrom = &from
		filter.ObservedUntil = &until
	}

	page := s.fetchPage(ctx, filter, true, false)
	return page, nil
}

// ListMine returns every case the actor reported, newest first.
func (s *Service) ListMine(ctx context.Context, actor authsvc.Identity, limit, offset int) (ListPage, error) {
	if actor.AccountID == uuid.Nil {
		return ListPage{}, authsvc.ErrUnauthorized
	}
	reporter := actor.AccountID
	return s.fetchPage(ctx, pgrepo.CaseFilter{ReporterID: &reporter, Limit: limit, Offset: offset}, false, false), nil
}

func (s *Service) AdminList(ctx context.Context, actor authsvc.Identity, q AdminQuery) (ListPage, error) {
	if !actor.IsAdministrator() {
		return ListPage{}, ErrForbidden
	}

	filter := pgrepo.CaseFilter{
		Query:    q.Query,
		County:   q.County,
		CaseType: q.CaseType,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if raw := strings.TrimSpace(q.Status); raw != "" && raw != "all" {
		status, err := enums.ParseCaseStatus(raw)
		if err != nil {
			return ListPage{}, validate.Field("status", "Unknown case status")
		}
		filter.Statuses = []enums.CaseStatus{status}
	}

	return s.fetchPage(ctx, filter, true, true), nil
}

func (s *Service) fetchPage(ctx context.Context, filter pgrepo.CaseFilter, withReference, withCounts bool) ListPage {
	limit, offset := pgrepo.NormalizePage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = limit, offset

	page := ListPage{
		Cases:      []model.Case{},
		Limit:      limit,
		Offset:     offset,
		Counties:   []model.County{},
		CaseTypes:  []model.CaseType{},
		Advisories: []Advisory{},
	}
	if withCounts {
		page.Counts = zeroCounts()
	}

	var mu sync.Mutex
	advise := func(source, message string, err error) {
		s.log.Warn("page data unavailable", zap.String("source", source), zap.Error(err))
		mu.Lock()
		page.Advisories = append(page.Advisories, Advisory{Source: source, Message: message})
		mu.Unlock()
	}

	if s.cases == nil {
		advise("cases", "Cases are temporarily unavailable", errors.New("case store is not configured"))
		if withReference {
			ref := s.reference.load(ctx)
			page.Counties, page.CaseTypes = ref.Counties, ref.CaseTypes
			page.Advisories = append(page.Advisories, ref.Advisories...)
		}
		return page
	}

	var (
		list    []model.Case
		total   int
		ref     ReferenceData
		listErr error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := s.cases.List(egCtx, filter)
		if err != nil {
			mu.Lock()
			listErr = err
			mu.Unlock()
			return nil
		}
		list = out
		return nil
	})
	eg.Go(func() error {
		n, err := s.cases.Count(egCtx, filter)
		if err != nil {
			mu.Lock()
			listErr = errors.Join(listErr, err)
			mu.Unlock()
			return nil
		}
		total = n
		return nil
	})
	if withReference {
		eg.Go(func() error {
			ref = s.reference.load(egCtx)
			return nil
		})
	}
	if withCounts {
		eg.Go(func() error {
			counts, err := s.cases.CountByStatus(egCtx, nil)
			if err != nil {
				advise("counts", "Case totals are temporarily unavailable", err)
				return nil
			}
			page.Counts = counts
			return nil
		})
	}
	_ = eg.Wait()

	if listErr != nil {
		advise("cases", "Cases are temporarily unavailable", listErr)
	} else {
		page.Cases = list
		page.Total = total
	}
	if withReference {
		page.Counties, page.CaseTypes = ref.Counties, ref.CaseTypes
		page.Advisories = append(page.Advisories, ref.Advisories...)
	}
	return page
}

// GetDetail applies visibility: verified cases are public, anything else only for the reporter or an administrator.
func (s *Service) GetDetail(ctx context.Context, viewer authsvc.Identity, id uuid.UUID) (Detail, error) {
	if s.cases == nil {
		return Detail{}, fmt.Errorf("case store is not configured")
	}

	row, err := s.cases.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCaseNotFound) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("get case detail: %w", err)
	}

	isOwner := viewer.AccountID != uuid.Nil && viewer.AccountID == row.Case.ReporterID
	isAdmin := viewer.IsAdministrator()
	if row.Case.Status != enums.CaseStatusVerified && !isOwner && !isAdmin {
		return Detail{}, ErrNotFound
	}

	detail := Detail{
		Case:       row.Case,
		Reporter:   Reporter{Name: row.ReporterName, County: row.ReporterCounty},
		Evidence:   []evidence.File{},
		Advisories: []Advisory{},
	}
	if isAdmin {
		detail.Reporter.Email = row.ReporterEmail
		detail.Reporter.Phone = row.ReporterPhone
	}

	if s.evidence == nil {
		detail.Advisories = append(detail.Advisories, Advisory{Source: "evidence", Message: "Evidence files are temporarily unavailable"})
		return detail, nil
	}
	files, err := s.evidence.ListForCase(ctx, id)
	if err != nil {
		s.log.Warn("load case evidence", zap.String("case_id", id.String()), zap.Error(err))
		detail.Advisories = append(detail.Advisories, Advisory{Source: "evidence", Message: "Evidence files are temporarily unavailable"})
		return detail, nil
	}
	detail.Evidence = files
	return detail, nil
}

func (s *Service) ReferenceData(ctx context.Context) ReferenceData {
	return s.reference.load(ctx)
}

func parseObservationDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(rules.DayLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseCoordinates(rawLat, rawLng string) (*model.Coordinates, error) {
	rawLat, rawLng = strings.TrimSpace(rawLat), strings.TrimSpace(rawLng)
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}
	if rawLat == "" || rawLng == "" {
		return nil, validate.Field("location_lat", "Provide both latitude and longitude, or neither")
	}

	lat, ok := parseDegrees(rawLat, 90)
	if !ok {
		return nil, validate.Field("location_lat", "Latitude must be a number between -90 and 90")
	}
	lng, ok := parseDegrees(rawLng, 180)
	if !ok {
		return nil, validate.Field("location_lng", "Longitude must be a number between -180 and 180")
	}
	return &model.Coordinates{Lat: lat, Lng: lng}, nil
}

// parseDegrees rejects NaN and infinities, which jsonb cannot store.
func parseDegrees(raw string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, v >= -limit && v <= limit
}

func zeroCounts() map[enums.CaseStatus]int {
	out := make(map[enums.CaseStatus]int, 4)
	for _, st := range enums.CaseStatuses() {
		out[st] = 0
	}
	return out
}
