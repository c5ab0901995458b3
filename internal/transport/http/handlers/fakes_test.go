package handlers

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
)

type fakeCaseStore struct {
	mu      sync.Mutex
	cases   map[uuid.UUID]model.Case
	history map[uuid.UUID][]model.VerificationRecord
	listErr error
}

func newFakeCaseStore(cases ...model.Case) *fakeCaseStore {
	store := &fakeCaseStore{
		cases:   map[uuid.UUID]model.Case{},
		history: map[uuid.UUID][]model.VerificationRecord{},
	}
	for _, c := range cases {
		store.cases[c.ID] = c
	}
	return store
}

func (f *fakeCaseStore) Create(_ context.Context, in model.Case) (model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	in.ID = uuid.New()
	in.Status = enums.CaseStatusPending
	in.CreatedAt = time.Now().UTC()
	in.UpdatedAt = in.CreatedAt
	f.cases[in.ID] = in
	return in, nil
}

func (f *fakeCaseStore) GetDetail(_ context.Context, id uuid.UUID) (pgrepo.CaseDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.cases[id]
	if !ok {
		return pgrepo.CaseDetail{}, pgrepo.ErrCaseNotFound
	}
	return pgrepo.CaseDetail{Case: c, ReporterName: "Amina", ReporterCounty: "Nairobi", ReporterEmail: "amina@example.com"}, nil
}

func (f *fakeCaseStore) List(_ context.Context, filter pgrepo.CaseFilter) ([]model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Case, 0)
	for _, c := range f.cases {
		if matchesStatus(filter.Statuses, c.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCaseStore) Count(ctx context.Context, filter pgrepo.CaseFilter) (int, error) {
	out, err := f.List(ctx, filter)
	return len(out), err
}

func (f *fakeCaseStore) CountByStatus(_ context.Context, _ *uuid.UUID) (map[enums.CaseStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := map[enums.CaseStatus]int{}
	for _, s := range enums.CaseStatuses() {
		out[s] = 0
	}
	for _, c := range f.cases {
		out[c.Status]++
	}
	return out, nil
}

func (f *fakeCaseStore) CountCounties(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := map[string]struct{}{}
	for _, c := range f.cases {
		if c.County != "" {
			seen[c.County] = struct{}{}
		}
	}
	return len(seen), nil
}

// ApplyDecision mirrors the row lock of the real repo with the store mutex.
func (f *fakeCaseStore) ApplyDecision(_ context.Context, in pgrepo.DecisionInput, guard pgrepo.TransitionGuard) (model.VerificationRecord, model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.cases[in.CaseID]
	if !ok {
		return model.VerificationRecord{}, model.Case{}, pgrepo.ErrCaseNotFound
	}
	if err := guard(c.Status); err != nil {
		return model.VerificationRecord{}, model.Case{}, err
	}

	record := model.VerificationRecord{
		ID:                uuid.New(),
		CaseID:            in.CaseID,
		AdminID:           in.AdminID,
		VerificationNotes: in.Notes,
		ContactMethod:     in.ContactMethod,
		Status:            in.Status,
		CreatedAt:         time.Now().UTC(),
	}
	c.Status = in.Status
	f.cases[c.ID] = c
	f.history[c.ID] = append(f.history[c.ID], record)
	return record, c, nil
}

func (f *fakeCaseStore) ListByCase(_ context.Context, caseID uuid.UUID) ([]model.VerificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]model.VerificationRecord{}, f.history[caseID]...), nil
}

func (f *fakeCaseStore) records(caseID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history[caseID])
}

func matchesStatus(statuses []enums.CaseStatus, status enums.CaseStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeEvidenceStore struct {
	mu    sync.Mutex
	files []model.EvidenceFile
}

func (f *fakeEvidenceStore) CreateEvidence(_ context.Context, in model.EvidenceFile) (model.EvidenceFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	in.ID = uuid.New()
	in.CreatedAt = time.Now().UTC()
	f.files = append(f.files, in)
	return in, nil
}

func (f *fakeEvidenceStore) ListByCase(_ context.Context, caseID uuid.UUID) ([]model.EvidenceFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.EvidenceFile, 0)
	for _, file := range f.files {
		if file.CaseID == caseID {
			out = append(out, file)
		}
	}
	return out, nil
}

type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func (f *fakeObjectStorage) EnsureBucket(context.Context) error {
	return nil
}

func (f *fakeObjectStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if f.failPut {
		return errors.New("storage offline")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.example.com/" + key, nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	creds    map[uuid.UUID]model.AccountCredentials
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts: map[uuid.UUID]model.Account{},
		creds:    map[uuid.UUID]model.AccountCredentials{},
	}
}

func (f *fakeAccountStore) CountAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts), nil
}

func (f *fakeAccountStore) add(account model.Account, passwordHash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
	f.creds[account.ID] = model.AccountCredentials{AccountID: account.ID, PasswordHash: passwordHash, Role: account.Role}
}

func (f *fakeAccountStore) CreateAccount(_ context.Context, in pgrepo.NewAccount) (model.Account, error) {
	f.mu.Lock()
	for _, a := range f.accounts {
		if a.Email == in.Email {
			f.mu.Unlock()
			return model.Account{}, pgrepo.ErrEmailTaken
		}
	}
	f.mu.Unlock()

	account := model.Account{ID: uuid.New(), Email: in.Email, FullName: in.FullName, County: in.County, Role: in.Role}
	f.add(account, in.PasswordHash)
	return account, nil
}

func (f *fakeAccountStore) GetCredentialsByEmail(_ context.Context, email string) (model.Account, model.AccountCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, a := range f.accounts {
		if a.Email == email {
			return a, f.creds[id], nil
		}
	}
	return model.Account{}, model.AccountCredentials{}, pgrepo.ErrAccountNotFound
}

func (f *fakeAccountStore) GetCredentials(_ context.Context, id uuid.UUID) (model.Account, model.AccountCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, model.AccountCredentials{}, pgrepo.ErrAccountNotFound
	}
	return a, f.creds[id], nil
}

func (f *fakeAccountStore) GetRole(_ context.Context, id uuid.UUID) (enums.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return "", pgrepo.ErrAccountNotFound
	}
	return a.Role, nil
}

func (f *fakeAccountStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := f.creds[id]
	c.PasswordHash = hash
	f.creds[id] = c
	return nil
}

func (f *fakeAccountStore) SetTOTPSecret(_ context.Context, id uuid.UUID, sealed string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := f.creds[id]
	c.TOTPSecret, c.TOTPEnabled = sealed, enabled
	f.creds[id] = c
	return nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccountStore) UpdateProfile(_ context.Context, id uuid.UUID, in pgrepo.ProfileUpdate) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	a.FullName, a.PhoneNumber, a.County = in.FullName, in.PhoneNumber, in.County
	f.accounts[id] = a
	return a, nil
}

func (f *fakeAccountStore) UpdateRole(_ context.Context, id uuid.UUID, role enums.Role) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	a.Role = role
	f.accounts[id] = a
	return a, nil
}

func withURLParam(ctx context.Context, key, value string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}
