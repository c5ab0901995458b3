package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	"github.com/Emmanuelamanga/cos-platform/internal/pkg/validate"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
)

type fakeStore struct {
	accounts map[uuid.UUID]model.Account
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, id uuid.UUID, in pgrepo.ProfileUpdate) (model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	a.FullName, a.PhoneNumber, a.County = in.FullName, in.PhoneNumber, in.County
	f.accounts[id] = a
	return a, nil
}

func (f *fakeStore) UpdateRole(_ context.Context, id uuid.UUID, role enums.Role) (model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	a.Role = role
	f.accounts[id] = a
	return a, nil
}

func newStore(accounts ...model.Account) *fakeStore {
	f := &fakeStore{accounts: map[uuid.UUID]model.Account{}}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func TestUpdateProfile(t *testing.T) {
	acc := model.Account{ID: uuid.New(), Email: "a@example.com", Role: enums.RoleCitizen}
	svc := NewService(newStore(acc), nil)
	actor := authsvc.Identity{AccountID: acc.ID, Role: enums.RoleCitizen}

	got, err := svc.UpdateProfile(context.Background(), actor, ProfileInput{FullName: " Otieno Odhiambo ", PhoneNumber: "+254 712-345-678", County: "Kisumu"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.FullName != "Otieno Odhiambo" || got.County != "Kisumu" {
		t.Fatalf("unexpected account: %+v", got)
	}

	_, err = svc.UpdateProfile(context.Background(), actor, ProfileInput{FullName: "x", PhoneNumber: "call me"})
	var fieldErr *validate.FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "phone_number" {
		t.Fatalf("expected phone_number field error, got %v", err)
	}
}

func TestChangeRole(t *testing.T) {
	admin := model.Account{ID: uuid.New(), Role: enums.RoleAdministrator}
	citizen := model.Account{ID: uuid.New(), Role: enums.RoleCitizen}
	svc := NewService(newStore(admin, citizen), nil)
	adminIdentity := authsvc.Identity{AccountID: admin.ID, Role: enums.RoleAdministrator}
	ctx := context.Background()

	got, err := svc.ChangeRole(ctx, adminIdentity, citizen.ID, "moderator")
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if got.Role != enums.RoleModerator {
		t.Fatalf("unexpected role: got %s want %s", got.Role, enums.RoleModerator)
	}

	if _, err := svc.ChangeRole(ctx, adminIdentity, admin.ID, "citizen"); !errors.Is(err, ErrSelfDemotion) {
		t.Fatalf("expected ErrSelfDemotion, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, adminIdentity, citizen.ID, "superuser"); !errors.Is(err, validate.ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, authsvc.Identity{AccountID: citizen.ID, Role: enums.RoleModerator}, admin.ID, "citizen"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ChangeRole(ctx, adminIdentity, uuid.New(), "citizen"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidPhone(t *testing.T) {
	tests := map[string]bool{
		"":                   true,
		"0712345678":         true,
		"+254 (712) 345-678": true,
		"12345":              false,
		"07123abc":           false,
		"0712+345678":        false,
	}
	for in, want := range tests {
		if got := validPhone(in); got != want {
			t.Fatalf("unexpected result for %q: got %v want %v", in, got, want)
		}
	}
}
