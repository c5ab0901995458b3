package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
)

type identityKey struct{}

// Identity is the signed-in caller as resolved by the access gate. Role is
// the stored account role, not the one baked into the access token.
type Identity struct {
	AccountID uuid.UUID
	SID       string
	Role      enums.Role
}

func (i Identity) IsAdministrator() bool {
	return i.Role.IsAdministrator()
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
