package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
)

const resetTokenPrefix = "password_reset:"

type ResetTokenRepo struct {
	client *goredis.Client
}

func NewResetTokenRepo(client *goredis.Client) *ResetTokenRepo {
	return &ResetTokenRepo{client: client}
}

func (r *ResetTokenRepo) Save(ctx context.Context, token string, accountID uuid.UUID, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(token) == "" || accountID == uuid.Nil || ttl <= 0 {
		return authsvc.ErrInvalidInput
	}
	if err := r.client.Set(ctx, resetTokenKey(token), accountID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// Consume returns the account bound to token and deletes it in the same round trip.
func (r *ResetTokenRepo) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	if r.client == nil {
		return uuid.Nil, fmt.Errorf("redis client is nil")
	}

	value, err := r.client.GetDel(ctx, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.Nil, authsvc.ErrResetTokenInvalid
		}
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}

	accountID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, authsvc.ErrResetTokenInvalid
	}
	return accountID, nil
}

func resetTokenKey(token string) string {
	return resetTokenPrefix + token
}
