package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	authsvc "github.com/Emmanuelamanga/cos-platform/internal/services/auth"
)

// Layout:
//
//	cos:session:<sid>          hash   account_id, role, expires_at, refresh
//	cos:refresh:<token>        string sid
//	cos:account_sessions:<id>  set    sids
//
// All three share the session expiry.
const (
	sessionPrefix         = "cos:session:"
	refreshPrefix         = "cos:refresh:"
	accountSessionsPrefix = "cos:account_sessions:"
)

// rotateScript swaps the refresh token only while the old token still points
// at the session, so two concurrent refreshes cannot both succeed.
//
// KEYS: old refresh, new refresh, session. ARGV: sid, new token, ttl ms, expires_at.
var rotateScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
if redis.call('EXISTS', KEYS[3]) == 0 then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[3])
redis.call('HSET', KEYS[3], 'refresh', ARGV[2], 'expires_at', ARGV[4])
redis.call('PEXPIRE', KEYS[3], ARGV[3])
return 1
`)

type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return errNilClient
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.AccountID == uuid.Nil {
		return authsvc.ErrInvalidInput
	}

	ttl := ttlUntil(session.ExpiresAt)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.SID),
			"account_id", session.AccountID.String(),
			"role", string(session.Role),
			"expires_at", session.ExpiresAt.Unix(),
			"refresh", refreshToken,
		)
		pipe.PExpire(ctx, sessionKey(session.SID), ttl)
		pipe.Set(ctx, refreshKey(refreshToken), session.SID, ttl)
		pipe.SAdd(ctx, accountSessionsKey(session.AccountID), session.SID)
		pipe.PExpire(ctx, accountSessionsKey(session.AccountID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	session, _, err := r.load(ctx, sid)
	return session, err
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, errNilClient
	}

	sid, err := r.client.Get(ctx, refreshKey(refreshToken)).Result()
	if errors.Is(err, goredis.Nil) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	session, current, err := r.load(ctx, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) || (err == nil && current != refreshToken) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, err
}

func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return errNilClient
	}
	if strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}
	if sid == "" {
		current, err := r.GetByRefreshToken(ctx, oldRefreshToken)
		if err != nil {
			return err
		}
		sid = current.SID
	}

	session, _, err := r.load(ctx, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) {
		return authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return err
	}

	ttl := ttlUntil(expiresAt)
	keys := []string{refreshKey(oldRefreshToken), refreshKey(newRefreshToken), sessionKey(sid)}
	swapped, err := rotateScript.Run(ctx, r.client, keys, sid, newRefreshToken, ttl.Milliseconds(), expiresAt.Unix()).Int()
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if swapped == 0 {
		return authsvc.ErrRefreshNotFound
	}

	if err := r.client.PExpire(ctx, accountSessionsKey(session.AccountID), ttl).Err(); err != nil {
		return fmt.Errorf("extend account sessions: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return errNilClient
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}
	return r.deleteSessions(ctx, []string{sid})
}

func (r *SessionRepo) DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	if r.client == nil {
		return errNilClient
	}
	if accountID == uuid.Nil {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, accountSessionsKey(accountID)).Result()
	if err != nil {
		return fmt.Errorf("list account sessions: %w", err)
	}
	if err := r.deleteSessions(ctx, sids); err != nil {
		return err
	}
	if err := r.client.Del(ctx, accountSessionsKey(accountID)).Err(); err != nil {
		return fmt.Errorf("drop account sessions: %w", err)
	}
	return nil
}

// deleteSessions reads each session's refresh token and owner in one round
// trip, then removes every key in one transaction.
func (r *SessionRepo) deleteSessions(ctx context.Context, sids []string) error {
	if len(sids) == 0 {
		return nil
	}

	owners := make([]*goredis.SliceCmd, len(sids))
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, sid := range sids {
			owners[i] = pipe.HMGet(ctx, sessionKey(sid), "account_id", "refresh")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load sessions for delete: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, sid := range sids {
			pipe.Del(ctx, sessionKey(sid))
			vals := owners[i].Val()
			if token, ok := vals[1].(string); ok && token != "" {
				pipe.Del(ctx, refreshKey(token))
			}
			if raw, ok := vals[0].(string); ok {
				if accountID, err := uuid.Parse(raw); err == nil {
					pipe.SRem(ctx, accountSessionsKey(accountID), sid)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// load returns the session and its current refresh token.
func (r *SessionRepo) load(ctx context.Context, sid string) (authsvc.SessionRecord, string, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, "", errNilClient
	}

	values, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, "", fmt.Errorf("load session: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, "", authsvc.ErrSessionNotFound
	}

	accountID, err := uuid.Parse(values["account_id"])
	if err != nil || accountID == uuid.Nil {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}
	expiresUnix, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		SID:       sid,
		AccountID: accountID,
		Role:      enums.Role(values["role"]),
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, values["refresh"], nil
}

func ttlUntil(expiresAt time.Time) time.Duration {
	if ttl := time.Until(expiresAt); ttl > time.Second {
		return ttl
	}
	return time.Second
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}

func refreshKey(token string) string {
	return refreshPrefix + token
}

func accountSessionsKey(accountID uuid.UUID) string {
	return accountSessionsPrefix + accountID.String()
}
