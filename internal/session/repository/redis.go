package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/session/domain"
)

const (
	sessionKeyPrefix   = "session:"
	recipientKeyPrefix = "session_recipient:"

	// DefaultRetention keeps expired sessions readable so validation can tell expired from unknown.
	DefaultRetention = 24 * time.Hour
)

// revokeScript sets revoked_at only on an existing, unrevoked session with the expected id.
// Returns 1 on success, 0 if already revoked, -1 if the session is missing.
var revokeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then
	return -1
end
local ok = redis.call('HSETNX', KEYS[1], 'revoked_at', ARGV[2])
if ok == 1 then
	redis.call('ZREM', KEYS[2], ARGV[3])
end
return ok
`)

// RedisRepository stores each session as a hash keyed by token digest, and indexes a
// recipient's sessions in a sorted set scored by creation time.
type RedisRepository struct {
	rdb       redis.UniversalClient
	retention time.Duration
}

// NewRedisRepository returns a session repository backed by rdb. Session keys expire retention
// after the session itself; a non-positive retention selects DefaultRetention.
func NewRedisRepository(rdb redis.UniversalClient, retention time.Duration) *RedisRepository {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisRepository{rdb: rdb, retention: retention}
}

func sessionKey(hash string) string          { return sessionKeyPrefix + hash }
func recipientKey(recipientID string) string { return recipientKeyPrefix + recipientID }

func (r *RedisRepository) Save(ctx context.Context, s *domain.Session) error {
	p := s.Props()
	hash := security.HashToken(p.AccessToken.String())
	key := sessionKey(hash)
	rkey := recipientKey(p.RecipientID.String())

	if p.RevokedAt != nil {
		n, err := revokeScript.Run(ctx, r.rdb, []string{key, rkey},
			s.ID().String(), formatTime(*p.RevokedAt), hash).Int()
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrStaleSession
		}
		return nil
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"id":           s.ID().String(),
			"recipient_id": p.RecipientID.String(),
			"created_at":   formatTime(p.CreatedAt),
			"expires_at":   formatTime(p.ExpiresAt),
		})
		pipe.ExpireAt(ctx, key, p.ExpiresAt.Add(r.retention))
		pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(p.CreatedAt.UnixNano()), Member: hash})
		// the index lives as long as its longest-lived member
		indexExpiry := p.ExpiresAt.Add(r.retention).Unix()
		pipe.Do(ctx, "EXPIREAT", rkey, indexExpiry, "NX")
		pipe.Do(ctx, "EXPIREAT", rkey, indexExpiry, "GT")
		return nil
	})
	return err
}

func (r *RedisRepository) FindByAccessToken(ctx context.Context, token domain.AccessToken) (*domain.Session, error) {
	fields, err := r.rdb.HGetAll(ctx, sessionKey(security.HashToken(token.String()))).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return restoreFromHash(fields, token)
}

func (r *RedisRepository) FindActiveByRecipientAndToken(ctx context.Context, recipientID entity.ID, token domain.AccessToken, now time.Time) (*domain.Session, error) {
	s, err := r.FindByAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return activeFor(s, recipientID, now), nil
}

// ListActiveByRecipient prunes index entries of sessions that are no longer active, then pages
// over the rest newest first.
func (r *RedisRepository) ListActiveByRecipient(ctx context.Context, recipientID entity.ID, now time.Time, page pagination.Params) ([]domain.Summary, error) {
	rkey := recipientKey(recipientID.String())
	hashes, err := r.rdb.ZRevRange(ctx, rkey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	var (
		active []domain.Summary
		stale  []any
	)
	for _, h := range hashes {
		vals, err := r.rdb.HMGet(ctx, sessionKey(h), "id", "created_at", "expires_at", "revoked_at").Result()
		if err != nil {
			return nil, err
		}
		id, _ := vals[0].(string)
		createdRaw, _ := vals[1].(string)
		expiresRaw, _ := vals[2].(string)
		if id == "" || vals[3] != nil {
			stale = append(stale, h)
			continue
		}
		expiresAt, err := parseTime(expiresRaw)
		if err != nil {
			return nil, err
		}
		if !now.Before(expiresAt) {
			stale = append(stale, h)
			continue
		}
		createdAt, err := parseTime(createdRaw)
		if err != nil {
			return nil, err
		}
		sid, err := entity.ParseID(id)
		if err != nil {
			return nil, err
		}
		active = append(active, domain.Summary{ID: sid, RecipientID: recipientID, CreatedAt: createdAt, ExpiresAt: expiresAt})
	}
	if len(stale) > 0 {
		if err := r.rdb.ZRem(ctx, rkey, stale...).Err(); err != nil {
			return nil, err
		}
	}

	start := int(page.Offset())
	if start < 0 || start >= len(active) {
		return nil, nil
	}
	end := min(start+int(page.Limit()), len(active))
	return active[start:end], nil
}

func restoreFromHash(fields map[string]string, token domain.AccessToken) (*domain.Session, error) {
	sid, err := entity.ParseID(fields["id"])
	if err != nil {
		return nil, err
	}
	rid, err := entity.ParseID(fields["recipient_id"])
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(fields["created_at"])
	if err != nil {
		return nil, err
	}
	expiresAt, err := parseTime(fields["expires_at"])
	if err != nil {
		return nil, err
	}
	p := domain.Props{RecipientID: rid, AccessToken: token, CreatedAt: createdAt, ExpiresAt: expiresAt}
	if raw, ok := fields["revoked_at"]; ok {
		t, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		p.RevokedAt = &t
	}
	return domain.Restore(sid, p)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session timestamp: %w", err)
	}
	return t, nil
}
