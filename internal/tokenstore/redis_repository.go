package tokenstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Records are stored as hashes under "token:<credential>" with an absolute
// expiry (EXPIREAT); the per-user index is a set under "user:<id>:tokens"
// with no TTL of its own.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based token repository. Prefix may be
// empty, in which case "token:" is used.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "token:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(credential string) string {
	return r.prefix + credential
}

func (r *RedisRepository) indexKey(userID string) string {
	return "user:" + userID + ":tokens"
}

func (r *RedisRepository) Put(ctx context.Context, credential string, rec *TokenRecord, ttl time.Duration) error {
	if ttl <= 0 {
		// never persist an already-expired record
		ttl = time.Second
	}
	// single HSET writes every field at once; readers see all or nothing
	fields := map[string]interface{}{
		"userId":      rec.UserID,
		"ipAddress":   rec.IPAddress,
		"sessionType": rec.SessionType,
		"createdAt":   rec.CreatedAt.Unix(),
		"expiresAt":   rec.ExpiresAt.Unix(),
		"lastUsedAt":  rec.LastUsedAt.Unix(),
		"status":      rec.Status,
	}
	if err := r.client.HSet(ctx, r.key(credential), fields).Err(); err != nil {
		return fmt.Errorf("put token record: %w", err)
	}
	if err := r.client.Expire(ctx, r.key(credential), ttl).Err(); err != nil {
		return fmt.Errorf("set token record ttl: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, credential string) (*TokenRecord, error) {
	fields, err := r.client.HGetAll(ctx, r.key(credential)).Result()
	if err != nil {
		return nil, fmt.Errorf("get token record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	rec := &TokenRecord{
		UserID:      fields["userId"],
		IPAddress:   fields["ipAddress"],
		SessionType: fields["sessionType"],
		CreatedAt:   unixField(fields, "createdAt"),
		ExpiresAt:   unixField(fields, "expiresAt"),
		LastUsedAt:  unixField(fields, "lastUsedAt"),
		Status:      fields["status"],
	}
	// If the record lapsed but Redis has not reaped it yet, treat as missing
	if time.Now().UTC().After(rec.ExpiresAt) {
		_ = r.client.Del(ctx, r.key(credential)).Err()
		return nil, nil
	}
	return rec, nil
}

func (r *RedisRepository) IndexAdd(ctx context.Context, userID, credential string) error {
	if err := r.client.SAdd(ctx, r.indexKey(userID), credential).Err(); err != nil {
		return fmt.Errorf("index token: %w", err)
	}
	return nil
}

func (r *RedisRepository) IndexMembers(ctx context.Context, userID string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.indexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read token index: %w", err)
	}
	return members, nil
}

func (r *RedisRepository) Revoke(ctx context.Context, credential string) error {
	exists, err := r.client.Exists(ctx, r.key(credential)).Result()
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if exists == 0 {
		// already expired or never issued
		return nil
	}
	// flip the status in place; the key keeps its TTL and lapses naturally
	if err := r.client.HSet(ctx, r.key(credential), "status", StatusRevoked).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRepository) Touch(ctx context.Context, credential string, at time.Time) error {
	exists, err := r.client.Exists(ctx, r.key(credential)).Result()
	if err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	if exists == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, r.key(credential), "lastUsedAt", at.Unix()).Err(); err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return nil
}

func unixField(fields map[string]string, name string) time.Time {
	sec, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
