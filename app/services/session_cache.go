// Package services provides external service integrations and technical concerns like tokens and one-time codes
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedSession is the redis-resident projection of an active session row.
// Only the existence check is cached; account state is always re-fetched.
type CachedSession struct {
	AdminID   uint      `json:"admin_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCache fronts the session-row lookup on the hot auth path. Misses and
// cache failures fall through to the database; the cache is never
// authoritative for revocation on its own, logout deletes the entry AND
// revokes the row.
type SessionCache interface {
	Set(ctx context.Context, token string, session CachedSession) error
	Get(ctx context.Context, token string) (*CachedSession, bool)
	Delete(ctx context.Context, token string) error
}

// RedisSessionCache implements SessionCache over go-redis
type RedisSessionCache struct {
	rc     *redis.Client
	prefix string
}

// NewRedisSessionCache creates a session cache. Returns a no-op cache when the
// client is nil so callers never branch on cache availability.
func NewRedisSessionCache(rc *redis.Client, prefix string) SessionCache {
	if rc == nil {
		return &NoopSessionCache{}
	}
	if prefix == "" {
		prefix = "billnet"
	}
	return &RedisSessionCache{rc: rc, prefix: prefix}
}

// key hashes the token so raw session tokens never appear in redis
func (c *RedisSessionCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + ":admin_session:" + hex.EncodeToString(sum[:])
}

func (c *RedisSessionCache) Set(ctx context.Context, token string, session CachedSession) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, c.key(token), payload, ttl).Err()
}

func (c *RedisSessionCache) Get(ctx context.Context, token string) (*CachedSession, bool) {
	payload, err := c.rc.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		return nil, false
	}
	var session CachedSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, false
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, false
	}
	return &session, true
}

func (c *RedisSessionCache) Delete(ctx context.Context, token string) error {
	return c.rc.Del(ctx, c.key(token)).Err()
}

// NoopSessionCache is used when redis is not configured
type NoopSessionCache struct{}

func (NoopSessionCache) Set(ctx context.Context, token string, session CachedSession) error {
	return nil
}

func (NoopSessionCache) Get(ctx context.Context, token string) (*CachedSession, bool) {
	return nil, false
}

func (NoopSessionCache) Delete(ctx context.Context, token string) error {
	return nil
}
