// Package sessionstore keeps revoked session token ids in Redis so a signed
// out token is refused even before it expires.
package sessionstore

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "blog:revoked"

// RedisRevocations marks token ids as revoked until their expiry
type RedisRevocations struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRevocations(client redis.UniversalClient, prefix string) *RedisRevocations {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &RedisRevocations{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *RedisRevocations) key(tokenID string) string {
	return r.prefix + ":" + tokenID
}

// Revoke stores the token id until the given time. Tokens that already
// expired are skipped since they are rejected anyway.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}

	ttl := until.Sub(r.now())
	if until.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, r.key(tokenID), r.now().Unix(), ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke session").
			WithTextCode("REVOCATION_UNAVAILABLE")
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check session revocation").
			WithTextCode("REVOCATION_UNAVAILABLE")
	}
	return n > 0, nil
}

// Ping checks the connection, used at startup
func (r *RedisRevocations) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
