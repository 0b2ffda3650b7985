package identity

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const tokenKeyPrefix = "chorely:token:"

// CachedResolver remembers successful verifications in Redis until the
// token expires or ttl passes, whichever is sooner. Cache failures fall
// through to the wrapped resolver.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger, now: time.Now}
}

func (c *CachedResolver) Verify(ctx context.Context, token string) (*Claims, error) {
	key := tokenKey(token)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var claims Claims
		if err := json.Unmarshal(data, &claims); err == nil && c.live(&claims) {
			return &claims, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("token cache read", "error", err)
	}

	claims, err := c.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if !claims.ExpiresAt.IsZero() {
		if left := claims.ExpiresAt.Sub(c.now()); left < ttl {
			ttl = left
		}
	}
	if ttl > 0 {
		data, err := json.Marshal(claims)
		if err == nil {
			err = c.client.Set(ctx, key, data, ttl).Err()
		}
		if err != nil {
			c.logger.Warn("token cache write", "error", err)
		}
	}
	return claims, nil
}

func (c *CachedResolver) Lookup(ctx context.Context, uid string) (*Record, error) {
	return c.next.Lookup(ctx, uid)
}

func (c *CachedResolver) live(claims *Claims) bool {
	return claims.ExpiresAt.IsZero() || c.now().Before(claims.ExpiresAt)
}

// tokenKey hashes the credential so raw tokens never reach Redis.
func tokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}
