package auth

import (
	"context"
	"time"

	"ratefolio/internal/cache"

	"github.com/redis/go-redis/v9"
)

// RevocationList records logged-out token IDs in Redis until they expire.
// With a nil client nothing is revoked.
type RevocationList struct {
	rdb *redis.Client
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

// Revoke marks jti as revoked until expiresAt.
func (l *RevocationList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if l == nil || l.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return l.rdb.Set(ctx, cache.RevokedTokenKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked. Redis errors fail open.
func (l *RevocationList) IsRevoked(ctx context.Context, jti string) bool {
	if l == nil || l.rdb == nil || jti == "" {
		return false
	}
	n, err := l.rdb.Exists(ctx, cache.RevokedTokenKey(jti)).Result()
	return err == nil && n > 0
}
