package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix      = "user:%d"
	PortfolioKeyPrefix = "portfolio:%d"
	RevokedTokenPrefix = "blacklist:%s"
)

const (
	UserTTL      = 5 * time.Minute
	PortfolioTTL = 2 * time.Minute

	// generationTTL outlives any in-flight fetch.
	generationTTL = time.Hour
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PortfolioKey(portfolioID uint) string {
	return fmt.Sprintf(PortfolioKeyPrefix, portfolioID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}

// Invalidate deletes keys and bumps their generations so reads already in
// flight do not write stale values back.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePortfolio(ctx context.Context, portfolioID uint) {
	Invalidate(ctx, PortfolioKey(portfolioID))
}

// InvalidatePortfolios drops several portfolio entries in one round trip.
func InvalidatePortfolios(ctx context.Context, portfolioIDs []uint) {
	keys := make([]string, 0, len(portfolioIDs))
	for _, id := range portfolioIDs {
		keys = append(keys, PortfolioKey(id))
	}
	Invalidate(ctx, keys...)
}
