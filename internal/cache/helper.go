package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON reads key into dest. It reports false when the key is absent or no client is configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from Redis, falling back to fetch on a miss. fetch must
// populate dest. The result is only cached when no invalidation of key ran
// while fetch was in flight. Cache errors never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	gen := generation(ctx, key)
	if err := fetch(); err != nil {
		return err
	}

	_ = setIfGeneration(ctx, key, gen, dest, ttl)
	return nil
}

func generationKey(key string) string {
	return key + ":gen"
}

func generation(ctx context.Context, key string) string {
	if client == nil {
		return ""
	}
	gen, err := client.Get(ctx, generationKey(key)).Result()
	if err != nil {
		return ""
	}
	return gen
}

// setIfGeneration writes v under key inside a WATCH on the key's generation,
// skipping the write when an invalidation bumped it after gen was read.
func setIfGeneration(ctx context.Context, key, gen string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	gk := generationKey(key)
	return client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, gk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, gk)
}

var errStaleRead = errors.New("cache: invalidated during fetch")
