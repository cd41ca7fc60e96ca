// Package bootstrap connects the runtime dependencies shared by the server and CLI tools.
package bootstrap

import (
	"fmt"

	"ratefolio/internal/cache"
	"ratefolio/internal/config"
	"ratefolio/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Migrate forces auto-migration in production, where Connect skips it.
	Migrate bool
}

// InitRuntime connects to the database and Redis. A Redis outage is not
// fatal: the returned client is nil and callers degrade accordingly.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.Migrate && cfg.IsProduction() {
		if err := database.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}
