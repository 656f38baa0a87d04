// Package bootstrap wires the process-level runtime shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"antisocial/internal/cache"
	"antisocial/internal/config"
	"antisocial/internal/database"
	"antisocial/internal/repository"
	"antisocial/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// DemoLikes, when set, seeds fake likes in development.
	DemoLikes *seed.Options
}

// InitRuntime connects to DB and Redis and optionally seeds demo likes. The Redis client is
// nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.InitRedis(cfg.RedisURL)

	if opts.DemoLikes != nil && cfg.Env == "development" {
		likes := repository.NewLikeRepository(db, cache.NewStore(r), cfg.LikeCountCacheTTL())
		if _, err := seed.NewSeeder(db, likes).Seed(ctx, *opts.DemoLikes); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo likes: %w", err)
		}
	}

	return db, r, nil
}
