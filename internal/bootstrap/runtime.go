// Package bootstrap wires the process-wide runtime shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"wanderlog/internal/cache"
	"wanderlog/internal/config"
	"wanderlog/internal/database"
	"wanderlog/internal/repository"
	"wanderlog/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis, prunes expired tokens and optionally
// seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := PruneExpiredTokens(context.Background(), db); err != nil {
		log.Printf("token pruning failed: %v", err)
	}

	if opts.SeedDemoData {
		if err := seed.Seed(db, seed.Options{}); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// PruneExpiredTokens deletes access tokens whose expiry has passed.
func PruneExpiredTokens(ctx context.Context, db *gorm.DB) error {
	n, err := repository.NewTokenRepository(db).DeleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("pruned %d expired access tokens", n)
	}
	return nil
}
