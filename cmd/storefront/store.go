package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/internal/storage/pgstore"
	"github.com/sakashimaa/storefront/internal/storage/redisstore"
	"github.com/sakashimaa/storefront/pkg/config"
	"github.com/sakashimaa/storefront/pkg/db"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"go.uber.org/zap"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
	driverRedis    = "redis"
)

// openStore builds the configured document store. redisClient is only used by
// the redis driver and may be nil otherwise.
func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (docstore.Store, error) {
	var store docstore.Store

	switch cfg.Store.Driver {
	case driverMemory:
		store = docstore.NewMemoryStore()
	case driverPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := pgstore.Migrate(cfg.Postgres.URL); err != nil {
				return nil, err
			}
			logger.Info("documents schema is up to date")
		}

		pool, err := db.NewPostgresDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		store = pgstore.NewStore(pool, logger)
	case driverRedis:
		store = redisstore.NewStore(redisClient)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	logger.Info(
		"document store opened",
		zap.String("driver", cfg.Store.Driver),
		zap.Duration("timeout", cfg.Store.Timeout),
	)

	return docstore.WithTimeout(store, cfg.Store.Timeout), nil
}

func newRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
