package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/allyfhpontes/reutilizaif/internal/auth/resolver"
	"github.com/allyfhpontes/reutilizaif/internal/config"
	"github.com/allyfhpontes/reutilizaif/internal/db"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
	"github.com/allyfhpontes/reutilizaif/internal/market"
	"github.com/allyfhpontes/reutilizaif/internal/redis"

	_ "github.com/lib/pq"
)

type Infra struct {
	// DB is nil when running on the in-memory stores.
	DB    *db.DB
	Redis *redis.Client

	Accounts resolver.Resolver
	Products market.Store
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN == "" {
		logger.Warn("DATABASE_DSN not set, using in-memory stores", map[string]any{
			"env": cfg.Env,
		})
		infra.Accounts = resolver.NewMemoryResolver()
		infra.Products = market.NewMemoryStore()
	} else {
		database, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}

		if err := db.Migrate(ctx, database.DB); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}

		logger.Info("database ready", nil)

		infra.DB = database
		infra.Accounts = resolver.NewDBResolver(database)
		infra.Products = market.NewPostgresStore(database)
	}

	redisClient, err := redis.New(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	logger.Info("redis ready", map[string]any{"addr": cfg.RedisAddr})

	infra.Redis = redisClient
	return infra, nil
}

// Close releases every connection Infra holds.
func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
