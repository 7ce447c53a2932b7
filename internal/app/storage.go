// internal/app/storage.go
package app

import (
	"context"
	"fmt"

	"primefit-service/internal/config"
	"primefit-service/internal/db"
	"primefit-service/internal/domain/customer"
	"primefit-service/internal/repository/memory"
	"primefit-service/internal/repository/postgres"
	redisrepo "primefit-service/internal/repository/redis"
	"primefit-service/internal/repository/sqlite"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns nil when no redis address is configured.
func ConnectRedis(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return db.NewRedisClient(ctx, db.RedisConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		PoolSize: 10,
	})
}

// OpenStorage builds the roster backend named by cfg.StorageDriver. The
// returned func releases the backend's connections.
func OpenStorage(ctx context.Context, cfg config.AppConfig, redisClient *redis.Client, logger *zap.Logger) (customer.Storage, func(), error) {
	noop := func() {}

	switch cfg.StorageDriver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory roster storage, changes are lost on restart")
		return memory.NewKVStore(), noop, nil

	case config.DriverRedis:
		if redisClient == nil {
			return nil, noop, fmt.Errorf("storage driver %q requires REDIS_ADDR", cfg.StorageDriver)
		}
		return redisrepo.NewKVStore(redisClient), noop, nil

	case config.DriverPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		if err := postgres.NewDB(pool).Migrate(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return postgres.NewKVStore(pool), pool.Close, nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		store := sqlite.NewKVStore(conn)
		if err := store.Migrate(ctx); err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		return store, func() { _ = conn.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
