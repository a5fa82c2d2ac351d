package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
	"storefront/internal/storage"
)

// Storage is the opened persistence backend plus what must be closed with it.
type Storage struct {
	storage.Storage
	// Pool is set for the postgres driver.
	Pool *pgxpool.Pool
}

// Close releases the backend and, for postgres, the pool.
func (s *Storage) Close() error {
	err := s.Storage.Close()
	if s.Pool != nil {
		s.Pool.Close()
	}
	return err
}

// OpenStorage opens the driver named by cfg.Storage. The postgres driver
// applies pending migrations first.
func OpenStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (*Storage, error) {
	switch cfg.Storage {
	case "memory":
		return &Storage{Storage: storage.NewMemory()}, nil
	case "file":
		st, err := storage.NewFile(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return &Storage{Storage: st}, nil
	case "redis":
		st, err := storage.NewRedis(ctx, storage.RedisConfig{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
			TTL:  cfg.StateRetention,
		})
		if err != nil {
			return nil, err
		}
		return &Storage{Storage: st}, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return &Storage{Storage: storage.NewPostgres(pool, log), Pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}
}

// PurgeLoop deletes postgres state untouched for retention, once per
// interval, until ctx is done. It returns at once for other drivers.
func (s *Storage) PurgeLoop(ctx context.Context, retention, interval time.Duration, log *zap.Logger) {
	if s.Pool == nil || retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := storage.PurgeOlderThan(ctx, s.Pool, retention)
			if err != nil {
				log.Warn("purge client state", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("purged client state", zap.Int("keys", n))
			}
		}
	}
}
