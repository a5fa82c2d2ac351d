package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logger"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres stores values in the client_state table created by the
// embedded migrations.
func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) Storage {
	return &postgresStore{pool: pool, logger: logger.OrNop(log)}
}

func (r *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
SELECT value
FROM client_state
WHERE key = $1
`
	var value []byte
	if err := r.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("state get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (r *postgresStore) Put(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO client_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	if _, err := r.pool.Exec(ctx, q, key, value); err != nil {
		r.logger.Error("state put failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *postgresStore) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM client_state WHERE key = $1`, key)
	return err
}

func (r *postgresStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// PurgeOlderThan deletes state that has not been written for age, returning
// the number of removed keys.
func PurgeOlderThan(ctx context.Context, pool *pgxpool.Pool, age time.Duration) (int, error) {
	var removed int
	err := pool.QueryRow(ctx, `SELECT purge_client_state(make_interval(secs => $1))`, age.Seconds()).Scan(&removed)
	return removed, err
}

// Close leaves the pool open; it is shared with the migrator and closed by main.
func (r *postgresStore) Close() error {
	return nil
}
