package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

// exercise runs the shared contract against any Storage.
func exercise(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "session/a/cart")
	require.True(t, errors.Is(err, domain.ErrNotFound), "expected not found, got %v", err)

	require.NoError(t, s.Put(ctx, "session/a/cart", []byte(`[{"id":"p1::base"}]`)))
	got, err := s.Get(ctx, "session/a/cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1::base"}]`, string(got))

	require.NoError(t, s.Put(ctx, "session/a/cart", []byte(`[]`)))
	got, err = s.Get(ctx, "session/a/cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "session/a/cart"))
	_, err = s.Get(ctx, "session/a/cart")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, s.Delete(ctx, "session/a/cart"))

	require.NoError(t, s.Ping(ctx))
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestFile(t *testing.T) {
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exercise(t, s)
}

func TestFileRejectsTraversal(t *testing.T) {
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "../escape", []byte("x")))
	assert.Error(t, s.Put(context.Background(), "", []byte("x")))
}

func TestPrefixedIsolatesKeys(t *testing.T) {
	base := NewMemory()
	a := Prefixed(base, "session/a")
	b := Prefixed(base, "session/b")
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, "cart", []byte("A")))
	_, err := b.Get(ctx, "cart")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	raw, err := base.Get(ctx, "session/a/cart")
	require.NoError(t, err)
	assert.Equal(t, "A", string(raw))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE client_state`)
	require.NoError(t, err)

	exercise(t, NewPostgres(pool, nil))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	s, err := NewRedis(context.Background(), RedisConfig{
		Addr:      addr,
		KeyPrefix: "storefront-test:",
		TTL:       time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	exercise(t, s)
}
