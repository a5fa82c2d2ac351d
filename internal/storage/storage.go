package storage

import (
	"context"
	"strings"
)

// Storage is a durable key/value store for per-session client state such as
// the cart snapshot and the admin token. Get returns domain.ErrNotFound when
// the key has never been written.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type prefixed struct {
	base   Storage
	prefix string
}

// Prefixed scopes every key of base under prefix.
func Prefixed(base Storage, prefix string) Storage {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &prefixed{base: base, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.base.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, value []byte) error {
	return p.base.Put(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.base.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Ping(ctx context.Context) error {
	return p.base.Ping(ctx)
}

// Close is a no-op; the base store is owned by whoever created it.
func (p *prefixed) Close() error {
	return nil
}
