package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/storage"
)

// CookieName carries the session id in the browser.
const CookieName = "sf_session"

const DefaultTTL = 24 * time.Hour

// Session is the application state of one browser: its cart, its checkout
// flow and its admin token.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Flow
	Auth     *auth.TokenStore
	// Admin is the backend client authenticated with Auth.
	Admin *backend.Client

	unsubscribe func()
}

// movedKeys are the persisted entries that follow a session to a new id.
var movedKeys = []string{cart.StorageKey, auth.StorageKey}

type Options struct {
	TTL           time.Duration
	RevertDelay   time.Duration
	SubmitTimeout time.Duration
	Logger        *zap.Logger
}

// Registry keeps live sessions in memory. Their persisted state lives in
// storage under "session/<id>/", so an expired session is rebuilt from it on
// the next request.
type Registry struct {
	storage   storage.Storage
	client    *backend.Client
	validator *checkout.Validator
	opts      Options
	logger    *zap.Logger

	mu       sync.Mutex
	sessions *cache.Cache
}

func NewRegistry(st storage.Storage, client *backend.Client, opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	r := &Registry{
		storage:   st,
		client:    client,
		validator: checkout.NewValidator(),
		opts:      opts,
		logger:    logger.OrNop(opts.Logger).Named("session"),
		sessions:  cache.New(opts.TTL, cleanupInterval(opts.TTL)),
	}
	r.sessions.OnEvicted(func(id string, v any) {
		s := v.(*Session)
		s.Checkout.Close()
		s.unsubscribe()
		r.logger.Debug("session evicted", zap.String("session_id", id))
	})
	return r
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 2*time.Minute {
		return ttl / 2
	}
	return time.Minute
}

// Get returns the session for id, building it from storage when it is not
// live. An empty or malformed id gets a fresh session with a new id; callers
// compare Session.ID with what they passed to know whether to set a cookie.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.sessions.Get(id); ok {
		s := v.(*Session)
		r.sessions.SetDefault(id, s)
		return s
	}
	s := r.build(ctx, id)
	r.sessions.SetDefault(id, s)
	return s
}

// Rotate moves s to a fresh id, carrying its cart and admin token, and
// forgets the old id. It is called on admin login so a session id planted
// before login cannot reach the token. It fails with cart.ErrCartHeld while
// an order is being sent.
func (r *Registry) Rotate(ctx context.Context, s *Session) (*Session, error) {
	hold, err := s.Cart.Hold()
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := hold.Release(context.WithoutCancel(ctx), false); err != nil {
			r.logger.Warn("release cart hold after rotate", zap.Error(err))
		}
	}()

	id := uuid.NewString()
	from := r.scoped(s.ID)
	to := r.scoped(id)
	for _, key := range movedKeys {
		raw, err := from.Get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if err := to.Put(ctx, key, raw); err != nil {
			return nil, fmt.Errorf("move %s: %w", key, err)
		}
	}

	r.mu.Lock()
	next := r.build(ctx, id)
	r.sessions.SetDefault(id, next)
	r.sessions.Delete(s.ID)
	for _, key := range movedKeys {
		if err := from.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("delete rotated session state", zap.String("key", key), zap.Error(err))
		}
	}
	r.mu.Unlock()
	r.logger.Info("session rotated", zap.String("from", s.ID), zap.String("to", id))
	return next, nil
}

func (r *Registry) scoped(id string) storage.Storage {
	return storage.Prefixed(r.storage, "session/"+id+"/")
}

func (r *Registry) build(ctx context.Context, id string) *Session {
	st := r.scoped(id)
	log := r.logger.With(zap.String("session_id", id))
	store := cart.NewStore(ctx, st, log)
	tokens := auth.NewTokenStore(st)
	unsubscribe := store.Subscribe(func(snap cart.Snapshot) {
		log.Debug("cart changed",
			zap.Uint64("version", snap.Version),
			zap.Int("count", snap.Count),
			zap.Bool("locked", snap.Held))
	})
	return &Session{
		ID:   id,
		Cart: store,
		Checkout: checkout.NewFlow(store, r.client, checkout.Options{
			RevertDelay:   r.opts.RevertDelay,
			SubmitTimeout: r.opts.SubmitTimeout,
			Validator:     r.validator,
			Logger:        log,
		}),
		Auth:        tokens,
		Admin:       r.client.WithTokens(tokens),
		unsubscribe: unsubscribe,
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

// Close closes every live session and forgets them.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.sessions.Items() {
		s := item.Object.(*Session)
		s.Checkout.Close()
		s.unsubscribe()
	}
	r.sessions.Flush()
}
