package catalog

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/logger"
)

// Backend is the slice of the REST client the catalog reads.
type Backend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, idOrSlug string, all bool) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
}

// CategoryWriter performs admin category writes. It is usually a backend
// client carrying the admin token of the caller.
type CategoryWriter interface {
	CreateCategory(ctx context.Context, in backend.CreateCategoryInput) (*domain.Category, error)
	SeedCategories(ctx context.Context) ([]domain.Category, error)
}

const (
	keyProducts   = "products"
	keyCategories = "categories"
	keyPromotions = "promotions"
	keyProduct    = "product:"
)

// Service caches catalog reads for ttl. Errors are never cached.
type Service struct {
	backend Backend
	cache   *cache.Cache
	logger  *zap.Logger
}

func New(b Backend, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		backend: b,
		cache:   cache.New(ttl, 2*ttl),
		logger:  logger.OrNop(log).Named("catalog"),
	}
}

func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(T), nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.SetDefault(key, v)
	s.logger.Debug("catalog cache filled", zap.String("key", key))
	return v, nil
}

func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	return cached(ctx, s, keyProducts, s.backend.ListProducts)
}

// Product looks a product up by id or slug. Inactive products are returned
// only when all is set; those lookups bypass the cache.
func (s *Service) Product(ctx context.Context, idOrSlug string, all bool) (*domain.Product, error) {
	if all {
		return s.backend.GetProduct(ctx, idOrSlug, true)
	}
	return cached(ctx, s, keyProduct+idOrSlug, func(ctx context.Context) (*domain.Product, error) {
		return s.backend.GetProduct(ctx, idOrSlug, false)
	})
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, s, keyCategories, s.backend.ListCategories)
}

// Promotions returns the promotions active at now.
func (s *Service) Promotions(ctx context.Context, now time.Time) ([]domain.Promotion, error) {
	all, err := cached(ctx, s, keyPromotions, s.backend.ListPromotions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Promotion, 0, len(all))
	for _, p := range all {
		if p.ActiveAt(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, w CategoryWriter, in backend.CreateCategoryInput) (*domain.Category, error) {
	c, err := w.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(keyCategories)
	return c, nil
}

func (s *Service) SeedCategories(ctx context.Context, w CategoryWriter) ([]domain.Category, error) {
	cs, err := w.SeedCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(keyCategories)
	return cs, nil
}

// Invalidate drops every cached entry.
func (s *Service) Invalidate() {
	s.cache.Flush()
}
