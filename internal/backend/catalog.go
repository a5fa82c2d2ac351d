package backend

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/domain"
)

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out listOf[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetProduct looks a product up by id or slug. With all set, inactive
// products are returned too (admin view).
func (c *Client) GetProduct(ctx context.Context, idOrSlug string, all bool) (*domain.Product, error) {
	var q url.Values
	if all {
		q = url.Values{"all": {"1"}}
	}
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(idOrSlug), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out listOf[domain.Category]
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateCategoryInput is the body of POST /categories.
type CreateCategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

func (c *Client) CreateCategory(ctx context.Context, in CreateCategoryInput) (*domain.Category, error) {
	var out domain.Category
	if err := c.do(ctx, http.MethodPost, "/categories", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SeedCategories asks the backend to create its default category set and
// returns the resulting list.
func (c *Client) SeedCategories(ctx context.Context) ([]domain.Category, error) {
	var out listOf[domain.Category]
	if err := c.do(ctx, http.MethodPost, "/categories/seed", nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	var out listOf[domain.Promotion]
	if err := c.do(ctx, http.MethodGet, "/promotions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
