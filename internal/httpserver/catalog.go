package httpserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type productQuery struct {
	Category string
	Query    string
	Sort     string
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Catalog.Products(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	q := productQuery{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort"),
	}
	c.JSON(http.StatusOK, gin.H{"items": filterProducts(products, q)})
}

// filterProducts returns the active products matching q, sorted. The input
// slice is shared with the cache and is not modified.
func filterProducts(products []domain.Product, q productQuery) []domain.Product {
	needle := strings.ToLower(strings.TrimSpace(q.Query))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !p.Active {
			continue
		}
		if q.Category != "" && p.CategoryID != q.Category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, q.Sort)
	return out
}

// sortProducts orders by name unless sort asks for price. Quote-required
// products sort after priced ones.
func sortProducts(products []domain.Product, by string) {
	switch by {
	case "price", "price.asc", "price.desc":
		desc := by == "price.desc"
		sort.SliceStable(products, func(i, j int) bool {
			a, b := products[i].Price, products[j].Price
			if a.IsQuote() != b.IsQuote() {
				return b.IsQuote()
			}
			x, _ := a.Amount()
			y, _ := b.Amount()
			if desc {
				return x.GreaterThan(y)
			}
			return x.LessThan(y)
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
		})
	}
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.Product(c.Request.Context(), c.Param("idOrSlug"), false)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.Catalog.Categories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cats})
}

func (h *handlers) listPromotions(c *gin.Context) {
	promos, err := h.deps.Catalog.Promotions(c.Request.Context(), h.deps.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": promos})
}
