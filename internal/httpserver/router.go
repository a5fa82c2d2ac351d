package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront/internal/backend"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/session"
)

// Catalog is the cached catalog the handlers read from.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, idOrSlug string, all bool) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Promotions(ctx context.Context, now time.Time) ([]domain.Promotion, error)
	CreateCategory(ctx context.Context, w catalog.CategoryWriter, in backend.CreateCategoryInput) (*domain.Category, error)
	SeedCategories(ctx context.Context, w catalog.CategoryWriter) ([]domain.Category, error)
}

type Deps struct {
	Sessions *session.Registry
	Catalog  Catalog
	// Storage is pinged by /readyz.
	Storage Pinger

	CORSOrigins  []string
	RateLimit    rate.Limit
	RateBurst    int
	SecureCookie bool
	SessionTTL   time.Duration

	Now func() time.Time
}

// buildRouter wires routes for the BFF.
func buildRouter(log *zap.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session registry is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(recovery(log), requestLogger(log), corsMiddleware(deps.CORSOrigins))
	if deps.RateLimit > 0 {
		router.Use(rateLimiter(deps.RateLimit, deps.RateBurst))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Storage))

	h := &handlers{deps: deps, logger: log}

	router.GET("/products", h.listProducts)
	router.GET("/products/:idOrSlug", h.getProduct)
	router.GET("/categories", h.listCategories)
	router.GET("/promotions", h.listPromotions)

	app := router.Group("/", sessionMiddleware(deps.Sessions, deps.SecureCookie, deps.SessionTTL))

	cartGroup := app.Group("/cart")
	cartGroup.GET("", h.getCart)
	cartGroup.DELETE("", h.clearCart)
	cartGroup.POST("/items", h.addItem)
	cartGroup.PUT("/items/:id", h.setQuantity)
	cartGroup.DELETE("/items/:id", h.removeItem)
	cartGroup.POST("/items/:id/increment", h.incrementItem)
	cartGroup.POST("/items/:id/decrement", h.decrementItem)
	cartGroup.POST("/reconcile", h.reconcileCart)

	checkoutGroup := app.Group("/checkout")
	checkoutGroup.GET("", h.getCheckout)
	checkoutGroup.PUT("/form", h.setCheckoutForm)
	checkoutGroup.POST("/submit", h.submitCheckout)
	checkoutGroup.DELETE("/notice", h.dismissNotice)

	admin := app.Group("/admin")
	admin.GET("/login", h.adminLoginState)
	admin.POST("/login", h.adminLogin)
	admin.POST("/logout", h.adminLogout)

	gated := admin.Group("", requireAdmin())
	gated.GET("/me", h.adminMe)
	gated.GET("/orders", h.adminListOrders)
	gated.GET("/orders/:id", h.adminGetOrder)
	gated.PATCH("/orders/:id/status", h.adminUpdateOrderStatus)
	gated.PATCH("/orders/:id/note", h.adminUpdateOrderNote)
	gated.POST("/categories", h.adminCreateCategory)
	gated.POST("/categories/seed", h.adminSeedCategories)
	gated.GET("/customers/export.csv", h.adminExportCustomers)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
