package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Cart.Snapshot())
}

// addItem resolves the product from the catalog so price and name come from
// the backend, not the browser.
func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "productId is required")
		return
	}
	product, err := h.deps.Catalog.Product(c.Request.Context(), req.ProductID, false)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := currentSession(c).Cart.Add(c.Request.Context(), product.LineFor(req.Variant), req.Quantity)
	respondCart(c, snap, err)
}

func (h *handlers) incrementItem(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	snap, err := currentSession(c).Cart.Increment(c.Request.Context(), c.Param("id"), step)
	respondCart(c, snap, err)
}

func (h *handlers) decrementItem(c *gin.Context) {
	step, ok := stepParam(c)
	if !ok {
		return
	}
	snap, err := currentSession(c).Cart.Decrement(c.Request.Context(), c.Param("id"), step)
	respondCart(c, snap, err)
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "quantity is required")
		return
	}
	snap, err := currentSession(c).Cart.SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	respondCart(c, snap, err)
}

func (h *handlers) removeItem(c *gin.Context) {
	snap, err := currentSession(c).Cart.Remove(c.Request.Context(), c.Param("id"))
	respondCart(c, snap, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	snap, err := currentSession(c).Cart.Clear(c.Request.Context())
	respondCart(c, snap, err)
}

// reconcileCart refreshes line names, prices and images from the catalog.
func (h *handlers) reconcileCart(c *gin.Context) {
	products, err := h.deps.Catalog.Products(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := currentSession(c).Cart.Reconcile(c.Request.Context(), products)
	respondCart(c, snap, err)
}

func respondCart(c *gin.Context, snap cart.Snapshot, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func stepParam(c *gin.Context) (int, bool) {
	raw := c.Query("step")
	if raw == "" {
		return 1, true
	}
	step, err := strconv.Atoi(raw)
	if err != nil || step < 1 {
		errorResponse(c, http.StatusBadRequest, "step must be a positive integer")
		return 0, false
	}
	return step, true
}
