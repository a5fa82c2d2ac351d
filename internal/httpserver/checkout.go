package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
)

type checkoutResponse struct {
	Checkout checkout.State `json:"checkout"`
	Cart     cart.Snapshot  `json:"cart"`
	Order    *domain.Order  `json:"order,omitempty"`
}

func checkoutView(c *gin.Context, order *domain.Order) checkoutResponse {
	s := currentSession(c)
	return checkoutResponse{
		Checkout: s.Checkout.State(),
		Cart:     s.Cart.Snapshot(),
		Order:    order,
	}
}

func (h *handlers) getCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, checkoutView(c, nil))
}

func (h *handlers) setCheckoutForm(c *gin.Context) {
	var form checkout.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid form body")
		return
	}
	if _, err := currentSession(c).Checkout.SetForm(form); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutView(c, nil))
}

// submitCheckout accepts an optional form body, which replaces the stored
// form before submitting.
func (h *handlers) submitCheckout(c *gin.Context) {
	flow := currentSession(c).Checkout
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		var form checkout.ContactForm
		switch err := c.ShouldBindJSON(&form); {
		case errors.Is(err, io.EOF):
			// Empty body, possibly chunked: submit the stored form.
		case err != nil:
			errorResponse(c, http.StatusBadRequest, "invalid form body")
			return
		default:
			if _, err := flow.SetForm(form); err != nil {
				writeError(c, err)
				return
			}
		}
	}

	order, err := flow.Submit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkoutView(c, order))
}

func (h *handlers) dismissNotice(c *gin.Context) {
	currentSession(c).Checkout.DismissNotice()
	c.Status(http.StatusNoContent)
}
