package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/domain"
)

// CreateOrder posts an order request. The response body is optional; an
// empty 2xx yields a zero Order.
func (c *Client) CreateOrder(ctx context.Context, in domain.OrderRequest) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, q domain.OrderQuery) (*domain.OrderPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}

	var out domain.OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders", params, nil, &out); err != nil {
		return nil, err
	}
	if out.Page == 0 {
		out.Page = q.Page
	}
	if out.PageSize == 0 {
		out.PageSize = q.PageSize
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	body := struct {
		Status domain.OrderStatus `json:"status"`
	}{Status: status}
	var out domain.Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderNoteInput updates the customer-visible and the internal note.
type OrderNoteInput struct {
	Note      string `json:"note"`
	AdminNote string `json:"adminNote"`
}

func (c *Client) UpdateOrderNote(ctx context.Context, id string, in OrderNoteInput) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/note", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
