package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus normalizes s into a known status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderPending, OrderConfirmed, OrderShipped, OrderCompleted, OrderCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// OrderCustomer is the contact block sent with an order request.
type OrderCustomer struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	MarketingOptIn bool    `json:"marketingOptIn"`
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice *Price `json:"unitPrice,omitempty"`
}

// OrderAddress is reserved by the order endpoint; the storefront does not
// collect addresses and always sends null.
type OrderAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	Customer OrderCustomer `json:"customer"`
	Address  *OrderAddress `json:"address"`
	Items    []OrderItem   `json:"items"`
	Note     string        `json:"note"`
}

// Order is the admin view of a submitted order.
type Order struct {
	ID        string        `json:"id"`
	Status    OrderStatus   `json:"status"`
	Customer  OrderCustomer `json:"customer"`
	Items     []OrderItem   `json:"items"`
	Note      string        `json:"note,omitempty"`
	AdminNote string        `json:"adminNote,omitempty"`
	Total     *Price        `json:"total,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

type OrderPage struct {
	Items    []Order `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// OrderQuery filters the admin order listing.
type OrderQuery struct {
	Page     int
	PageSize int
	Query    string
	Status   OrderStatus
}
