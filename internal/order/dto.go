package order

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// CreateOrderItem is one checkout line.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID         string           `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	ProviderProductID string           `json:"provider_product_id,omitempty" example:"CJ-10023"`
	VariantID         string           `json:"variant_id,omitempty"`
	ProductName       string           `json:"product_name,omitempty" example:"Silk scarf"`
	ProductImageURL   string           `json:"product_image_url,omitempty"`
	Quantity          int              `json:"quantity" example:"2"`
	PriceAtTime       *decimal.Decimal `json:"price_at_time" swaggertype:"string" example:"29.99"`
}

// CreateOrderRequest is the checkout payload.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	CustomerID      string            `json:"customer_id" example:"c1"`
	CustomerEmail   string            `json:"customer_email,omitempty" example:"ana@example.com"`
	Items           []CreateOrderItem `json:"items"`
	TotalAmount     *decimal.Decimal  `json:"total_amount" swaggertype:"string" example:"59.98"`
	ShippingAmount  decimal.Decimal   `json:"shipping_amount" swaggertype:"string" example:"0"`
	TaxAmount       decimal.Decimal   `json:"tax_amount" swaggertype:"string" example:"0"`
	Currency        string            `json:"currency,omitempty" example:"usd"`
	PaymentMethod   string            `json:"payment_method,omitempty" example:"card"`
	ShippingAddress *Address          `json:"shipping_address,omitempty"`
	BillingAddress  *Address          `json:"billing_address,omitempty"`
}

// UpdateOrderRequest is the body of PUT /orders.
// swagger:model UpdateOrderRequest
type UpdateOrderRequest struct {
	OrderID       string        `json:"orderId" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Status        Status        `json:"status,omitempty" example:"processing"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty" example:"paid"`
}

type Filter struct {
	Status        Status
	PaymentStatus PaymentStatus
	CustomerID    string
	DateFrom      *time.Time
	// DateTo is exclusive.
	DateTo *time.Time
	Limit  int
	Offset int
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

type ListResult struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// ParseFilter validates list query parameters. A bare date_to (YYYY-MM-DD)
// covers the whole day.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{Limit: DefaultLimit}

	if s := strings.TrimSpace(q.Get("status")); s != "" {
		f.Status = Status(strings.ToLower(s))
		if !f.Status.Valid() {
			return Filter{}, apperr.Validation("unknown status %q", s)
		}
	}
	if s := strings.TrimSpace(q.Get("payment_status")); s != "" {
		f.PaymentStatus = PaymentStatus(strings.ToLower(s))
		if !f.PaymentStatus.Valid() {
			return Filter{}, apperr.Validation("unknown payment_status %q", s)
		}
	}
	f.CustomerID = strings.TrimSpace(q.Get("customer_id"))

	if s := q.Get("date_from"); s != "" {
		t, _, err := parseDate(s)
		if err != nil {
			return Filter{}, apperr.Validation("date_from: %v", err)
		}
		f.DateFrom = &t
	}
	if s := q.Get("date_to"); s != "" {
		t, dayOnly, err := parseDate(s)
		if err != nil {
			return Filter{}, apperr.Validation("date_to: %v", err)
		}
		if dayOnly {
			t = t.AddDate(0, 0, 1)
		} else {
			t = t.Add(time.Nanosecond)
		}
		f.DateTo = &t
	}
	if f.DateFrom != nil && f.DateTo != nil && !f.DateFrom.Before(*f.DateTo) {
		return Filter{}, apperr.Validation("date_from must be before date_to")
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return Filter{}, apperr.Validation("limit must be a positive integer")
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		f.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Filter{}, apperr.Validation("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
