// Package provider holds the clients for the dropshipping suppliers the
// store sources products from and forwards orders to.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

const (
	CJ        = "cj"
	Zendrop   = "zendrop"
	AppScenic = "appscenic"
)

// Product is a supplier catalogue entry. Cost is what the store pays.
type Product struct {
	ExternalID  string          `json:"external_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock"`
	Source      string          `json:"source"`
}

type Query struct {
	Keyword  string
	Category string
	Page     int
	Limit    int
}

type Page struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

type Address struct {
	FirstName string
	LastName  string
	Address1  string
	Address2  string
	City      string
	State     string
	Zip       string
	Country   string
	Phone     string
}

type OrderLine struct {
	ProductID string
	VariantID string
	SKU       string
	Quantity  int
}

type OrderRequest struct {
	// Reference is our order number, sent so the supplier can echo it back.
	Reference string
	Email     string
	Phone     string
	Address   Address
	Lines     []OrderLine
}

type OrderRef struct {
	ID     string
	Status string
}

type OrderStatus struct {
	Raw            string
	Status         order.Status
	TrackingNumber string
	Carrier        string
}

type Provider interface {
	Name() string
	Configured() bool
	SearchProducts(ctx context.Context, q Query) (*Page, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error)
	CancelOrder(ctx context.Context, providerOrderID, reason string) error
	OrderStatus(ctx context.Context, providerOrderID string) (*OrderStatus, error)
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, apperr.Validation("unknown provider %q", name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var statusMap = map[string]order.Status{
	"PENDING":    order.StatusPending,
	"PROCESSING": order.StatusProcessing,
	"SHIPPED":    order.StatusShipped,
	"DELIVERED":  order.StatusDelivered,
	"CANCELLED":  order.StatusCancelled,
	"CANCELED":   order.StatusCancelled,
}

// MapStatus translates a supplier status string. Unknown values report
// false rather than guessing.
func MapStatus(raw string) (order.Status, bool) {
	s, ok := statusMap[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

func newOrderStatus(raw, tracking, carrier string) *OrderStatus {
	st := &OrderStatus{Raw: raw, TrackingNumber: tracking, Carrier: carrier}
	if s, ok := MapStatus(raw); ok {
		st.Status = s
	}
	return st
}

// flexID accepts ids sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func firstImage(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}
