package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// PaymentStatus tracks the money axis; it moves independently of Status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address   string `json:"address,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zip_code,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	OrderNumber     string          `json:"order_number"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Provider        string          `json:"provider,omitempty"`
	ProviderOrderID string          `json:"provider_order_id,omitempty"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	TrackingCarrier string          `json:"tracking_carrier,omitempty"`
	Items           []Item          `json:"items"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Linked reports whether the order has been forwarded to a provider.
func (o *Order) Linked() bool { return o.ProviderOrderID != "" }

// Item is a line captured at checkout. Name, image and price are copies so
// later catalog edits never rewrite history.
type Item struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"order_id"`
	ProductID         string          `json:"product_id"`
	ProviderProductID string          `json:"provider_product_id,omitempty"`
	VariantID         string          `json:"variant_id,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	ProductImageURL   string          `json:"product_image_url,omitempty"`
	Quantity          int             `json:"quantity"`
	PriceAtTime       decimal.Decimal `json:"price_at_time"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.PriceAtTime.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Change lists the columns an update touches; nil fields are left alone.
type Change struct {
	Status          *Status
	PaymentStatus   *PaymentStatus
	PaymentIntentID *string
	Provider        *string
	ProviderOrderID *string
	TrackingNumber  *string
	TrackingCarrier *string
}

func (c Change) Empty() bool {
	return c.Status == nil && c.PaymentStatus == nil && c.PaymentIntentID == nil &&
		c.Provider == nil && c.ProviderOrderID == nil && c.TrackingNumber == nil && c.TrackingCarrier == nil
}

// ApplyTo copies the change onto o. Repositories that keep orders in memory
// use it; the Postgres repository does the same in SQL.
func (c Change) ApplyTo(o *Order) {
	if c.Status != nil {
		o.Status = *c.Status
	}
	if c.PaymentStatus != nil {
		o.PaymentStatus = *c.PaymentStatus
	}
	if c.PaymentIntentID != nil {
		o.PaymentIntentID = *c.PaymentIntentID
	}
	if c.Provider != nil {
		o.Provider = *c.Provider
	}
	if c.ProviderOrderID != nil {
		o.ProviderOrderID = *c.ProviderOrderID
	}
	if c.TrackingNumber != nil {
		o.TrackingNumber = *c.TrackingNumber
	}
	if c.TrackingCarrier != nil {
		o.TrackingCarrier = *c.TrackingCarrier
	}
}

func Ptr[T any](v T) *T { return &v }
