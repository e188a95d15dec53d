// Package payment confirms orders against the payment provider.
package payment

import "context"

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID           string
	Status       string
	ClientSecret string
	Amount       int64
	Currency     string
	Metadata     map[string]string
	// LastError is set when the latest payment attempt failed.
	LastError string
}

// Provider intent statuses we act on.
const (
	IntentSucceeded             = "succeeded"
	IntentCanceled              = "canceled"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentProcessing            = "processing"
)

type IntentRequest struct {
	OrderID       string
	OrderNumber   string
	CustomerEmail string
	Amount        int64 // minor units
	Currency      string
}

type Gateway interface {
	Retrieve(ctx context.Context, id string) (*Intent, error)
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}
