package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

const service = "stripe"

// StripeGateway talks to Stripe through an injected backend; it never
// touches the package-level stripe.Key.
type StripeGateway struct {
	intents paymentintent.Client
	timeout time.Duration
}

func NewStripeGateway(secretKey string, timeout time.Duration) *StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		HTTPClient:        &http.Client{Timeout: timeout},
	})
	return NewStripeGatewayWithBackend(secretKey, backend, timeout)
}

func NewStripeGatewayWithBackend(secretKey string, backend stripe.Backend, timeout time.Duration) *StripeGateway {
	return &StripeGateway{
		intents: paymentintent.Client{B: backend, Key: secretKey},
		timeout: timeout,
	}
}

func (g *StripeGateway) Retrieve(ctx context.Context, id string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(id, params)
	if err != nil {
		return nil, classify(ctx, err, "payment intent", id)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.SetIdempotencyKey("order-" + req.OrderID)
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddMetadata("customer_email", req.CustomerEmail)

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, classify(ctx, err, "payment intent", "")
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		in.LastError = pi.LastPaymentError.Msg
		if in.LastError == "" {
			in.LastError = string(pi.LastPaymentError.Code)
		}
	}
	return in
}

// classify maps a Stripe failure onto the taxonomy: deadline -> timeout,
// transport, 429 and 5xx -> unavailable (retryable), missing resource ->
// not found, any other 4xx -> rejected.
func classify(ctx context.Context, err error, what, id string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Upstream(apperr.CodeUpstreamTimeout, service, err)
	}
	var se *stripe.Error
	if !errors.As(err, &se) {
		return apperr.Upstream(apperr.CodeUpstreamUnavailable, service, err)
	}
	switch {
	case se.Code == stripe.ErrorCodeResourceMissing || se.HTTPStatusCode == http.StatusNotFound:
		return apperr.NotFound(what, id)
	case se.HTTPStatusCode == http.StatusTooManyRequests || se.HTTPStatusCode >= 500 || se.HTTPStatusCode == 0:
		return apperr.Upstream(apperr.CodeUpstreamUnavailable, service, err)
	default:
		return apperr.Upstream(apperr.CodeUpstreamRejected, service, err)
	}
}
