package payment

import (
	"context"
	"encoding/json"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

type Webhook struct {
	secret    string
	confirmer *Confirmer
	orders    *order.Service
}

func NewWebhook(secret string, confirmer *Confirmer, orders *order.Service) *Webhook {
	return &Webhook{secret: secret, confirmer: confirmer, orders: orders}
}

// Handle verifies and processes one delivery. handled is false for event
// types we acknowledge without acting on.
func (w *Webhook) Handle(ctx context.Context, payload []byte, signature string) (handled bool, err error) {
	if w.secret == "" {
		return false, apperr.Validation("webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, w.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return false, apperr.Validation("invalid webhook signature: %v", err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.canceled", "payment_intent.payment_failed":
	default:
		log.Printf("[payment] webhook %s ignored", event.Type)
		return false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return false, apperr.Validation("decode payment intent: %v", err)
	}
	orderID := pi.Metadata["order_id"]
	if orderID == "" {
		o, err := w.orders.GetByPaymentIntent(ctx, pi.ID)
		if err != nil {
			return false, err
		}
		orderID = o.ID
	}

	res, err := w.confirmer.Confirm(ctx, pi.ID, orderID)
	if err != nil {
		return false, err
	}
	log.Printf("[payment] webhook %s for order %s -> %s (replayed=%t)", event.Type, orderID, res.OrderStatus, res.Replayed)
	return true, nil
}
