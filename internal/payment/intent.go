package payment

import (
	"context"
	"log"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

type IntentResult struct {
	ClientSecret    string       `json:"clientSecret"`
	PaymentIntentID string       `json:"paymentIntentId"`
	Order           *order.Order `json:"order"`
}

// CreateIntent opens a payment intent for a pending order, or hands back the
// one already bound to it.
func (c *Confirmer) CreateIntent(ctx context.Context, orderID string) (*IntentResult, error) {
	if orderID == "" {
		return nil, apperr.Validation("orderId is required")
	}
	o, err := c.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending || o.PaymentStatus == order.PaymentPaid || o.PaymentStatus == order.PaymentRefunded {
		return nil, apperr.InvalidTransition("payment_status", string(o.PaymentStatus), "intent")
	}
	if !o.TotalAmount.IsPositive() {
		return nil, apperr.Validation("order %s has nothing to charge", orderID)
	}

	if o.PaymentIntentID != "" {
		in, err := c.gateway.Retrieve(ctx, o.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		return &IntentResult{ClientSecret: in.ClientSecret, PaymentIntentID: in.ID, Order: o}, nil
	}

	in, err := c.gateway.CreateIntent(ctx, IntentRequest{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerEmail: o.CustomerEmail,
		Amount:        o.TotalAmount.Shift(2).Round(0).IntPart(),
		Currency:      o.Currency,
	})
	if err != nil {
		return nil, err
	}

	updated, err := c.orders.Mutate(ctx, o.ID, func(cur *order.Order) (order.Change, error) {
		if cur.PaymentIntentID != "" {
			return order.Change{}, nil
		}
		return order.Change{PaymentIntentID: order.Ptr(in.ID)}, nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[payment] intent %s created for order %s (%d %s)", in.ID, o.ID, in.Amount, o.Currency)
	return &IntentResult{ClientSecret: in.ClientSecret, PaymentIntentID: in.ID, Order: updated}, nil
}
