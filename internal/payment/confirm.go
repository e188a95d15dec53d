package payment

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/notify"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

const CodeIntentMismatch = "INTENT_MISMATCH"

type Result struct {
	OrderStatus order.Status `json:"orderStatus"`
	// PaymentStatus is the provider's intent status, not the order's.
	PaymentStatus string       `json:"paymentStatus"`
	Order         *order.Order `json:"order"`
	Replayed      bool         `json:"replayed"`
}

type Confirmer struct {
	orders   *order.Service
	gateway  Gateway
	notifier notify.Notifier
	backoff  func() backoff.BackOff
}

func NewConfirmer(orders *order.Service, gw Gateway, n notify.Notifier) *Confirmer {
	return &Confirmer{
		orders:   orders,
		gateway:  gw,
		notifier: n,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, 3)
		},
	}
}

// WithBackoff overrides the retry policy for intent lookups.
func (c *Confirmer) WithBackoff(f func() backoff.BackOff) *Confirmer {
	c.backoff = f
	return c
}

type target struct {
	status  order.Status
	payment order.PaymentStatus
}

// mapIntent derives the order state an intent implies. ok is false while the
// intent is still in flight and nothing should be written.
func mapIntent(in *Intent) (t target, ok bool) {
	switch in.Status {
	case IntentSucceeded:
		return target{order.StatusPaid, order.PaymentPaid}, true
	case IntentCanceled:
		return target{order.StatusCancelled, order.PaymentFailed}, true
	case IntentRequiresPaymentMethod:
		if in.LastError != "" {
			return target{order.StatusPending, order.PaymentFailed}, true
		}
	}
	return target{order.StatusPending, order.PaymentPending}, false
}

// settled reports whether the order already reflects the intent. Once the
// payment axis matches, fulfillment may have carried the order past the
// status the intent implies (paid -> processing -> shipped), which is still
// the same payment. A refund is terminal and supersedes a succeeded intent.
func settled(cur *order.Order, want target) bool {
	if cur.PaymentStatus == want.payment {
		_, downstream := order.Path(want.status, cur.Status)
		return downstream
	}
	return cur.PaymentStatus.Terminal() && want.payment == order.PaymentPaid
}

// Confirm reconciles an order with the provider's view of its payment
// intent. Repeating a confirmation that already took effect writes nothing
// and reports Replayed.
func (c *Confirmer) Confirm(ctx context.Context, intentID, orderID string) (*Result, error) {
	if intentID == "" || orderID == "" {
		return nil, apperr.Validation("paymentIntentId and orderId are required")
	}

	o, err := c.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentIntentID != "" && o.PaymentIntentID != intentID {
		return nil, apperr.ValidationCode(CodeIntentMismatch, "order %s is bound to a different payment intent", orderID)
	}

	intent, err := c.retrieve(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if ref := intent.Metadata["order_id"]; ref != "" && ref != orderID {
		return nil, apperr.ValidationCode(CodeIntentMismatch, "payment intent %s belongs to order %s", intentID, ref)
	}

	want, actionable := mapIntent(intent)
	res := &Result{PaymentStatus: intent.Status}
	if !actionable {
		res.Order, res.OrderStatus = o, o.Status
		return res, nil
	}

	var (
		wrote    bool
		wasPaid  bool
		replayed bool
	)
	mutate := func(cur *order.Order) (order.Change, error) {
		wrote, replayed = false, false
		wasPaid = cur.PaymentStatus == order.PaymentPaid
		if settled(cur, want) {
			replayed = true
			return order.Change{}, nil
		}
		if err := order.CheckTransition(cur.Status, want.status); err != nil {
			return order.Change{}, err
		}
		if err := order.CheckPaymentTransition(cur.PaymentStatus, want.payment); err != nil {
			return order.Change{}, err
		}
		ch := order.Change{}
		if cur.Status != want.status {
			ch.Status = order.Ptr(want.status)
		}
		if cur.PaymentStatus != want.payment {
			ch.PaymentStatus = order.Ptr(want.payment)
		}
		if cur.PaymentIntentID == "" {
			ch.PaymentIntentID = order.Ptr(intentID)
		}
		wrote = true
		return ch, nil
	}

	updated, err := c.orders.Mutate(ctx, orderID, mutate)
	if errors.Is(err, apperr.ErrVersionConflict) {
		log.Printf("[payment] order %s changed during confirmation, re-evaluating", orderID)
		updated, err = c.orders.Mutate(ctx, orderID, mutate)
	}
	if err != nil {
		return nil, err
	}

	res.Order, res.OrderStatus, res.Replayed = updated, updated.Status, replayed
	if wrote {
		log.Printf("[payment] order %s confirmed: intent=%s status=%s payment_status=%s",
			orderID, intent.Status, updated.Status, updated.PaymentStatus)
	}
	if wrote && !wasPaid && updated.PaymentStatus == order.PaymentPaid {
		c.notify(ctx, updated)
	}
	return res, nil
}

func (c *Confirmer) retrieve(ctx context.Context, id string) (*Intent, error) {
	var intent *Intent
	op := func() error {
		in, err := c.gateway.Retrieve(ctx, id)
		if err != nil {
			if apperr.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		intent = in
		return nil
	}
	onRetry := func(err error, wait time.Duration) {
		log.Printf("[payment] retrieve %s failed, retrying in %s: %v", id, wait, err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(c.backoff(), ctx), onRetry); err != nil {
		if _, ok := apperr.As(err); !ok {
			return nil, apperr.Upstream(apperr.CodeUpstreamUnavailable, service, err)
		}
		return nil, err
	}
	return intent, nil
}

func (c *Confirmer) notify(ctx context.Context, o *order.Order) {
	if c.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := c.notifier.OrderPaid(ctx, o); err != nil {
		log.Printf("[payment] confirmation email for %s failed: %v", o.OrderNumber, err)
	}
}
