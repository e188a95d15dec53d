package order

import "github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
	StatusRefunded:   nil,
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentFailed:   {PaymentPending, PaymentPaid},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: nil,
}

func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(statusTransitions[s]) == 0
}

func (p PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[p]
	return ok
}

func (p PaymentStatus) Terminal() bool {
	return p.Valid() && len(paymentTransitions[p]) == 0
}

func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns nil when to is reachable in one step or equals
// from. Moving to the current status is a no-op, not a transition.
func CheckTransition(from, to Status) error {
	if !to.Valid() {
		return apperr.Validation("unknown status %q", to)
	}
	if from == to || CanTransition(from, to) {
		return nil
	}
	return apperr.InvalidTransition("status", string(from), string(to))
}

func CheckPaymentTransition(from, to PaymentStatus) error {
	if !to.Valid() {
		return apperr.Validation("unknown payment_status %q", to)
	}
	if from == to || CanTransitionPayment(from, to) {
		return nil
	}
	return apperr.InvalidTransition("payment_status", string(from), string(to))
}

// Path returns the shortest chain of legal steps from -> to, excluding from.
// Provider status sync uses it to advance e.g. processing straight to
// delivered while still honouring every intermediate step.
func Path(from, to Status) ([]Status, bool) {
	if from == to {
		return nil, true
	}
	prev := map[Status]Status{from: from}
	queue := []Status{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range statusTransitions[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				var path []Status
				for s := to; s != from; s = prev[s] {
					path = append([]Status{s}, path...)
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}
