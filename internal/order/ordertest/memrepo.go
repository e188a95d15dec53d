// Package ordertest provides an in-memory order.Repository for tests of the
// packages that build on orders.
package ordertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

type Repo struct {
	mu     sync.Mutex
	orders map[string]*order.Order
	clock  time.Time

	// UpdateErr, when set, is returned by the next Update instead of writing.
	UpdateErr error
	Updates   int
}

func NewRepo() *Repo {
	return &Repo{
		orders: map[string]*order.Order{},
		clock:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Put stores o as-is (version defaults to 1) and returns a copy.
func (r *Repo) Put(o order.Order) *order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.Version == 0 {
		o.Version = 1
	}
	if o.CreatedAt.IsZero() {
		r.clock = r.clock.Add(time.Second)
		o.CreatedAt = r.clock
		o.UpdatedAt = r.clock
	}
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	r.orders[o.ID] = clone(&o)
	return clone(&o)
}

func (r *Repo) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return apperr.Duplicate("order already exists", o.ID)
	}
	r.clock = r.clock.Add(time.Second)
	o.Version = 1
	o.CreatedAt = r.clock
	o.UpdatedAt = r.clock
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *Repo) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	return clone(o), nil
}

func (r *Repo) GetByPaymentIntent(_ context.Context, intentID string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID != "" && o.PaymentIntentID == intentID {
			return clone(o), nil
		}
	}
	return nil, apperr.NotFound("order", intentID)
}

func (r *Repo) GetByProviderOrder(_ context.Context, provider, providerOrderID string) (*order.Order, error) {
	return r.find(providerOrderID, func(o *order.Order) bool {
		return o.ProviderOrderID != "" && o.Provider == provider && o.ProviderOrderID == providerOrderID
	})
}

func (r *Repo) GetByNumber(_ context.Context, orderNumber string) (*order.Order, error) {
	return r.find(orderNumber, func(o *order.Order) bool { return o.OrderNumber == orderNumber })
}

func (r *Repo) find(key string, match func(*order.Order) bool) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if match(o) {
			return clone(o), nil
		}
	}
	return nil, apperr.NotFound("order", key)
}

func (r *Repo) List(_ context.Context, f order.Filter) ([]order.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []order.Order
	for _, o := range r.orders {
		switch {
		case f.Status != "" && o.Status != f.Status,
			f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus,
			f.CustomerID != "" && o.CustomerID != f.CustomerID,
			f.DateFrom != nil && o.CreatedAt.Before(*f.DateFrom),
			f.DateTo != nil && !o.CreatedAt.Before(*f.DateTo):
			continue
		}
		matched = append(matched, *clone(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return append([]order.Order{}, matched[start:end]...), total, nil
}

func (r *Repo) Update(_ context.Context, id string, version int, ch order.Change) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.UpdateErr; err != nil {
		r.UpdateErr = nil
		return nil, err
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	if o.Version != version {
		return nil, apperr.VersionConflict(id)
	}
	ch.ApplyTo(o)
	o.Version++
	r.clock = r.clock.Add(time.Second)
	o.UpdatedAt = r.clock
	r.Updates++
	return clone(o), nil
}

// Bump simulates a concurrent writer by advancing the stored version.
func (r *Repo) Bump(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.Version++
	}
}

func clone(o *order.Order) *order.Order {
	c := *o
	c.Items = append([]order.Item{}, o.Items...)
	return &c
}
