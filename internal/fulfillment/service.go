// Package fulfillment forwards paid orders to the dropshipping provider and
// keeps the local order in step with the provider's side.
package fulfillment

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const compensationTimeout = 15 * time.Second

// Selector reports the provider new orders go to. platform.Service is the
// stored store-wide setting.
type Selector interface {
	Active(ctx context.Context) (string, error)
}

// Fixed always selects the same provider.
type Fixed string

func (f Fixed) Active(context.Context) (string, error) { return string(f), nil }

type Service struct {
	orders    *order.Service
	providers *provider.Registry
	active    Selector
}

// New returns a fulfillment service that forwards orders to the provider
// active selects unless a call names another one.
func New(orders *order.Service, providers *provider.Registry, active Selector) *Service {
	return &Service{orders: orders, providers: providers, active: active}
}

// Link is the outcome of forwarding an order.
type Link struct {
	Order           *order.Order `json:"order"`
	Provider        string       `json:"provider"`
	ProviderOrderID string       `json:"provider_order_id"`
	// Created is false when the order was already linked and nothing was sent.
	Created bool `json:"created"`
}

// StatusSync is the outcome of pulling the provider's view of an order.
type StatusSync struct {
	Order          *order.Order   `json:"order"`
	ProviderStatus string         `json:"provider_status"`
	Previous       order.Status   `json:"previous_status"`
	Path           []order.Status `json:"path,omitempty"`
	Changed        bool           `json:"changed"`
}

// CreateProviderOrder places the order with a provider and moves it to
// processing. An order that is already linked is returned as is. When the
// provider accepts the order but the local write fails, the provider order
// is cancelled again and the persistence error is returned.
func (s *Service) CreateProviderOrder(ctx context.Context, orderID, providerName string) (*Link, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Linked() {
		return &Link{Order: o, Provider: o.Provider, ProviderOrderID: o.ProviderOrderID}, nil
	}
	if err := order.CheckTransition(o.Status, order.StatusProcessing); err != nil {
		return nil, err
	}
	req, err := providerRequest(o)
	if err != nil {
		return nil, err
	}

	if providerName == "" {
		if providerName, err = s.active.Active(ctx); err != nil {
			return nil, err
		}
		if providerName == platform.Local {
			return nil, apperr.Validation("no provider is active; name one to forward order %s", o.OrderNumber)
		}
	}
	p, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	if !p.Configured() {
		return nil, apperr.Validation("%s is not configured", p.Name())
	}

	ref, err := p.CreateOrder(ctx, req)
	if err != nil {
		log.Printf("[fulfillment] %s create order %s: %v", p.Name(), o.OrderNumber, err)
		return nil, err
	}
	log.Printf("[fulfillment] order %s placed with %s as %s", o.OrderNumber, p.Name(), ref.ID)

	link := func(cur *order.Order) (order.Change, error) {
		if cur.Linked() {
			return order.Change{}, apperr.Validation("order %s was linked to %s meanwhile", cur.ID, cur.ProviderOrderID)
		}
		if err := order.CheckTransition(cur.Status, order.StatusProcessing); err != nil {
			return order.Change{}, err
		}
		return order.Change{
			Status:          order.Ptr(order.StatusProcessing),
			Provider:        order.Ptr(p.Name()),
			ProviderOrderID: order.Ptr(ref.ID),
		}, nil
	}
	updated, err := s.mutate(ctx, o.ID, link)
	if err != nil {
		s.compensate(ctx, p, ref.ID, o.OrderNumber)
		if errors.Is(err, apperr.ErrPersistence) {
			return nil, err
		}
		return nil, apperr.Persistence("store provider order link", err)
	}
	return &Link{Order: updated, Provider: p.Name(), ProviderOrderID: ref.ID, Created: true}, nil
}

func (s *Service) compensate(ctx context.Context, p provider.Provider, providerOrderID, orderNumber string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := p.CancelOrder(ctx, providerOrderID, "order could not be recorded"); err != nil {
		log.Printf("[fulfillment] compensation cancel of %s order %s (ours %s) failed: %v",
			p.Name(), providerOrderID, orderNumber, err)
		return
	}
	log.Printf("[fulfillment] cancelled %s order %s after local write failed", p.Name(), providerOrderID)
}

// CancelProviderOrder cancels the provider order and then the local one.
// Orders never forwarded fail with NotLinked and are left untouched.
func (s *Service) CancelProviderOrder(ctx context.Context, orderID, reason string) (*order.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Linked() {
		return nil, apperr.NotLinked(o.ID)
	}
	if o.Status == order.StatusCancelled {
		return o, nil
	}
	if err := order.CheckTransition(o.Status, order.StatusCancelled); err != nil {
		return nil, err
	}
	p, err := s.providers.Get(o.Provider)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = "cancelled by store"
	}
	if err := p.CancelOrder(ctx, o.ProviderOrderID, reason); err != nil {
		log.Printf("[fulfillment] %s cancel %s: %v", p.Name(), o.ProviderOrderID, err)
		return nil, err
	}
	return s.mutate(ctx, o.ID, func(cur *order.Order) (order.Change, error) {
		if err := order.CheckTransition(cur.Status, order.StatusCancelled); err != nil {
			return order.Change{}, err
		}
		return order.Change{Status: order.Ptr(order.StatusCancelled)}, nil
	})
}

// SyncOrderStatus pulls the provider's status and tracking and advances the
// local order along the state machine. A provider status the local order
// cannot reach (e.g. one that lags behind) leaves the status alone.
func (s *Service) SyncOrderStatus(ctx context.Context, orderID string) (*StatusSync, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Linked() {
		return nil, apperr.NotLinked(o.ID)
	}
	p, err := s.providers.Get(o.Provider)
	if err != nil {
		return nil, err
	}
	st, err := p.OrderStatus(ctx, o.ProviderOrderID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, o, st, "", "")
}

// reconcile applies a provider's view of an order. When providerOrderID is
// set and the order is not yet linked, the link is stored in the same write.
func (s *Service) reconcile(ctx context.Context, o *order.Order, st *provider.OrderStatus, providerName, providerOrderID string) (*StatusSync, error) {
	out := &StatusSync{ProviderStatus: st.Raw, Previous: o.Status}
	updated, err := s.mutate(ctx, o.ID, func(cur *order.Order) (order.Change, error) {
		out.Previous = cur.Status
		ch, path := advance(cur, st)
		out.Path = path
		if providerOrderID != "" && !cur.Linked() {
			ch.Provider = order.Ptr(providerName)
			ch.ProviderOrderID = order.Ptr(providerOrderID)
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	out.Order = updated
	out.Changed = updated.Version != o.Version
	return out, nil
}

// advance builds the change that moves cur toward the provider's status and
// records tracking. A status the order cannot reach is logged and skipped.
// Providers never settle payment, so no path may pass through paid.
func advance(cur *order.Order, st *provider.OrderStatus) (order.Change, []order.Status) {
	var (
		ch   order.Change
		path []order.Status
	)
	switch {
	case st.Status == "" || st.Status == cur.Status:
	case cur.Status.Terminal():
		log.Printf("[fulfillment] order %s is %s, ignoring provider status %q", cur.ID, cur.Status, st.Raw)
	default:
		p, ok := order.Path(cur.Status, st.Status)
		if ok && !slices.Contains(p, order.StatusPaid) {
			ch.Status = order.Ptr(st.Status)
			path = p
		} else {
			log.Printf("[fulfillment] order %s: provider status %q not reachable from %s", cur.ID, st.Raw, cur.Status)
		}
	}
	if st.TrackingNumber != "" && st.TrackingNumber != cur.TrackingNumber {
		ch.TrackingNumber = order.Ptr(st.TrackingNumber)
	}
	if st.Carrier != "" && st.Carrier != cur.TrackingCarrier {
		ch.TrackingCarrier = order.Ptr(st.Carrier)
	}
	return ch, path
}

// mutate re-reads and retries once when another writer got in first.
func (s *Service) mutate(ctx context.Context, id string, fn func(*order.Order) (order.Change, error)) (*order.Order, error) {
	o, err := s.orders.Mutate(ctx, id, fn)
	if errors.Is(err, apperr.ErrVersionConflict) {
		o, err = s.orders.Mutate(ctx, id, fn)
	}
	return o, err
}

func providerRequest(o *order.Order) (provider.OrderRequest, error) {
	req := provider.OrderRequest{Reference: o.OrderNumber, Email: o.CustomerEmail}
	if a := o.ShippingAddress; a != nil {
		req.Phone = a.Phone
		req.Address = provider.Address{
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Address1:  a.Address,
			Address2:  a.Address2,
			City:      a.City,
			State:     a.State,
			Zip:       a.ZipCode,
			Country:   a.Country,
			Phone:     a.Phone,
		}
	}
	for _, it := range o.Items {
		if it.ProviderProductID == "" {
			continue
		}
		req.Lines = append(req.Lines, provider.OrderLine{
			ProductID: it.ProviderProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}
	if len(req.Lines) == 0 {
		return req, apperr.Validation("order %s has no items sourced from a provider", o.ID)
	}
	return req, nil
}
