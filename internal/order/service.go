package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

const CodeTotalMismatch = "TOTAL_MISMATCH"

type Service struct {
	repo     Repository
	products ProductLookup
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithProducts enables copying catalog data (name, image, provider id) onto
// checkout lines that arrive without it.
func (s *Service) WithProducts(p ProductLookup) *Service {
	s.products = p
	return s
}

// Create validates the checkout payload, recomputes the totals and persists
// the order with its items atomically.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return nil, apperr.Validation("customer_id is required")
	}
	if req.TotalAmount == nil {
		return nil, apperr.Validation("total_amount is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("items must not be empty")
	}
	if req.ShippingAmount.IsNegative() || req.TaxAmount.IsNegative() {
		return nil, apperr.Validation("shipping_amount and tax_amount must be >= 0")
	}

	o := &Order{
		ID:              uuid.NewString(),
		CustomerID:      req.CustomerID,
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAmount:  req.ShippingAmount.Round(2),
		TaxAmount:       req.TaxAmount.Round(2),
		Currency:        strings.ToLower(strings.TrimSpace(req.Currency)),
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Items:           make([]Item, 0, len(req.Items)),
	}
	if o.Currency == "" {
		o.Currency = "usd"
	}

	subtotal := decimal.Zero
	for i, in := range req.Items {
		if strings.TrimSpace(in.ProductID) == "" {
			return nil, apperr.Validation("items[%d].product_id is required", i)
		}
		if in.Quantity <= 0 {
			return nil, apperr.Validation("items[%d].quantity must be > 0", i)
		}
		if in.PriceAtTime == nil {
			return nil, apperr.Validation("items[%d].price_at_time is required", i)
		}
		if in.PriceAtTime.IsNegative() {
			return nil, apperr.Validation("items[%d].price_at_time must be >= 0", i)
		}
		it := Item{
			ID:                uuid.NewString(),
			OrderID:           o.ID,
			ProductID:         in.ProductID,
			ProviderProductID: in.ProviderProductID,
			VariantID:         in.VariantID,
			ProductName:       in.ProductName,
			ProductImageURL:   in.ProductImageURL,
			Quantity:          in.Quantity,
			PriceAtTime:       in.PriceAtTime.Round(2),
		}
		s.enrich(ctx, &it)
		subtotal = subtotal.Add(it.Subtotal())
		o.Items = append(o.Items, it)
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.ShippingAmount).Add(o.TaxAmount)

	if !req.TotalAmount.Round(2).Equal(o.TotalAmount) {
		return nil, apperr.ValidationCode(CodeTotalMismatch,
			"total_amount %s does not match computed total %s", req.TotalAmount.StringFixed(2), o.TotalAmount.StringFixed(2))
	}

	o.OrderNumber = s.orderNumber()
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	log.Printf("[order] created %s (%s) customer=%s total=%s", o.ID, o.OrderNumber, o.CustomerID, o.TotalAmount.StringFixed(2))
	return o, nil
}

// enrich fills catalog fields the client left blank. The lookup is best
// effort: a product the catalog does not know, or an unreachable product
// service, leaves the line as submitted.
func (s *Service) enrich(ctx context.Context, it *Item) {
	if s.products == nil || (it.ProviderProductID != "" && it.ProductName != "") {
		return
	}
	p, err := s.products.FetchProduct(ctx, it.ProductID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Printf("[order] product %s not in catalog, keeping line as submitted", it.ProductID)
		return
	}
	if err != nil {
		log.Printf("[order] product lookup %s: %v", it.ProductID, err)
		return
	}
	if it.ProductName == "" {
		it.ProductName = p.Name
	}
	if it.ProductImageURL == "" {
		it.ProductImageURL = p.ImageURL
	}
	if it.ProviderProductID == "" && p.Source != "" && p.Source != "local" {
		it.ProviderProductID = p.ExternalID
	}
}

func (s *Service) orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("LH-%s-%s", s.now().UTC().Format("060102150405"), suffix)
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("order", id)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPaymentIntent(ctx context.Context, intentID string) (*Order, error) {
	if intentID == "" {
		return nil, apperr.Validation("payment intent id is required")
	}
	return s.repo.GetByPaymentIntent(ctx, intentID)
}

// GetByProviderOrder finds the order a provider knows as providerOrderID.
func (s *Service) GetByProviderOrder(ctx context.Context, provider, providerOrderID string) (*Order, error) {
	if provider == "" || providerOrderID == "" {
		return nil, apperr.Validation("provider and provider order id are required")
	}
	return s.repo.GetByProviderOrder(ctx, provider, providerOrderID)
}

func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	if orderNumber == "" {
		return nil, apperr.Validation("order number is required")
	}
	return s.repo.GetByNumber(ctx, orderNumber)
}

func (s *Service) List(ctx context.Context, f Filter) (*ListResult, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Orders: orders,
		Pagination: Pagination{
			Limit:   f.Limit,
			Offset:  f.Offset,
			Total:   total,
			HasMore: f.Offset+len(orders) < total,
		},
	}, nil
}

// Mutate reads the order, lets fn derive a change from the current state and
// writes it guarded by the version that was read. An empty change returns the
// order untouched. A concurrent writer surfaces as apperr.ErrVersionConflict.
func (s *Service) Mutate(ctx context.Context, id string, fn func(o *Order) (Change, error)) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ch, err := fn(o)
	if err != nil {
		return nil, err
	}
	if ch.Empty() {
		return o, nil
	}
	return s.repo.Update(ctx, id, o.Version, ch)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	return s.Update(ctx, id, &to, nil)
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, to PaymentStatus) (*Order, error) {
	return s.Update(ctx, id, nil, &to)
}

// Update moves either or both axes in a single write. Each requested move is
// checked against its state machine before anything is persisted.
func (s *Service) Update(ctx context.Context, id string, status *Status, payment *PaymentStatus) (*Order, error) {
	if status == nil && payment == nil {
		return nil, apperr.Validation("status or payment_status is required")
	}
	if status != nil && !status.Valid() {
		return nil, apperr.Validation("unknown status %q", *status)
	}
	if payment != nil && !payment.Valid() {
		return nil, apperr.Validation("unknown payment_status %q", *payment)
	}

	o, err := s.Mutate(ctx, id, func(o *Order) (Change, error) {
		var ch Change
		if status != nil {
			if err := CheckTransition(o.Status, *status); err != nil {
				return ch, err
			}
			if *status != o.Status {
				ch.Status = status
			}
		}
		if payment != nil {
			if err := CheckPaymentTransition(o.PaymentStatus, *payment); err != nil {
				return ch, err
			}
			if *payment != o.PaymentStatus {
				ch.PaymentStatus = payment
			}
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[order] %s now status=%s payment_status=%s (v%d)", o.ID, o.Status, o.PaymentStatus, o.Version)
	return o, nil
}
