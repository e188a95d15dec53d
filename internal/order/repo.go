package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/db"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*Order, error)
	GetByProviderOrder(ctx context.Context, provider, providerOrderID string) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, int, error)
	// Update applies ch only if the stored version still equals version.
	// A mismatch yields apperr.VersionConflict.
	Update(ctx context.Context, id string, version int, ch Change) (*Order, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `id, customer_id, customer_email, order_number, status, payment_status,
    subtotal::text, shipping_amount::text, tax_amount::text, total_amount::text, currency,
    payment_method, payment_intent_id, provider, provider_order_id,
    shipping_address, billing_address, tracking_number, tracking_carrier,
    version, created_at, updated_at`

const itemColumns = `id, order_id, product_id, provider_product_id, variant_id,
    product_name, product_image_url, quantity, price_at_time::text`

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	ship, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return apperr.Validation("shipping_address: %v", err)
	}
	bill, err := marshalAddress(o.BillingAddress)
	if err != nil {
		return apperr.Validation("billing_address: %v", err)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return db.Translate(err, "begin create order", "order", o.ID)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO orders (id, customer_id, customer_email, order_number, status, payment_status,
        subtotal, shipping_amount, tax_amount, total_amount, currency, payment_method,
        shipping_address, billing_address, version, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11,$12,$13,$14,1,NOW(),NOW())
    RETURNING version, created_at, updated_at
  `, o.ID, o.CustomerID, o.CustomerEmail, o.OrderNumber, string(o.Status), string(o.PaymentStatus),
		o.Subtotal.String(), o.ShippingAmount.String(), o.TaxAmount.String(), o.TotalAmount.String(),
		o.Currency, o.PaymentMethod, ship, bill,
	).Scan(&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return db.Translate(err, "insert order", "order", o.ID)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, provider_product_id, variant_id,
          product_name, product_image_url, quantity, price_at_time)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric)
    `, it.ID, o.ID, it.ProductID, it.ProviderProductID, it.VariantID,
			it.ProductName, it.ProductImageURL, it.Quantity, it.PriceAtTime.String()); err != nil {
			return db.Translate(err, "insert order item", "order item", it.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return db.Translate(err, "commit order", "order", o.ID)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.getOne(ctx, id, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *PGRepo) GetByPaymentIntent(ctx context.Context, intentID string) (*Order, error) {
	return r.getOne(ctx, intentID, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id=$1 AND payment_intent_id <> ''`, intentID)
}

func (r *PGRepo) GetByProviderOrder(ctx context.Context, provider, providerOrderID string) (*Order, error) {
	return r.getOne(ctx, providerOrderID, `SELECT `+orderColumns+` FROM orders
        WHERE provider=$1 AND provider_order_id=$2 AND provider_order_id <> ''`, provider, providerOrderID)
}

func (r *PGRepo) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, orderNumber, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber)
}

// getOne loads a single order; key names it in a NotFound error.
func (r *PGRepo) getOne(ctx context.Context, key, query string, args ...any) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.Translate(err, "get order", "order", key)
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	if its, ok := items[o.ID]; ok {
		o.Items = its
	}
	return o, nil
}

const filterClause = `
    WHERE ($1 = '' OR status = $1)
      AND ($2 = '' OR payment_status = $2)
      AND ($3 = '' OR customer_id = $3)
      AND ($4::timestamptz IS NULL OR created_at >= $4)
      AND ($5::timestamptz IS NULL OR created_at < $5)`

func (r *PGRepo) List(ctx context.Context, f Filter) ([]Order, int, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	args := []any{string(f.Status), string(f.PaymentStatus), f.CustomerID, f.DateFrom, f.DateTo}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+filterClause, args...).Scan(&total); err != nil {
		return nil, 0, db.Translate(err, "count orders", "order", "")
	}

	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders`+filterClause+`
    ORDER BY created_at DESC, id DESC
    LIMIT $6 OFFSET $7
  `, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, db.Translate(err, "list orders", "order", "")
	}
	defer rows.Close()

	out := []Order{}
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, db.Translate(err, "scan order", "order", "")
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Translate(err, "list orders", "order", "")
	}
	if len(ids) == 0 {
		return out, total, nil
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if its, ok := items[out[i].ID]; ok {
			out[i].Items = its
		}
	}
	return out, total, nil
}

func (r *PGRepo) Update(ctx context.Context, id string, version int, ch Change) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
    UPDATE orders SET
        status            = COALESCE($3, status),
        payment_status    = COALESCE($4, payment_status),
        payment_intent_id = COALESCE($5, payment_intent_id),
        provider          = COALESCE($6, provider),
        provider_order_id = COALESCE($7, provider_order_id),
        tracking_number   = COALESCE($8, tracking_number),
        tracking_carrier  = COALESCE($9, tracking_carrier),
        version           = version + 1,
        updated_at        = NOW()
    WHERE id = $1 AND version = $2
    RETURNING `+orderColumns,
		id, version, stringPtr(ch.Status), stringPtr(ch.PaymentStatus), ch.PaymentIntentID,
		ch.Provider, ch.ProviderOrderID, ch.TrackingNumber, ch.TrackingCarrier,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
			return nil, db.Translate(err, "check order", "order", id)
		}
		if !exists {
			return nil, apperr.NotFound("order", id)
		}
		return nil, apperr.VersionConflict(id)
	}
	if err != nil {
		return nil, db.Translate(err, "update order", "order", id)
	}

	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	if its, ok := items[o.ID]; ok {
		o.Items = its
	}
	return o, nil
}

func (r *PGRepo) items(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.db.Query(ctx, `
    SELECT `+itemColumns+`
    FROM order_items
    WHERE order_id = ANY($1::uuid[])
    ORDER BY order_id, id
  `, orderIDs)
	if err != nil {
		return nil, db.Translate(err, "get order items", "order item", "")
	}
	defer rows.Close()

	out := make(map[string][]Item, len(orderIDs))
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProviderProductID, &it.VariantID,
			&it.ProductName, &it.ProductImageURL, &it.Quantity, &price); err != nil {
			return nil, db.Translate(err, "scan order item", "order item", "")
		}
		if it.PriceAtTime, err = decimal.NewFromString(price); err != nil {
			return nil, apperr.Persistence("decode price_at_time", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate(err, "get order items", "order item", "")
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                              Order
		status, payStatus              string
		subtotal, shipping, tax, total string
		ship, bill                     []byte
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerEmail, &o.OrderNumber, &status, &payStatus,
		&subtotal, &shipping, &tax, &total, &o.Currency,
		&o.PaymentMethod, &o.PaymentIntentID, &o.Provider, &o.ProviderOrderID,
		&ship, &bill, &o.TrackingNumber, &o.TrackingCarrier,
		&o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = Status(status)
	o.PaymentStatus = PaymentStatus(payStatus)

	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{{&o.Subtotal, subtotal}, {&o.ShippingAmount, shipping}, {&o.TaxAmount, tax}, {&o.TotalAmount, total}}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.src)
		if err != nil {
			return nil, fmt.Errorf("decode amount %q: %w", a.src, err)
		}
		*a.dst = d
	}

	var err error
	if o.ShippingAddress, err = unmarshalAddress(ship); err != nil {
		return nil, err
	}
	if o.BillingAddress, err = unmarshalAddress(bill); err != nil {
		return nil, err
	}
	o.Items = []Item{}
	return &o, nil
}

func marshalAddress(a *Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func unmarshalAddress(b []byte) (*Address, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var a Address
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	return &a, nil
}

func stringPtr[T ~string](p *T) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}
