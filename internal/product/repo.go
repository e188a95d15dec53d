// Package product manages the store's catalogue: products imported from
// dropshipping providers, their sale prices and the full provider sync.
package product

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/db"
)

type Query struct {
	Q      string
	Source string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySourceExternal(ctx context.Context, source, externalID string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	// Upsert inserts p or refreshes the row with the same (source,
	// external_id). An existing sale price is kept. created reports which
	// of the two happened.
	Upsert(ctx context.Context, p *Product) (created bool, err error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productColumns = `id, name, description, category, price::text, cost_price::text, stock,
    image_url, sku, is_active, source, COALESCE(external_id, ''), external_variant_id,
    created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, category, price, cost_price, stock,
		    image_url, sku, is_active, source, external_id, external_variant_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7,$8,$9,$10,$11,NULLIF($12,''),$13,NOW(),NOW())
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.Category, p.Price.String(), p.CostPrice.String(), p.Stock,
		p.ImageURL, p.SKU, p.IsActive, p.Source, p.ExternalID, p.ExternalVariantID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "insert product", "product", p.ID)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if err != nil {
		return nil, db.Translate(err, "get product", "product", id)
	}
	return p, nil
}

func (r *PGRepo) GetBySourceExternal(ctx context.Context, source, externalID string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE source=$1 AND external_id=$2`, source, externalID))
	if err != nil {
		return nil, db.Translate(err, "get product", "product", source+"/"+externalID)
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := max(q.Offset, 0)

	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR source = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, strings.TrimSpace(q.Q), q.Source, limit, offset)
	if err != nil {
		return nil, db.Translate(err, "list products", "product", "")
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, db.Translate(err, "scan product", "product", "")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate(err, "list products", "product", "")
	}
	return out, nil
}

func (r *PGRepo) Upsert(ctx context.Context, p *Product) (bool, error) {
	if p.ExternalID == "" {
		return false, apperr.Validation("external_id is required for upsert")
	}
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var created bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, category, price, cost_price, stock,
		    image_url, sku, is_active, source, external_id, external_variant_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
		ON CONFLICT (source, external_id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    category = EXCLUDED.category,
		    cost_price = EXCLUDED.cost_price,
		    stock = EXCLUDED.stock,
		    image_url = EXCLUDED.image_url,
		    sku = EXCLUDED.sku,
		    is_active = EXCLUDED.is_active,
		    external_variant_id = EXCLUDED.external_variant_id,
		    updated_at = NOW()
		RETURNING id, price::text, created_at, updated_at, (xmax = 0)
	`, p.ID, p.Name, p.Description, p.Category, p.Price.String(), p.CostPrice.String(), p.Stock,
		p.ImageURL, p.SKU, p.IsActive, p.Source, p.ExternalID, p.ExternalVariantID,
	).Scan(&p.ID, scanDecimal{&p.Price}, &p.CreatedAt, &p.UpdatedAt, &created)
	if err != nil {
		return false, db.Translate(err, "upsert product", "product", p.Source+"/"+p.ExternalID)
	}
	return created, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, scanDecimal{&p.Price}, scanDecimal{&p.CostPrice},
		&p.Stock, &p.ImageURL, &p.SKU, &p.IsActive, &p.Source, &p.ExternalID, &p.ExternalVariantID,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanDecimal reads a NUMERIC selected as text.
type scanDecimal struct{ d *decimal.Decimal }

func (s scanDecimal) Scan(src any) error {
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case nil:
		*s.d = decimal.Zero
		return nil
	default:
		return apperr.Validation("unexpected numeric type %T", src)
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return err
	}
	*s.d = d
	return nil
}
