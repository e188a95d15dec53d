// Package producttest provides an in-memory product.Repository.
package producttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
)

type Repo struct {
	mu       sync.Mutex
	products map[string]*product.Product
	clock    time.Time

	// FailUpsert maps an external id to the error its upsert returns.
	FailUpsert map[string]error
	// OnUpsert runs before every upsert.
	OnUpsert func(p *product.Product)
	Upserts  int
}

func NewRepo() *Repo {
	return &Repo{
		products:   map[string]*product.Product{},
		clock:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FailUpsert: map[string]error{},
	}
}

func (r *Repo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *Repo) bySource(source, externalID string) *product.Product {
	for _, p := range r.products {
		if p.Source == source && p.ExternalID == externalID && externalID != "" {
			return p
		}
	}
	return nil
}

func (r *Repo) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; ok || r.bySource(p.Source, p.ExternalID) != nil {
		return apperr.Duplicate("product already exists", "")
	}
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *Repo) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

func (r *Repo) GetBySourceExternal(_ context.Context, source, externalID string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.bySource(source, externalID)
	if p == nil {
		return nil, apperr.NotFound("product", source+"/"+externalID)
	}
	cp := *p
	return &cp, nil
}

func (r *Repo) List(_ context.Context, q product.Query) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []product.Product{}
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	for _, p := range r.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), needle) {
			continue
		}
		if q.Source != "" && p.Source != q.Source {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	start := min(max(q.Offset, 0), len(out))
	end := min(start+limit, len(out))
	return out[start:end], nil
}

func (r *Repo) Upsert(_ context.Context, p *product.Product) (bool, error) {
	if r.OnUpsert != nil {
		r.OnUpsert(p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Upserts++
	if err, ok := r.FailUpsert[p.ExternalID]; ok {
		return false, err
	}
	if cur := r.bySource(p.Source, p.ExternalID); cur != nil {
		price := cur.Price
		id, created := cur.ID, cur.CreatedAt
		*cur = *p
		cur.ID, cur.Price, cur.CreatedAt = id, price, created
		cur.UpdatedAt = r.tick()
		p.ID, p.Price, p.CreatedAt, p.UpdatedAt = cur.ID, cur.Price, cur.CreatedAt, cur.UpdatedAt
		return false, nil
	}
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.products[p.ID] = &cp
	return true, nil
}

// Len reports how many products are stored.
func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}
