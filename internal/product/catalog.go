package product

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
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Cache is the subset of cache.Store the catalogue needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Catalog struct {
	repo      Repository
	providers *provider.Registry
	cache     Cache
	cacheTTL  time.Duration
	margin    decimal.Decimal
}

func NewCatalog(repo Repository, providers *provider.Registry) *Catalog {
	return &Catalog{repo: repo, providers: providers, margin: DefaultMargin}
}

// WithCache enables caching of real (non-simulated) search pages.
func (c *Catalog) WithCache(cache Cache, ttl time.Duration) *Catalog {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

func (c *Catalog) WithMargin(m decimal.Decimal) *Catalog {
	if m.IsPositive() {
		c.margin = m
	}
	return c
}

func (c *Catalog) Margin() decimal.Decimal { return c.margin }

// FetchProducts searches a provider's catalogue. Provider failures and
// missing credentials fall back to the sample catalogue; the page is then
// flagged simulated and carries the reason. Only an unknown provider name
// is an error.
func (c *Catalog) FetchProducts(ctx context.Context, providerName string, q provider.Query) (*SearchPage, error) {
	p, err := c.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	q.Limit = min(q.Limit, MaxSearchLimit)

	if !p.Configured() {
		return c.simulated(p.Name(), q, fmt.Sprintf("%s credentials are not configured", p.Name())), nil
	}

	key := cacheKey(p.Name(), q)
	if c.cache != nil {
		var cached SearchPage
		hit, err := c.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Printf("[catalog] cache read %s: %v", key, err)
		} else if hit {
			return &cached, nil
		}
	}

	res, err := p.SearchProducts(ctx, q)
	if err != nil {
		log.Printf("[catalog] %s search %q failed, serving sample catalogue: %v", p.Name(), q.Keyword, err)
		return c.simulated(p.Name(), q, err.Error()), nil
	}
	page := c.toSearchPage(p.Name(), res)

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.SetJSON(ctx, key, page, c.cacheTTL); err != nil {
			log.Printf("[catalog] cache write %s: %v", key, err)
		}
	}
	return page, nil
}

func (c *Catalog) simulated(name string, q provider.Query, reason string) *SearchPage {
	page := c.toSearchPage(name, provider.MockPage(name, q))
	page.Simulated = true
	page.Error = reason
	return page
}

func (c *Catalog) toSearchPage(name string, res *provider.Page) *SearchPage {
	page := &SearchPage{
		Provider: name,
		Products: make([]SearchResult, 0, len(res.Products)),
		Total:    res.Total,
		Page:     res.Page,
		Limit:    res.Limit,
	}
	for _, p := range res.Products {
		price, err := Price(p.Cost, c.margin)
		if err != nil {
			// negative supplier cost; leave the suggestion empty
			price = decimal.Zero
		}
		page.Products = append(page.Products, SearchResult{
			ExternalID:     p.ExternalID,
			VariantID:      p.VariantID,
			Name:           p.Name,
			Description:    p.Description,
			Category:       p.Category,
			ImageURL:       p.ImageURL,
			SKU:            p.SKU,
			Cost:           p.Cost,
			SuggestedPrice: price,
			Stock:          p.Stock,
		})
	}
	return page
}

func cacheKey(name string, q provider.Query) string {
	return fmt.Sprintf("search:%s:%s:%s:%d:%d",
		name, strings.ToLower(q.Keyword), strings.ToLower(q.Category), q.Page, q.Limit)
}

// Import stores one provider product with a sale price derived from its
// cost. Importing the same (provider, external id) twice yields a
// Duplicate error whose Ref is the existing product id.
func (c *Catalog) Import(ctx context.Context, req ImportRequest) (*Product, error) {
	src, err := c.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.ExternalID == "":
		return nil, apperr.Validation("external_id is required")
	case req.Name == "":
		return nil, apperr.Validation("name is required")
	case req.Stock < 0:
		return nil, apperr.Validation("stock must not be negative")
	}
	margin := c.margin
	if req.ProfitMargin != nil {
		margin = *req.ProfitMargin
	}
	price, err := Price(req.Cost, margin)
	if err != nil {
		return nil, err
	}

	source := src.Name()
	if existing, err := c.repo.GetBySourceExternal(ctx, source, req.ExternalID); err == nil {
		return nil, duplicate(source, req.ExternalID, existing.ID)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	p := &Product{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		Category:          category(req.Category),
		Price:             price,
		CostPrice:         req.Cost.Round(2),
		Stock:             req.Stock,
		ImageURL:          req.ImageURL,
		SKU:               req.SKU,
		IsActive:          true,
		Source:            source,
		ExternalID:        req.ExternalID,
		ExternalVariantID: req.VariantID,
	}
	if err := c.repo.Create(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			// lost a race with a concurrent import
			ref := ""
			if existing, lerr := c.repo.GetBySourceExternal(ctx, source, req.ExternalID); lerr == nil {
				ref = existing.ID
			}
			return nil, duplicate(source, req.ExternalID, ref)
		}
		return nil, err
	}
	log.Printf("[catalog] imported %s/%s as %s price=%s", source, p.ExternalID, p.ID, p.Price)
	return p, nil
}

func duplicate(source, externalID, ref string) error {
	return apperr.Duplicate(fmt.Sprintf("product %s/%s is already imported", source, externalID), ref)
}

func category(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return "other"
	}
	return c
}
