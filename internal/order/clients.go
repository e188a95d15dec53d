package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

// ProductDTO is the subset of the product service's product the order
// service copies onto checkout lines.
type ProductDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	Price      string `json:"price"`
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
	IsActive   bool   `json:"is_active"`
}

type ProductLookup interface {
	FetchProduct(ctx context.Context, id string) (*ProductDTO, error)
}

// ProductClient reads products from the product service over HTTP.
type ProductClient struct {
	HTTP    *http.Client
	BaseURL string
}

func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return &ProductClient{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: baseURL,
	}
}

func (c *ProductClient) FetchProduct(ctx context.Context, id string) (*ProductDTO, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/%s", c.BaseURL, url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		code := apperr.CodeUpstreamUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = apperr.CodeUpstreamTimeout
		}
		return nil, apperr.Upstream(code, "product-service", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFound("product", id)
	case res.StatusCode != http.StatusOK:
		return nil, apperr.Upstream(apperr.CodeUpstreamUnavailable, "product-service", fmt.Errorf("status %s", res.Status))
	}

	var body struct {
		Product ProductDTO `json:"product"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, apperr.Upstream(apperr.CodeUpstreamRejected, "product-service", err)
	}
	return &body.Product, nil
}
