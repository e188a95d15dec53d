package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

const DefaultAppScenicBaseURL = "https://api.appscenic.com/v1"

type AppScenicClient struct {
	apiKey string
	http   *httpClient
}

func NewAppScenic(baseURL, apiKey string, opts Options) *AppScenicClient {
	if baseURL == "" {
		baseURL = DefaultAppScenicBaseURL
	}
	c := &AppScenicClient{apiKey: apiKey}
	c.http = newHTTPClient(AppScenic, baseURL, opts, bearer(apiKey))
	return c
}

func (c *AppScenicClient) Name() string     { return AppScenic }
func (c *AppScenicClient) Configured() bool { return c.apiKey != "" }

type appscenicProduct struct {
	ID          flexID          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Inventory   int             `json:"inventory"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	Variants    []struct {
		ID  flexID `json:"id"`
		SKU string `json:"sku"`
	} `json:"variants"`
}

func (p appscenicProduct) toProduct() Product {
	out := Product{
		ExternalID:  string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    firstImage(p.Images),
		SKU:         p.SKU,
		Cost:        p.Price,
		Stock:       p.Inventory,
		Source:      AppScenic,
	}
	if len(p.Variants) > 0 {
		out.VariantID = string(p.Variants[0].ID)
	}
	return out
}

func (c *AppScenicClient) SearchProducts(ctx context.Context, q Query) (*Page, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Keyword != "" {
		v.Set("search", q.Keyword)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	var res struct {
		Products []appscenicProduct `json:"products"`
		Total    int                `json:"total"`
		Page     int                `json:"page"`
	}
	if err := c.http.do(ctx, http.MethodGet, "/products", v, nil, &res); err != nil {
		return nil, err
	}
	page := &Page{Products: make([]Product, 0, len(res.Products)), Total: res.Total, Page: q.Page, Limit: q.Limit}
	for _, p := range res.Products {
		page.Products = append(page.Products, p.toProduct())
	}
	return page, nil
}

func (c *AppScenicClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p appscenicProduct
	if err := c.http.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	out := p.toProduct()
	return &out, nil
}

func (c *AppScenicClient) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error) {
	type item struct {
		ProductID string `json:"product_id"`
		VariantID string `json:"variant_id,omitempty"`
		SKU       string `json:"sku,omitempty"`
		Quantity  int    `json:"quantity"`
	}
	items := make([]item, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, item{ProductID: l.ProductID, VariantID: l.VariantID, SKU: l.SKU, Quantity: l.Quantity})
	}
	body := map[string]any{
		"order_number": req.Reference,
		"items":        items,
		"shipping_address": map[string]string{
			"first_name": req.Address.FirstName,
			"last_name":  req.Address.LastName,
			"address1":   req.Address.Address1,
			"address2":   req.Address.Address2,
			"city":       req.Address.City,
			"state":      req.Address.State,
			"zip":        req.Address.Zip,
			"country":    req.Address.Country,
			"phone":      req.Address.Phone,
		},
	}
	var o struct {
		ID     flexID `json:"id"`
		Status string `json:"status"`
	}
	if err := c.http.do(ctx, http.MethodPost, "/orders", nil, body, &o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		return nil, c.http.rejected("/orders: no order id returned")
	}
	return &OrderRef{ID: string(o.ID), Status: o.Status}, nil
}

// CancelOrder is not offered by the AppScenic API; cancellations go through
// their dashboard.
func (c *AppScenicClient) CancelOrder(context.Context, string, string) error {
	return apperr.Upstream(apperr.CodeUpstreamRejected, AppScenic, errors.New("order cancellation is not supported"))
}

func (c *AppScenicClient) OrderStatus(ctx context.Context, providerOrderID string) (*OrderStatus, error) {
	var o struct {
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
		Carrier        string `json:"carrier"`
	}
	if err := c.http.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(providerOrderID), nil, nil, &o); err != nil {
		return nil, err
	}
	return newOrderStatus(o.Status, o.TrackingNumber, o.Carrier), nil
}
