package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

const DefaultZendropBaseURL = "https://api.zendrop.com/v2"

type ZendropClient struct {
	apiKey string
	http   *httpClient
}

func NewZendrop(baseURL, apiKey string, opts Options) *ZendropClient {
	if baseURL == "" {
		baseURL = DefaultZendropBaseURL
	}
	c := &ZendropClient{apiKey: apiKey}
	c.http = newHTTPClient(Zendrop, baseURL, opts, bearer(apiKey))
	return c
}

func bearer(key string) func(http.Header) {
	return func(h http.Header) {
		if key != "" {
			h.Set("Authorization", "Bearer "+key)
		}
	}
}

func (c *ZendropClient) Name() string     { return Zendrop }
func (c *ZendropClient) Configured() bool { return c.apiKey != "" }

type zendropVariant struct {
	ID        flexID          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	SKU       string          `json:"sku"`
	Inventory int             `json:"inventory"`
}

type zendropProduct struct {
	ID          flexID           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Images      []string         `json:"images"`
	Inventory   int              `json:"inventory"`
	Category    string           `json:"category"`
	SKU         string           `json:"sku"`
	Variants    []zendropVariant `json:"variants"`
}

func (p zendropProduct) toProduct() Product {
	out := Product{
		ExternalID:  string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    firstImage(p.Images),
		SKU:         p.SKU,
		Cost:        p.Price,
		Stock:       p.Inventory,
		Source:      Zendrop,
	}
	if len(p.Variants) > 0 {
		out.VariantID = string(p.Variants[0].ID)
	}
	return out
}

type zendropOrder struct {
	ID             flexID `json:"id"`
	OrderNumber    string `json:"order_number"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

func (c *ZendropClient) SearchProducts(ctx context.Context, q Query) (*Page, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.Limit))
	if q.Keyword != "" {
		v.Set("search", q.Keyword)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	var res struct {
		Data       []zendropProduct `json:"data"`
		Pagination struct {
			Page    int `json:"page"`
			PerPage int `json:"per_page"`
			Total   int `json:"total"`
		} `json:"pagination"`
	}
	if err := c.http.do(ctx, http.MethodGet, "/products", v, nil, &res); err != nil {
		return nil, err
	}
	page := &Page{Products: make([]Product, 0, len(res.Data)), Total: res.Pagination.Total, Page: q.Page, Limit: q.Limit}
	for _, p := range res.Data {
		page.Products = append(page.Products, p.toProduct())
	}
	return page, nil
}

func (c *ZendropClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p zendropProduct
	if err := c.http.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	out := p.toProduct()
	return &out, nil
}

func (c *ZendropClient) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error) {
	type item struct {
		ProductID string `json:"product_id"`
		VariantID string `json:"variant_id,omitempty"`
		Quantity  int    `json:"quantity"`
	}
	items := make([]item, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, item{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}
	body := map[string]any{
		"items": items,
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
		"customer_email": req.Email,
		"notes":          req.Reference,
	}
	var o zendropOrder
	if err := c.http.do(ctx, http.MethodPost, "/orders", nil, body, &o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		return nil, c.http.rejected("/orders: no order id returned")
	}
	return &OrderRef{ID: string(o.ID), Status: o.Status}, nil
}

func (c *ZendropClient) CancelOrder(ctx context.Context, providerOrderID, reason string) error {
	return c.http.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(providerOrderID)+"/cancel", nil,
		map[string]string{"reason": reason}, nil)
}

func (c *ZendropClient) OrderStatus(ctx context.Context, providerOrderID string) (*OrderStatus, error) {
	var o zendropOrder
	if err := c.http.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(providerOrderID), nil, nil, &o); err != nil {
		return nil, err
	}
	return newOrderStatus(o.Status, o.TrackingNumber, o.Carrier), nil
}
