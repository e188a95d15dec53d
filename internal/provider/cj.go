package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCJBaseURL = "https://api.cjdropshipping.com"

type CJClient struct {
	appKey    string
	secretKey string
	http      *httpClient
	now       func() time.Time
}

func NewCJ(baseURL, appKey, secretKey string, opts Options) *CJClient {
	if baseURL == "" {
		baseURL = DefaultCJBaseURL
	}
	c := &CJClient{appKey: appKey, secretKey: secretKey, now: time.Now}
	c.http = newHTTPClient(CJ, baseURL, opts, c.sign)
	return c
}

func (c *CJClient) Name() string     { return CJ }
func (c *CJClient) Configured() bool { return c.appKey != "" && c.secretKey != "" }

// Sign returns the md5 request signature for a millisecond timestamp.
func (c *CJClient) Sign(timestamp int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("appKey=%s&timestamp=%d&secret=%s", c.appKey, timestamp, c.secretKey)))
	return hex.EncodeToString(sum[:])
}

func (c *CJClient) sign(h http.Header) {
	if !c.Configured() {
		return
	}
	ts := c.now().UnixMilli()
	h.Set("X-App-Key", c.appKey)
	h.Set("X-Sign", c.Sign(ts))
	h.Set("X-Timestamp", strconv.FormatInt(ts, 10))
}

type cjEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call posts body to path and unwraps the {success, data} envelope.
func (c *CJClient) call(ctx context.Context, path string, body, out any) error {
	var env cjEnvelope
	if err := c.http.do(ctx, http.MethodPost, path, nil, body, &env); err != nil {
		return err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return c.http.rejected("%s: %s", path, msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return c.http.rejected("%s: decode data: %v", path, err)
	}
	return nil
}

type cjVariant struct {
	VariantID flexID          `json:"variantId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
}

type cjProduct struct {
	ProductID       flexID          `json:"productId"`
	ProductTitle    string          `json:"productTitle"`
	Price           decimal.Decimal `json:"price"`
	ProductImageURL string          `json:"productImageUrl"`
	Description     string          `json:"description"`
	CategoryName    string          `json:"categoryName"`
	Inventory       int             `json:"inventory"`
	Variants        []cjVariant     `json:"variants"`
}

func (p cjProduct) toProduct() Product {
	out := Product{
		ExternalID:  string(p.ProductID),
		Name:        p.ProductTitle,
		Description: p.Description,
		Category:    p.CategoryName,
		ImageURL:    p.ProductImageURL,
		Cost:        p.Price,
		Stock:       p.Inventory,
		Source:      CJ,
	}
	if len(p.Variants) > 0 {
		out.VariantID = string(p.Variants[0].VariantID)
		out.SKU = p.Variants[0].SKU
	}
	return out
}

func (c *CJClient) SearchProducts(ctx context.Context, q Query) (*Page, error) {
	var data struct {
		Products []cjProduct `json:"products"`
		Total    int         `json:"total"`
	}
	body := map[string]any{"page": q.Page, "limit": q.Limit}
	if q.Keyword != "" {
		body["keyword"] = q.Keyword
	}
	if q.Category != "" {
		body["categoryId"] = q.Category
	}
	if err := c.call(ctx, "/product/list", body, &data); err != nil {
		return nil, err
	}
	page := &Page{Products: make([]Product, 0, len(data.Products)), Total: data.Total, Page: q.Page, Limit: q.Limit}
	for _, p := range data.Products {
		page.Products = append(page.Products, p.toProduct())
	}
	return page, nil
}

func (c *CJClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p cjProduct
	if err := c.call(ctx, "/product/detail", map[string]string{"productId": id}, &p); err != nil {
		return nil, err
	}
	out := p.toProduct()
	return &out, nil
}

func (c *CJClient) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error) {
	type item struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId,omitempty"`
		Quantity  int    `json:"quantity"`
		SKU       string `json:"sku,omitempty"`
	}
	items := make([]item, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, item{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity, SKU: l.SKU})
	}
	body := map[string]any{
		"orderNumber": req.Reference,
		"items":       items,
		"shippingAddress": map[string]string{
			"firstName": req.Address.FirstName,
			"lastName":  req.Address.LastName,
			"address":   req.Address.Address1,
			"city":      req.Address.City,
			"state":     req.Address.State,
			"zipCode":   req.Address.Zip,
			"country":   req.Address.Country,
		},
		"customerEmail": req.Email,
		"customerPhone": req.Phone,
	}
	var data struct {
		OrderID flexID `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := c.call(ctx, "/order/create", body, &data); err != nil {
		return nil, err
	}
	if data.OrderID == "" {
		return nil, c.http.rejected("/order/create: no order id returned")
	}
	return &OrderRef{ID: string(data.OrderID), Status: data.Status}, nil
}

func (c *CJClient) CancelOrder(ctx context.Context, providerOrderID, reason string) error {
	return c.call(ctx, "/order/cancel", map[string]string{"orderId": providerOrderID, "reason": reason}, nil)
}

func (c *CJClient) OrderStatus(ctx context.Context, providerOrderID string) (*OrderStatus, error) {
	var data struct {
		Status          string `json:"status"`
		TrackingNumber  string `json:"trackingNumber"`
		ShippingCarrier string `json:"shippingCarrier"`
	}
	if err := c.call(ctx, "/order/status", map[string]string{"orderId": providerOrderID}, &data); err != nil {
		return nil, err
	}
	return newOrderStatus(data.Status, data.TrackingNumber, data.ShippingCarrier), nil
}
