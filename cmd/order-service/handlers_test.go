package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/customer"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/fulfillment"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/health"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/httpx"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order/ordertest"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/payment"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform/platformtest"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}

//
// ---------- STUBS & FAKES ----------
//

// fakeGateway stands in for Stripe.
type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*payment.Intent
	err     error
}

func (g *fakeGateway) Retrieve(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	in, ok := g.intents[id]
	if !ok {
		return nil, apperr.NotFound("payment intent", id)
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in := &payment.Intent{
		ID:           "pi_" + req.OrderNumber,
		Status:       payment.IntentRequiresPaymentMethod,
		ClientSecret: "secret_" + req.OrderNumber,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Metadata:     map[string]string{"order_id": req.OrderID},
	}
	g.intents[in.ID] = in
	return in, nil
}

type countingNotifier struct {
	mu   sync.Mutex
	sent int
}

func (n *countingNotifier) OrderPaid(context.Context, *order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

// fakeProvider accepts every order and reports a fixed status.
type fakeProvider struct {
	mu        sync.Mutex
	created   int
	cancelled []string
	status    string
}

func (f *fakeProvider) Name() string     { return provider.CJ }
func (f *fakeProvider) Configured() bool { return true }

func (f *fakeProvider) SearchProducts(context.Context, provider.Query) (*provider.Page, error) {
	return &provider.Page{}, nil
}

func (f *fakeProvider) GetProduct(_ context.Context, id string) (*provider.Product, error) {
	return nil, apperr.NotFound("product", id)
}

func (f *fakeProvider) CreateOrder(context.Context, provider.OrderRequest) (*provider.OrderRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return &provider.OrderRef{ID: fmt.Sprintf("CJO-%d", f.created), Status: "PENDING"}, nil
}

func (f *fakeProvider) CancelOrder(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeProvider) OrderStatus(context.Context, string) (*provider.OrderStatus, error) {
	st, _ := provider.MapStatus(f.status)
	return &provider.OrderStatus{Raw: f.status, Status: st, TrackingNumber: "1Z999"}, nil
}

// customerRepo implements customer.Repository in memory.
type customerRepo struct {
	mu    sync.Mutex
	items map[string]customer.Customer
}

func (r *customerRepo) Create(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.Email == c.Email {
			return apperr.Duplicate("customer already exists", "")
		}
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	r.items[c.ID] = *c
	return nil
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("customer", id)
	}
	return &c, nil
}

func (r *customerRepo) GetByEmail(_ context.Context, email string) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("customer", email)
}

// productState is what the fake product service returns for one id.
type productState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	Price      string `json:"price"`
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
	IsActive   bool   `json:"is_active"`
}

func newProductServer(t *testing.T, p productState) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) != p.ID {
			http.Error(w, `{"error":{"code":"NOT_FOUND"}}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"product": p})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const cjPushSecret = "cj_push_test"

type testEnv struct {
	repo      *ordertest.Repo
	gw        *fakeGateway
	prov      *fakeProvider
	mail      *countingNotifier
	platforms *platform.Service
	router    *gin.Engine
}

func newEnv(t *testing.T, productURL string) *testEnv {
	t.Helper()
	env := &testEnv{
		repo: ordertest.NewRepo(),
		gw:   &fakeGateway{intents: map[string]*payment.Intent{}},
		prov: &fakeProvider{status: "SHIPPED"},
		mail: &countingNotifier{},
	}
	orders := order.NewService(env.repo)
	if productURL != "" {
		orders = orders.WithProducts(order.NewProductClient(productURL, 2*time.Second))
	}
	confirmer := payment.NewConfirmer(orders, env.gw, env.mail).
		WithBackoff(func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1) })

	registry := provider.NewRegistry(env.prov)
	env.platforms = platform.NewService(platformtest.NewRepo(), registry, provider.CJ)
	ful := fulfillment.New(orders, registry, env.platforms)

	env.router = newRouter(services{
		orders:      orders,
		confirmer:   confirmer,
		webhook:     payment.NewWebhook("whsec_test", confirmer, orders),
		fulfillment: ful,
		pushes:      fulfillment.NewPushes(ful, map[string]string{provider.CJ: cjPushSecret}),
		customers:   customer.NewService(&customerRepo{items: map[string]customer.Customer{}}),
		health:      health.New("order-service", nil),
	}, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) order.Order {
	t.Helper()
	var body struct {
		Order order.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Order
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

func pendingOrder(id string) order.Order {
	return order.Order{
		ID:            id,
		CustomerID:    "c1",
		CustomerEmail: "ana@example.com",
		OrderNumber:   "LH-250101120000-" + id[:6],
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		Subtotal:      decimal.RequireFromString("59.98"),
		TotalAmount:   decimal.RequireFromString("59.98"),
		Currency:      "usd",
		Items: []order.Item{{
			ID: uuid.NewString(), OrderID: id, ProductID: "p1", ProviderProductID: "CJ-1",
			Quantity: 2, PriceAtTime: decimal.RequireFromString("29.99"),
		}},
	}
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()

	prodID := uuid.NewString()
	psrv := newProductServer(t, productState{
		ID: prodID, Name: "Silk scarf", ImageURL: "https://img.example/scarf.jpg",
		Price: "29.99", Source: "cj", ExternalID: "CJ-77", IsActive: true,
	})
	env := newEnv(t, psrv.URL)

	body := fmt.Sprintf(`{"customer_id":"c1","total_amount":59.98,"items":[{"product_id":%q,"quantity":2,"price_at_time":29.99}]}`, prodID)
	w := env.do(t, http.MethodPost, "/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	o := decodeOrder(t, w)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	assert.Equal(t, "59.98", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Silk scarf", o.Items[0].ProductName)
	assert.Equal(t, "CJ-77", o.Items[0].ProviderProductID)

	stored, err := env.repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)
}

func TestCreateOrder_Validation(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")

	cases := map[string]string{
		"invalid json":   `{"customer_id":`,
		"no customer":    `{"total_amount":10,"items":[{"product_id":"p1","quantity":1,"price_at_time":10}]}`,
		"no items":       `{"customer_id":"c1","total_amount":0,"items":[]}`,
		"zero quantity":  `{"customer_id":"c1","total_amount":0,"items":[{"product_id":"p1","quantity":0,"price_at_time":10}]}`,
		"total mismatch": `{"customer_id":"c1","total_amount":50,"items":[{"product_id":"p1","quantity":2,"price_at_time":29.99}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/orders", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateOrder_UnknownProductKeepsLine(t *testing.T) {
	t.Parallel()
	// The catalog only knows a uuid product; "p1" gets a 404 from it.
	psrv := newProductServer(t, productState{ID: uuid.NewString()})
	env := newEnv(t, psrv.URL)

	body := `{"customer_id":"c1","total_amount":59.98,"items":[{"product_id":"p1","quantity":2,"price_at_time":29.99}]}`
	w := env.do(t, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	o := decodeOrder(t, w)
	assert.Equal(t, "59.98", o.TotalAmount.StringFixed(2))
	assert.Equal(t, order.StatusPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Empty(t, o.Items[0].ProductName)
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")

	w := env.do(t, http.MethodGet, "/orders/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
	assert.Equal(t, apperr.CodeNotFound, errorCode(t, w))
}

func TestGetOrder_OK(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	env.repo.Put(pendingOrder(id))

	w := env.do(t, http.MethodGet, "/orders/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	o := decodeOrder(t, w)
	assert.Equal(t, id, o.ID)
	assert.Len(t, o.Items, 1)
}

func TestListOrders_FilterAndPaginate(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	for range 3 {
		env.repo.Put(pendingOrder(uuid.NewString()))
	}
	paid := pendingOrder(uuid.NewString())
	paid.Status, paid.PaymentStatus = order.StatusPaid, order.PaymentPaid
	env.repo.Put(paid)

	w := env.do(t, http.MethodGet, "/orders?status=pending&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res order.ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res.Orders, 2)
	assert.Equal(t, 3, res.Pagination.Total)
	assert.True(t, res.Pagination.HasMore)
	assert.True(t, !res.Orders[0].CreatedAt.Before(res.Orders[1].CreatedAt))

	w = env.do(t, http.MethodGet, "/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrder(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	o := pendingOrder(id)
	o.Status = order.StatusDelivered
	o.PaymentStatus = order.PaymentPaid
	env.repo.Put(o)

	w := env.do(t, http.MethodPut, "/orders", map[string]string{"orderId": id, "status": "pending"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	assert.Equal(t, apperr.CodeInvalidTransition, errorCode(t, w))

	w = env.do(t, http.MethodPut, "/orders", map[string]string{"orderId": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPut, "/orders", map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/orders", map[string]string{"orderId": id, "payment_status": "refunded"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, order.PaymentRefunded, decodeOrder(t, w).PaymentStatus)
}

func TestPaymentIntentAndConfirm_Idempotent(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	env.repo.Put(pendingOrder(id))

	w := env.do(t, http.MethodPost, "/payment/intent", map[string]string{"orderId": id})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var intent payment.IntentResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))
	assert.NotEmpty(t, intent.ClientSecret)

	env.gw.mu.Lock()
	env.gw.intents[intent.PaymentIntentID].Status = payment.IntentSucceeded
	env.gw.mu.Unlock()

	confirm := map[string]string{"paymentIntentId": intent.PaymentIntentID, "orderId": id}
	for i, replayed := range []bool{false, true} {
		w = env.do(t, http.MethodPost, "/payment/confirm", confirm)
		require.Equal(t, http.StatusOK, w.Code, "call %d: %s", i, w.Body.String())
		var res payment.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, order.StatusPaid, res.OrderStatus)
		assert.Equal(t, payment.IntentSucceeded, res.PaymentStatus)
		assert.Equal(t, replayed, res.Replayed)
	}
	assert.Equal(t, 1, env.mail.count())
}

func TestConfirmPayment_Failures(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	env.repo.Put(pendingOrder(id))

	w := env.do(t, http.MethodPost, "/payment/confirm", map[string]string{"orderId": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/payment/confirm", map[string]string{"paymentIntentId": "pi_x", "orderId": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.gw.mu.Lock()
	env.gw.err = apperr.Upstream(apperr.CodeUpstreamUnavailable, "stripe", fmt.Errorf("503"))
	env.gw.mu.Unlock()
	w = env.do(t, http.MethodPost, "/payment/confirm", map[string]string{"paymentIntentId": "pi_x", "orderId": id})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, apperr.CodeUpstreamUnavailable, errorCode(t, w))

	stored, err := env.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")

	w := env.do(t, http.MethodPost, "/payment/webhook", `{"type":"payment_intent.succeeded"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderOrder_Actions(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	o := pendingOrder(id)
	o.Status, o.PaymentStatus = order.StatusPaid, order.PaymentPaid
	env.repo.Put(o)

	w := env.do(t, http.MethodPost, "/orders/cj-sync", map[string]string{"action": "cancel", "orderId": id})
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409 for unlinked order)", w.Code, w.Body.String())
	}
	assert.Equal(t, apperr.CodeNotLinked, errorCode(t, w))

	w = env.do(t, http.MethodPost, "/orders/cj-sync", map[string]string{"action": "create", "orderId": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var link fulfillment.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "CJO-1", link.ProviderOrderID)
	assert.Equal(t, order.StatusProcessing, link.Order.Status)

	w = env.do(t, http.MethodPost, "/orders/cj-sync", map[string]string{"action": "sync", "orderId": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st fulfillment.StatusSync
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, order.StatusShipped, st.Order.Status)
	assert.Equal(t, "1Z999", st.Order.TrackingNumber)

	w = env.do(t, http.MethodPost, "/orders/cj-sync", map[string]string{"action": "refund", "orderId": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderOrder_FollowsStoredPlatform(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	o := pendingOrder(id)
	o.Status, o.PaymentStatus = order.StatusPaid, order.PaymentPaid
	env.repo.Put(o)

	_, err := env.platforms.SetActive(context.Background(), platform.Local)
	require.NoError(t, err)
	w := env.do(t, http.MethodPost, "/orders/cj-sync", map[string]string{"action": "create", "orderId": id})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Zero(t, env.prov.created)

	w = env.do(t, http.MethodPost, "/orders/cj-sync", map[string]string{"action": "create", "orderId": id, "provider": "cj"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (e *testEnv) push(t *testing.T, providerName, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+providerName, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(fulfillment.SignatureHeader(providerName), signature)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestProviderWebhook(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	id := uuid.NewString()
	o := pendingOrder(id)
	o.Status, o.PaymentStatus = order.StatusProcessing, order.PaymentPaid
	o.Provider, o.ProviderOrderID = provider.CJ, "CJO-42"
	env.repo.Put(o)

	body := `{"type":"order.shipped","data":{"cj_order_id":"CJO-42","tracking_number":"1Z42","carrier":"USPS"}}`

	w := env.push(t, "cj", body, fulfillment.Sign("wrong", []byte(body)))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, fulfillment.CodeBadSignature, errorCode(t, w))

	w = env.push(t, "cj", body, fulfillment.Sign(cjPushSecret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Handled bool                   `json:"handled"`
		Result  fulfillment.PushResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Handled)

	got, err := env.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
	assert.Equal(t, "1Z42", got.TrackingNumber)
	assert.Equal(t, "USPS", got.TrackingCarrier)

	unknown := `{"type":"order.delivered","data":{"cj_order_id":"CJO-NOPE"}}`
	w = env.push(t, "cj", unknown, fulfillment.Sign(cjPushSecret, []byte(unknown)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received":true,"handled":false}`, w.Body.String())

	w = env.push(t, "acme", body, "00")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomers(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")

	req := customer.CreateRequest{Email: "Ana@Example.com", FirstName: "Ana", LastName: "Diaz"}
	w := env.do(t, http.MethodPost, "/customers", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Customer customer.Customer `json:"customer"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "ana@example.com", created.Customer.Email)

	w = env.do(t, http.MethodGet, "/customers/"+created.Customer.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/customers?email=ANA@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/customers", req)
	assert.Equal(t, http.StatusConflict, w.Code)
	var dup httpx.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	assert.Equal(t, created.Customer.ID, dup.Error.Ref)

	w = env.do(t, http.MethodGet, "/customers/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	env := newEnv(t, "")
	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
