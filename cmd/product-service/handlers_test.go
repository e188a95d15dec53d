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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/cache"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/health"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/httpx"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/platform/platformtest"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product/producttest"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}

//
// ===== FAKES =====
//

// fakeProvider serves a fixed catalogue.
type fakeProvider struct {
	name       string
	configured bool
	catalogue  []provider.Product

	mu       sync.Mutex
	searches int
}

func newFakeProvider(name string, n int, configured bool) *fakeProvider {
	f := &fakeProvider{name: name, configured: configured}
	for i := 1; i <= n; i++ {
		f.catalogue = append(f.catalogue, provider.Product{
			ExternalID: fmt.Sprintf("%s-%d", name, i),
			Name:       fmt.Sprintf("Cashmere wrap %d", i),
			Category:   "accessories",
			Cost:       decimal.NewFromInt(int64(10 * i)),
			Stock:      i,
			Source:     name,
		})
	}
	return f
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) SearchProducts(_ context.Context, q provider.Query) (*provider.Page, error) {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()
	start := min((q.Page-1)*q.Limit, len(f.catalogue))
	end := min(start+q.Limit, len(f.catalogue))
	return &provider.Page{
		Products: append([]provider.Product{}, f.catalogue[start:end]...),
		Total:    len(f.catalogue),
		Page:     q.Page,
		Limit:    q.Limit,
	}, nil
}

func (f *fakeProvider) GetProduct(_ context.Context, id string) (*provider.Product, error) {
	return nil, apperr.NotFound("product", id)
}

func (f *fakeProvider) CreateOrder(context.Context, provider.OrderRequest) (*provider.OrderRef, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeProvider) CancelOrder(context.Context, string, string) error {
	return fmt.Errorf("not used")
}

func (f *fakeProvider) OrderStatus(context.Context, string) (*provider.OrderStatus, error) {
	return nil, fmt.Errorf("not used")
}

//
// ===== ROUTER =====
//

type testEnv struct {
	repo      *producttest.Repo
	settings  *platformtest.Repo
	store     *cache.Store
	cj        *fakeProvider
	platforms *platform.Service
	router    *gin.Engine
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		repo:     producttest.NewRepo(),
		settings: platformtest.NewRepo(),
		store:    cache.New(rdb, "test:"),
		cj:       newFakeProvider(provider.CJ, 5, true),
	}
	registry := provider.NewRegistry(env.cj, newFakeProvider(provider.Zendrop, 3, false))
	env.platforms = platform.NewService(env.settings, registry, platform.Local)
	catalog := product.NewCatalog(env.repo, registry).WithCache(env.store, time.Minute)
	syncer := product.NewSyncer(env.repo, registry, env.store, env.platforms, product.SyncOptions{PageSize: 2, Concurrency: 2})

	env.router = newRouter(services{
		products:  env.repo,
		catalog:   catalog,
		syncer:    syncer,
		platforms: env.platforms,
		health:    health.New("product-service", nil),
		upgrader:  newUpgrader(nil),
	}, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) activate(t *testing.T, name string) {
	t.Helper()
	_, err := e.platforms.SetActive(context.Background(), name)
	require.NoError(t, err)
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) httpx.ErrorDetail {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

const importBody = `{"provider":"cj","external_id":"US0012345678","name":"Air Compression Hand Massager","cost":"24.99","stock":225}`

//
// ===== TESTS =====
//

// /products lists local products only and never calls a provider.
func TestListProducts_PaginationAndSource(t *testing.T) {
	env := newEnv(t)
	for i := 1; i <= 3; i++ {
		require.NoError(t, env.repo.Create(context.Background(), &product.Product{
			ID: uuid.NewString(), Name: fmt.Sprintf("Prod %d", i), Price: decimal.NewFromInt(10), Source: provider.CJ,
			ExternalID: fmt.Sprintf("x%d", i),
		}))
	}
	require.NoError(t, env.repo.Create(context.Background(), &product.Product{
		ID: uuid.NewString(), Name: "House blend", Price: decimal.NewFromInt(5), Source: product.SourceLocal,
	}))

	w := env.do(t, http.MethodGet, "/products?limit=2&offset=1&source=cj", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got product.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Offset)
	for _, p := range got.Items {
		assert.Equal(t, provider.CJ, p.Source)
	}
	assert.Zero(t, env.cj.searches)

	w = env.do(t, http.MethodGet, "/products?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchProducts(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodGet, "/products/search?provider=cj", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without query, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/products/search?query=wrap&provider=cj&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page product.SearchPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.False(t, page.Simulated)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "25", page.Products[0].SuggestedPrice.String())

	// served from cache the second time
	env.do(t, http.MethodGet, "/products/search?query=wrap&provider=cj&limit=2", "")
	assert.Equal(t, 1, env.cj.searches)

	w = env.do(t, http.MethodGet, "/products/search?query=massager&provider=zendrop", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.True(t, page.Simulated)
	assert.NotEmpty(t, page.Error)
	assert.NotEmpty(t, page.Products)

	w = env.do(t, http.MethodGet, "/products/search?query=wrap&provider=aliexpress", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no provider given and the store runs on local products
	w = env.do(t, http.MethodGet, "/products/search?query=wrap", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.activate(t, provider.CJ)
	w = env.do(t, http.MethodGet, "/products/search?query=wrap", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImportProduct(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/products/import", importBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Product product.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "62.48", created.Product.Price.StringFixed(2))
	assert.Equal(t, provider.CJ, created.Product.Source)

	w = env.do(t, http.MethodPost, "/products/import", importBody)
	require.Equal(t, http.StatusConflict, w.Code)
	dup := errorBody(t, w)
	assert.Equal(t, apperr.CodeDuplicate, dup.Code)
	assert.Equal(t, created.Product.ID, dup.Ref)

	for name, body := range map[string]string{
		"invalid json":   `{"provider":`,
		"no external id": `{"provider":"cj","name":"x","cost":"1"}`,
		"zero margin":    `{"provider":"cj","external_id":"e","name":"x","cost":"1","profit_margin":"0"}`,
		"bad provider":   `{"provider":"nope","external_id":"e","name":"x","cost":"1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/products/import", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

// GET /products/:id is what the order service reads checkout lines from.
func TestGetProduct_ServesOrderLookup(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodPost, "/products/import", importBody)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Product product.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	srv := httptest.NewServer(env.router)
	defer srv.Close()
	client := order.NewProductClient(srv.URL, 2*time.Second)

	dto, err := client.FetchProduct(context.Background(), created.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, "62.48", dto.Price)
	assert.Equal(t, "US0012345678", dto.ExternalID)
	assert.Equal(t, provider.CJ, dto.Source)

	_, err = client.FetchProduct(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = client.FetchProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPlatforms(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodGet, "/platforms", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg platform.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, platform.Local, cfg.Platform)
	assert.Equal(t, []string{platform.Local, provider.CJ, provider.Zendrop}, cfg.Available)

	w = env.do(t, http.MethodPut, "/platforms", `{"platform":"Zendrop"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, provider.Zendrop, cfg.Platform)

	w = env.do(t, http.MethodPut, "/platforms", `{"platform":"ebay"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSync(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/platforms/sync", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while local is active, got %d", w.Code)
	}

	env.activate(t, provider.CJ)
	w = env.do(t, http.MethodPost, "/platforms/sync", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res product.SyncResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 5, res.Synced)
	assert.Zero(t, res.Errors)
	assert.Equal(t, 5, env.repo.Len())

	w = env.do(t, http.MethodGet, "/platforms/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st platform.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, provider.CJ, st.ActivePlatform)
	require.Len(t, st.Platforms, 2)
	assert.Equal(t, "active", st.Platforms[0].Status)
	require.NotNil(t, st.Platforms[0].LastSync)
	assert.Equal(t, 5, st.Platforms[0].LastSync.Synced)
	assert.Equal(t, "not_configured", st.Platforms[1].Status)

	// unconfigured provider cannot be synced
	env.activate(t, provider.Zendrop)
	w = env.do(t, http.MethodPost, "/platforms/sync", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSync_AlreadyRunning(t *testing.T) {
	env := newEnv(t)
	env.activate(t, provider.CJ)

	release, ok, err := env.store.AcquireLock(context.Background(), "sync:"+provider.CJ, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	w := env.do(t, http.MethodPost, "/platforms/sync", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, product.CodeSyncInProgress, errorBody(t, w).Code)

	release()
	w = env.do(t, http.MethodPost, "/platforms/sync", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSyncStream(t *testing.T) {
	env := newEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/platforms/sync/stream"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.activate(t, provider.CJ)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var events []product.Event
	for {
		var ev product.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		events = append(events, ev)
		if ev.Type == product.EventCompleted || ev.Type == product.EventAborted {
			break
		}
	}
	require.NotEmpty(t, events)
	assert.Equal(t, product.EventStarted, events[0].Type)
	last := events[len(events)-1]
	require.Equal(t, product.EventCompleted, last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, 5, last.Result.Synced)

	synced := 0
	for _, ev := range events {
		if ev.Type == product.EventProductSynced {
			synced++
		}
	}
	assert.Equal(t, 5, synced)
}

func TestHealthz(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
