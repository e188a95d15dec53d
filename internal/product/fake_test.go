package product_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

func init() { log.SetOutput(io.Discard) }

// fakeProvider serves a fixed catalogue split into pages.
type fakeProvider struct {
	name       string
	configured bool
	catalogue  []provider.Product
	searchErr  map[int]error // by page

	mu       sync.Mutex
	searches []provider.Query
}

func newFakeProvider(name string, n int) *fakeProvider {
	f := &fakeProvider{name: name, configured: true, searchErr: map[int]error{}}
	for i := 1; i <= n; i++ {
		f.catalogue = append(f.catalogue, provider.Product{
			ExternalID: fmt.Sprintf("p%d", i),
			Name:       fmt.Sprintf("Product %d", i),
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
	f.searches = append(f.searches, q)
	f.mu.Unlock()
	if err := f.searchErr[q.Page]; err != nil {
		return nil, err
	}
	start := min((q.Page-1)*q.Limit, len(f.catalogue))
	end := min(start+q.Limit, len(f.catalogue))
	return &provider.Page{
		Products: append([]provider.Product{}, f.catalogue[start:end]...),
		Total:    len(f.catalogue),
		Page:     q.Page,
		Limit:    q.Limit,
	}, nil
}

func (f *fakeProvider) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeProvider) GetProduct(context.Context, string) (*provider.Product, error) {
	return nil, fmt.Errorf("not used")
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
