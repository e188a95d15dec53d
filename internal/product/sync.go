package product

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const CodeSyncInProgress = "SYNC_IN_PROGRESS"

const (
	defaultPageSize    = 50
	defaultConcurrency = 4
	lockTTL            = 30 * time.Minute
	// upper bound on pages fetched in one run
	maxPages = 2000
)

type EventType string

const (
	EventStarted       EventType = "started"
	EventProductSynced EventType = "product_synced"
	EventError         EventType = "error"
	EventCompleted     EventType = "completed"
	EventAborted       EventType = "aborted"
)

// Event is one entry of the sync progress stream.
type Event struct {
	Type      EventType   `json:"type"`
	Provider  string      `json:"provider"`
	ProductID string      `json:"product_id,omitempty"`
	Outcome   string      `json:"outcome,omitempty"`
	Page      int         `json:"page,omitempty"`
	Error     string      `json:"error,omitempty"`
	Result    *SyncResult `json:"result,omitempty"`
}

type Failure struct {
	ProductID string `json:"product_id,omitempty"`
	Page      int    `json:"page"`
	Error     string `json:"error"`
}

type SyncResult struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	Synced     int       `json:"synced"`
	Errors     int       `json:"errors"`
	Failures   []Failure `json:"failures"`
	Aborted    bool      `json:"aborted"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Locker guards against two syncs of the same provider running at once.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Recorder persists the outcome of a finished sync.
type Recorder interface {
	RecordSync(ctx context.Context, res *SyncResult) error
}

type Syncer struct {
	repo        Repository
	providers   *provider.Registry
	locker      Locker
	recorder    Recorder
	margin      decimal.Decimal
	pageSize    int
	concurrency int
	now         func() time.Time
}

type SyncOptions struct {
	PageSize    int
	Concurrency int
	Margin      decimal.Decimal
}

func NewSyncer(repo Repository, providers *provider.Registry, locker Locker, recorder Recorder, opts SyncOptions) *Syncer {
	s := &Syncer{
		repo:        repo,
		providers:   providers,
		locker:      locker,
		recorder:    recorder,
		margin:      opts.Margin,
		pageSize:    opts.PageSize,
		concurrency: opts.Concurrency,
		now:         time.Now,
	}
	if !s.margin.IsPositive() {
		s.margin = DefaultMargin
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultConcurrency
	}
	return s
}

// SyncAll pages through a provider's catalogue and upserts every product.
// A failing item or page is counted and reported, never fatal. Cancelling
// ctx stops new work; upserts already running complete and the result is
// marked aborted. onEvent may be nil and is never called concurrently.
func (s *Syncer) SyncAll(ctx context.Context, providerName string, onEvent func(Event)) (*SyncResult, error) {
	p, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	if !p.Configured() {
		return nil, apperr.Validation("%s is not configured for sync", p.Name())
	}

	if s.locker != nil {
		release, ok, err := s.locker.AcquireLock(ctx, "sync:"+p.Name(), lockTTL)
		if err != nil {
			return nil, apperr.Upstream(apperr.CodeUpstreamUnavailable, "redis", err)
		}
		if !ok {
			return nil, &apperr.Error{
				Kind:    apperr.KindDuplicate,
				Code:    CodeSyncInProgress,
				Message: fmt.Sprintf("a %s sync is already running", p.Name()),
			}
		}
		defer release()
	}

	run := &syncRun{
		res:     &SyncResult{ID: uuid.NewString(), Provider: p.Name(), Failures: []Failure{}, StartedAt: s.now().UTC()},
		onEvent: onEvent,
	}
	log.Printf("[sync] %s started id=%s", p.Name(), run.res.ID)
	run.emit(Event{Type: EventStarted, Provider: p.Name()})

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	// Upserts run detached so a cancelled sync still finishes the writes
	// already started.
	work := context.WithoutCancel(ctx)

pages:
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			run.abort()
			break
		}
		res, err := p.SearchProducts(ctx, provider.Query{Page: page, Limit: s.pageSize})
		if err != nil {
			if ctx.Err() != nil {
				run.abort()
				break
			}
			log.Printf("[sync] %s page %d: %v", p.Name(), page, err)
			run.fail(Failure{Page: page, Error: err.Error()})
			break
		}
		for _, item := range res.Products {
			if ctx.Err() != nil {
				run.abort()
				break pages
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					run.abort()
					return nil
				}
				s.syncOne(work, run, page, item)
				return nil
			})
		}
		if len(res.Products) < s.pageSize || (res.Total > 0 && page*s.pageSize >= res.Total) {
			break
		}
	}
	_ = g.Wait()

	res := run.finish(s.now().UTC())
	if s.recorder != nil {
		if err := s.recorder.RecordSync(work, res); err != nil {
			log.Printf("[sync] %s record result: %v", p.Name(), err)
		}
	}
	log.Printf("[sync] %s finished synced=%d errors=%d aborted=%t", p.Name(), res.Synced, res.Errors, res.Aborted)
	final := EventCompleted
	if res.Aborted {
		final = EventAborted
	}
	run.emit(Event{Type: final, Provider: p.Name(), Result: res})
	return res, nil
}

func (s *Syncer) syncOne(ctx context.Context, run *syncRun, page int, item provider.Product) {
	if item.ExternalID == "" {
		run.fail(Failure{Page: page, Error: "product without id"})
		return
	}
	price, err := Price(item.Cost, s.margin)
	if err != nil {
		run.fail(Failure{ProductID: item.ExternalID, Page: page, Error: err.Error()})
		return
	}
	prod := &Product{
		ID:                uuid.NewString(),
		Name:              item.Name,
		Description:       item.Description,
		Category:          category(item.Category),
		Price:             price,
		CostPrice:         item.Cost.Round(2),
		Stock:             max(item.Stock, 0),
		ImageURL:          item.ImageURL,
		SKU:               item.SKU,
		IsActive:          item.Stock > 0,
		Source:            run.res.Provider,
		ExternalID:        item.ExternalID,
		ExternalVariantID: item.VariantID,
	}
	created, err := s.repo.Upsert(ctx, prod)
	if err != nil {
		run.fail(Failure{ProductID: item.ExternalID, Page: page, Error: err.Error()})
		return
	}
	outcome := "updated"
	if created {
		outcome = "created"
	}
	run.synced(Event{Type: EventProductSynced, Provider: run.res.Provider, ProductID: item.ExternalID, Outcome: outcome, Page: page})
}

// syncRun collects results from the worker goroutines.
type syncRun struct {
	mu      sync.Mutex
	res     *SyncResult
	onEvent func(Event)
}

func (r *syncRun) emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(e)
}

func (r *syncRun) emitLocked(e Event) {
	if r.onEvent != nil {
		r.onEvent(e)
	}
}

func (r *syncRun) synced(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Synced++
	r.emitLocked(e)
}

func (r *syncRun) fail(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Errors++
	r.res.Failures = append(r.res.Failures, f)
	r.emitLocked(Event{Type: EventError, Provider: r.res.Provider, ProductID: f.ProductID, Page: f.Page, Error: f.Error})
}

func (r *syncRun) abort() {
	r.mu.Lock()
	r.res.Aborted = true
	r.mu.Unlock()
}

func (r *syncRun) finish(at time.Time) *SyncResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.FinishedAt = at
	out := *r.res
	out.Failures = append([]Failure{}, r.res.Failures...)
	return &out
}
