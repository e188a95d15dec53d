// Package platformtest provides an in-memory platform.Repository.
package platformtest

import (
	"context"
	"sync"
	"time"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
)

type Repo struct {
	mu       sync.Mutex
	settings map[string]string
	logs     []product.SyncResult
}

func NewRepo() *Repo { return &Repo{settings: map[string]string{}} }

func (r *Repo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.settings[key]
	if !ok {
		return "", apperr.NotFound("setting", key)
	}
	return v, nil
}

func (r *Repo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}

func (r *Repo) RecordSync(_ context.Context, res *product.SyncResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *res)
	r.settings[res.Provider+"_last_sync"] = res.FinishedAt.UTC().Format(time.RFC3339)
	return nil
}

func (r *Repo) LastSync(_ context.Context, provider string) (*product.SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].Provider == provider {
			res := r.logs[i]
			return &res, nil
		}
	}
	return nil, apperr.NotFound("sync log", provider)
}

// Logs returns every recorded sync, oldest first.
func (r *Repo) Logs() []product.SyncResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]product.SyncResult{}, r.logs...)
}
