// Package platform stores the store-wide settings: which supplier is the
// active product source and the history of catalogue syncs.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/provider"
)

const (
	KeyActivePlatform = "active_platform"
	// Local means products are managed by hand and nothing is synced.
	Local = "local"
)

func lastSyncKey(name string) string { return name + "_last_sync" }

type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// RecordSync appends res to the sync log and updates the provider's
	// last-sync setting in one transaction.
	RecordSync(ctx context.Context, res *product.SyncResult) error
	LastSync(ctx context.Context, provider string) (*product.SyncResult, error)
}

// Config is the active platform selection.
// swagger:model PlatformConfig
type Config struct {
	Platform  string   `json:"platform"  example:"cj"`
	Available []string `json:"available"`
}

// ProviderStatus describes one supplier integration.
type ProviderStatus struct {
	Name       string              `json:"name"`
	Configured bool                `json:"configured"`
	Status     string              `json:"status"`
	LastSyncAt *time.Time          `json:"last_sync_at,omitempty"`
	LastSync   *product.SyncResult `json:"last_sync,omitempty"`
}

// swagger:model PlatformStatus
type Status struct {
	ActivePlatform string           `json:"active_platform"`
	Platforms      []ProviderStatus `json:"platforms"`
}

type Service struct {
	repo      Repository
	providers *provider.Registry
	fallback  string
}

// NewService returns a settings service; fallback is the active platform
// reported until one has been stored.
func NewService(repo Repository, providers *provider.Registry, fallback string) *Service {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if fallback == "" {
		fallback = Local
	}
	return &Service{repo: repo, providers: providers, fallback: fallback}
}

func (s *Service) available() []string {
	return append([]string{Local}, s.providers.Names()...)
}

func (s *Service) Active(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, KeyActivePlatform)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.fallback, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Service) Config(ctx context.Context) (*Config, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	return &Config{Platform: active, Available: s.available()}, nil
}

func (s *Service) SetActive(ctx context.Context, name string) (*Config, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperr.Validation("platform is required")
	}
	if name != Local {
		if _, err := s.providers.Get(name); err != nil {
			return nil, apperr.Validation("platform must be one of %s", strings.Join(s.available(), ", "))
		}
	}
	if err := s.repo.Set(ctx, KeyActivePlatform, name); err != nil {
		return nil, err
	}
	log.Printf("[platform] active platform set to %s", name)
	return &Config{Platform: name, Available: s.available()}, nil
}

// SyncTarget returns the active provider, or a validation error when the
// store runs on local products.
func (s *Service) SyncTarget(ctx context.Context) (string, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return "", err
	}
	if active == Local {
		return "", apperr.Validation("the local platform has nothing to sync")
	}
	return active, nil
}

func (s *Service) RecordSync(ctx context.Context, res *product.SyncResult) error {
	return s.repo.RecordSync(ctx, res)
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	out := &Status{ActivePlatform: active, Platforms: []ProviderStatus{}}
	for _, name := range s.providers.Names() {
		p, _ := s.providers.Get(name)
		ps := ProviderStatus{Name: name, Configured: p.Configured(), Status: "not_configured"}
		if ps.Configured {
			ps.Status = "configured"
			if name == active {
				ps.Status = "active"
			}
		}
		last, err := s.repo.LastSync(ctx, name)
		switch {
		case err == nil:
			ps.LastSync = last
			at := last.FinishedAt
			ps.LastSyncAt = &at
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, fmt.Errorf("last sync for %s: %w", name, err)
		}
		out.Platforms = append(out.Platforms, ps)
	}
	return out, nil
}
