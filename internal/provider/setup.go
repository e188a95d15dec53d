package provider

import (
	"log"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/config"
)

// FromConfig builds the registry of every supported supplier. Suppliers
// without credentials are still registered and report Configured() false.
func FromConfig(cfg config.Config) *Registry {
	opts := Options{Timeout: cfg.ProviderTimeout, RatePerSec: cfg.ProviderRatePerSec}
	r := NewRegistry(
		NewCJ(cfg.CJ.BaseURL, cfg.CJ.APIKey, cfg.CJ.SecretKey, opts),
		NewZendrop(cfg.Zendrop.BaseURL, cfg.Zendrop.APIKey, opts),
		NewAppScenic(cfg.AppScenic.BaseURL, cfg.AppScenic.APIKey, opts),
	)
	for _, name := range r.Names() {
		p, _ := r.Get(name)
		log.Printf("[provider] %s configured=%t", name, p.Configured())
	}
	return r
}

// WebhookSecrets returns the push-signing secret per supplier name.
func WebhookSecrets(cfg config.Config) map[string]string {
	return map[string]string{
		CJ:        cfg.CJ.WebhookSecret,
		Zendrop:   cfg.Zendrop.WebhookSecret,
		AppScenic: cfg.AppScenic.WebhookSecret,
	}
}
