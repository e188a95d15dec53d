package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ORDER_SERVICE_ADDR", "")
	t.Setenv("SYNC_CONCURRENCY", "")
	cfg := Load()

	assert.Equal(t, ":8082", cfg.OrderSvcAddr)
	assert.Equal(t, 4, cfg.SyncConcurrency)
	assert.Equal(t, 10*time.Second, cfg.StripeTimeout)
	assert.Equal(t, "2.5", cfg.DefaultMargin)
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("SYNC_CONCURRENCY", "8")
	t.Setenv("SYNC_PAGE_SIZE", "many")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ZENDROP_WEBHOOK_SECRET", "zd-secret")
	cfg := Load()

	assert.Equal(t, 8, cfg.SyncConcurrency)
	assert.Equal(t, 50, cfg.SyncPageSize)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "zd-secret", cfg.Zendrop.WebhookSecret)
}
