package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.PhoneReputationTimeout != 5*time.Second {
		t.Errorf("expected 5s reputation timeout, got %s", cfg.PhoneReputationTimeout)
	}
	if cfg.PhoneCacheTTL != time.Hour {
		t.Errorf("expected 1h cache TTL, got %s", cfg.PhoneCacheTTL)
	}
	if cfg.PhoneBatchConcurrency != 10 {
		t.Errorf("expected batch concurrency 10, got %d", cfg.PhoneBatchConcurrency)
	}
	if cfg.HomeCountry != "US" {
		t.Errorf("expected home country US, got %s", cfg.HomeCountry)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("VALID_API_KEYS", "alpha, beta ,")
	t.Setenv("PHONE_CACHE_TTL", "30m")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port override, got %s", cfg.Port)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "alpha" || cfg.APIKeys[1] != "beta" {
		t.Errorf("expected trimmed api keys, got %v", cfg.APIKeys)
	}
	if cfg.PhoneCacheTTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %s", cfg.PhoneCacheTTL)
	}
	if !cfg.RedisTLS {
		t.Error("expected redis tls enabled")
	}
}
