package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:          "local",
		LogLevel:             "info",
		TranslationProvider:  "ghananlp",
		TranslationProfile:   "hybrid",
		LongTextThreshold:    300,
		BatchConcurrency:     8,
		GhanaNLPTimeout:      5 * time.Second,
		GhanaNLPMaxRetries:   3,
		GhanaNLPCooldown:     5 * time.Minute,
		GhanaNLPRatePerSec:   5,
		CacheBackend:         "file",
		CachePath:            "data/cache",
		CacheTTL:             24 * time.Hour,
		CachePersistDebounce: time.Second,
		DBMinConns:           1,
		DBMaxConns:           4,
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheBackend = " Postgres "
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}

	cfg.DatabaseURL = "postgres://localhost/agrolingo"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheBackend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown backend to fail validation")
	}
}

func TestValidate_RejectsBadLimits(t *testing.T) {
	t.Parallel()

	mutations := map[string]func(*Config){
		"ttl":         func(c *Config) { c.CacheTTL = 0 },
		"timeout":     func(c *Config) { c.GhanaNLPTimeout = 0 },
		"retries":     func(c *Config) { c.GhanaNLPMaxRetries = -1 },
		"cooldown":    func(c *Config) { c.GhanaNLPCooldown = 0 },
		"threshold":   func(c *Config) { c.LongTextThreshold = 0 },
		"concurrency": func(c *Config) { c.BatchConcurrency = 0 },
		"conns":       func(c *Config) { c.DBMinConns = 9 },
	}
	for name, mutate := range mutations {
		cfg := validConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestCORSAllowedOriginsList(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CORSAllowedOrigins = "http://localhost:3000, ,http://localhost:3000,https://farm.example"
	got := cfg.CORSAllowedOriginsList()
	if len(got) != 2 || got[0] != "http://localhost:3000" || got[1] != "https://farm.example" {
		t.Fatalf("unexpected origins: %v", got)
	}
}
