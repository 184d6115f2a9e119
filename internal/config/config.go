package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	CacheBackendMemory   = "memory"
	CacheBackendFile     = "file"
	CacheBackendLevelDB  = "leveldb"
	CacheBackendPostgres = "postgres"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	TranslationProvider string `envconfig:"TRANSLATION_PROVIDER" default:"ghananlp"`
	TranslationProfile  string `envconfig:"TRANSLATION_PROFILE" default:"hybrid"`
	LongTextThreshold   int    `envconfig:"LONG_TEXT_THRESHOLD" default:"300"`
	BatchConcurrency    int    `envconfig:"BATCH_CONCURRENCY" default:"8"`
	TermsFile           string `envconfig:"TERMS_FILE" default:""`

	GhanaNLPEndpoint       string        `envconfig:"GHANANLP_ENDPOINT" default:"https://translation-api.ghananlp.org/v1"`
	GhanaNLPAPIKey         string        `envconfig:"GHANANLP_API_KEY" default:""`
	GhanaNLPTimeout        time.Duration `envconfig:"GHANANLP_TIMEOUT" default:"5s"`
	GhanaNLPMaxRetries     int           `envconfig:"GHANANLP_MAX_RETRIES" default:"3"`
	GhanaNLPRetryBaseDelay time.Duration `envconfig:"GHANANLP_RETRY_BASE_DELAY" default:"500ms"`
	GhanaNLPCooldown       time.Duration `envconfig:"GHANANLP_COOLDOWN" default:"5m"`
	GhanaNLPRatePerSec     float64       `envconfig:"GHANANLP_RATE_PER_SEC" default:"5"`
	GhanaNLPPivotLang      string        `envconfig:"GHANANLP_PIVOT_LANG" default:"en"`

	LocalEndpoint string `envconfig:"TRANSLATION_ENDPOINT" default:""`
	LocalModel    string `envconfig:"TRANSLATION_MODEL" default:""`

	CacheBackend         string        `envconfig:"CACHE_BACKEND" default:"file"`
	CachePath            string        `envconfig:"CACHE_PATH" default:"data/translation-cache"`
	CacheTTL             time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	CachePersistDebounce time.Duration `envconfig:"CACHE_PERSIST_DEBOUNCE" default:"1s"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"4"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.CacheBackendName() {
	case CacheBackendMemory:
	case CacheBackendFile, CacheBackendLevelDB:
		if strings.TrimSpace(c.CachePath) == "" {
			return fmt.Errorf("CACHE_PATH is required for CACHE_BACKEND=%s", c.CacheBackendName())
		}
	case CacheBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, file, leveldb, postgres (got %q)", c.CacheBackend)
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	if c.CachePersistDebounce < 0 {
		return fmt.Errorf("CACHE_PERSIST_DEBOUNCE must be >= 0")
	}
	if c.GhanaNLPTimeout <= 0 {
		return fmt.Errorf("GHANANLP_TIMEOUT must be > 0")
	}
	if c.GhanaNLPMaxRetries < 0 {
		return fmt.Errorf("GHANANLP_MAX_RETRIES must be >= 0")
	}
	if c.GhanaNLPCooldown <= 0 {
		return fmt.Errorf("GHANANLP_COOLDOWN must be > 0")
	}
	if c.GhanaNLPRatePerSec < 0 {
		return fmt.Errorf("GHANANLP_RATE_PER_SEC must be >= 0")
	}
	if c.LongTextThreshold < 1 {
		return fmt.Errorf("LONG_TEXT_THRESHOLD must be >= 1")
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be >= 1")
	}
	return nil
}

// CacheBackendName returns the normalized CACHE_BACKEND value.
func (c *Config) CacheBackendName() string {
	return strings.ToLower(strings.TrimSpace(c.CacheBackend))
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
