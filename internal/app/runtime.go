package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/agrolingo/internal/cache"
	"horse.fit/agrolingo/internal/cli"
	"horse.fit/agrolingo/internal/config"
	"horse.fit/agrolingo/internal/db"
	"horse.fit/agrolingo/internal/ghananlp"
	"horse.fit/agrolingo/internal/langdetect"
	"horse.fit/agrolingo/internal/logging"
	"horse.fit/agrolingo/internal/termstore"
	"horse.fit/agrolingo/internal/translation"
)

const closeTimeout = 10 * time.Second

// runtime holds the wired translation service and whatever must be released
// when a command finishes.
type runtime struct {
	cfg     *config.Config
	logger  zerolog.Logger
	service *translation.Service
	store   cache.BlobStore
}

type runtimeOptions struct {
	// Profile overrides TRANSLATION_PROFILE when non-empty.
	Profile string
	// Provider overrides TRANSLATION_PROVIDER when non-empty.
	Provider string
}

// loadRuntime loads the env file and config, then builds the service. The cache
// is restored from its backend before returning.
func loadRuntime(ctx context.Context, envLoader *cli.EnvLoader, opts runtimeOptions) (*runtime, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newRuntime(ctx, cfg, logger, opts)
}

func newRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts runtimeOptions) (*runtime, error) {
	profileName := cfg.TranslationProfile
	if strings.TrimSpace(opts.Profile) != "" {
		profileName = opts.Profile
	}
	profile, err := translation.ParseProfile(profileName)
	if err != nil {
		return nil, err
	}

	terms, err := loadTerms(cfg.TermsFile)
	if err != nil {
		return nil, err
	}

	store, err := openBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	translationCache := cache.New(store, cache.Options{
		TTL:      cfg.CacheTTL,
		Debounce: cfg.CachePersistDebounce,
		Logger:   logger,
	})
	if err := translationCache.Load(ctx); err != nil {
		logger.Warn().Err(err).Str("backend", cfg.CacheBackendName()).Msg("translation cache could not be restored; starting empty")
	}

	registry, err := newRegistry(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	providerName := cfg.TranslationProvider
	if strings.TrimSpace(opts.Provider) != "" {
		providerName = opts.Provider
	}
	service, err := translation.NewService(translation.ServiceConfig{
		Registry:          registry,
		Provider:          providerName,
		Store:             terms,
		Cache:             translationCache,
		Logger:            logger,
		Profile:           profile,
		LongTextThreshold: cfg.LongTextThreshold,
		BatchConcurrency:  cfg.BatchConcurrency,
		Detect:            langdetect.Detect,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		service: service,
		store:   store,
	}, nil
}

// Close flushes the cache and releases its backend.
func (rt *runtime) Close() {
	if rt == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := rt.service.Close(ctx); err != nil {
		rt.logger.Error().Err(err).Msg("flush translation cache failed")
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Error().Err(err).Msg("close cache backend failed")
	}
}

func loadTerms(path string) (*termstore.Store, error) {
	if strings.TrimSpace(path) == "" {
		store, err := termstore.LoadDefault()
		if err != nil {
			return nil, fmt.Errorf("load built-in terms: %w", err)
		}
		return store, nil
	}
	store, err := termstore.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load terms file %s: %w", path, err)
	}
	return store, nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (cache.BlobStore, error) {
	switch cfg.CacheBackendName() {
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(), nil
	case config.CacheBackendFile:
		store, err := cache.NewFileStore(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open file cache: %w", err)
		}
		return store, nil
	case config.CacheBackendLevelDB:
		store, err := cache.NewLevelDBStore(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open leveldb cache: %w", err)
		}
		return store, nil
	case config.CacheBackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store, err := db.NewPostgresStore(pool)
		if err != nil {
			_ = pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.CacheBackend)
	}
}

func newRegistry(cfg *config.Config, logger zerolog.Logger) (*translation.Registry, error) {
	// GHANANLP_MAX_RETRIES=0 means no retries; the client reads zero as "default".
	maxRetries := cfg.GhanaNLPMaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}

	client := ghananlp.New(ghananlp.Config{
		Endpoint:   cfg.GhanaNLPEndpoint,
		APIKey:     cfg.GhanaNLPAPIKey,
		Timeout:    cfg.GhanaNLPTimeout,
		MaxRetries: maxRetries,
		BaseDelay:  cfg.GhanaNLPRetryBaseDelay,
		Cooldown:   cfg.GhanaNLPCooldown,
		RatePerSec: cfg.GhanaNLPRatePerSec,
		Pivot:      cfg.GhanaNLPPivotLang,
		Logger:     logger,
	})
	if strings.TrimSpace(cfg.GhanaNLPAPIKey) == "" {
		logger.Warn().Msg("GHANANLP_API_KEY is not set; remote translation is disabled")
	}

	registry := translation.NewRegistry(cfg.TranslationProvider)
	providers := []translation.Provider{
		translation.NewGhanaNLPProvider(client),
		translation.NewLocalProvider(cfg.LocalEndpoint, cfg.LocalModel),
	}
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("register %s provider: %w", provider.Name(), err)
		}
	}
	return registry, nil
}
