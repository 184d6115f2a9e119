package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"horse.fit/agrolingo/internal/cache"
	"horse.fit/agrolingo/internal/language"
	"horse.fit/agrolingo/internal/termstore"
)

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Registry *Registry
	// Provider names the registry entry used for the remote tier; empty uses the
	// registry default.
	Provider          string
	Store             *termstore.Store
	Cache             *cache.Cache
	Logger            zerolog.Logger
	Profile           Profile
	LongTextThreshold int
	BatchConcurrency  int
	// Detect returns the language of text for source "auto", or "" when unsure.
	Detect func(text string) string
}

// Service is the translation surface used by the HTTP API and the CLI.
type Service struct {
	resolver *Resolver
	provider Provider
	cache    *cache.Cache
	store    *termstore.Store
	stats    *Stats
	detect   func(string) string
	logger   zerolog.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	var provider Provider
	if cfg.Registry != nil {
		resolved, err := cfg.Registry.Provider(cfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("resolve translation provider: %w", err)
		}
		provider = resolved
	}

	stats := NewStats()
	logger := cfg.Logger.With().Str("component", "translation").Logger()
	resolver := NewResolver(Deps{
		Store:  cfg.Store,
		Cache:  cfg.Cache,
		Remote: provider,
		Logger: cfg.Logger,
		Stats:  stats,
	}, Options{
		Profile:           cfg.Profile,
		LongTextThreshold: cfg.LongTextThreshold,
		BatchConcurrency:  cfg.BatchConcurrency,
	})

	return &Service{
		resolver: resolver,
		provider: provider,
		cache:    cfg.Cache,
		store:    cfg.Store,
		stats:    stats,
		detect:   cfg.Detect,
		logger:   logger,
	}, nil
}

// TranslateText translates text into targetLang. An empty sourceLang means
// English; "auto" detects it.
func (s *Service) TranslateText(ctx context.Context, text, targetLang, sourceLang string) string {
	return s.Translate(ctx, Request{Text: text, SourceLang: sourceLang, TargetLang: targetLang}).Text
}

// Translate resolves one request and reports the tier that answered.
func (s *Service) Translate(ctx context.Context, req Request) Outcome {
	req.SourceLang = s.sourceLanguage(req.Text, req.SourceLang)
	return s.resolver.ResolveRequest(ctx, req)
}

func (s *Service) TranslateDiagnosisResult(ctx context.Context, result DiagnosisResult, targetLang string) DiagnosisResult {
	return s.resolver.TranslateDiagnosis(ctx, result, targetLang)
}

func (s *Service) TranslateUILabels(ctx context.Context, labels map[string]string, targetLang string) map[string]string {
	return s.resolver.TranslateLabels(ctx, labels, targetLang)
}

// BatchTranslate translates texts concurrently, preserving order. With source
// "auto" the language is detected once from the whole batch.
func (s *Service) BatchTranslate(ctx context.Context, texts []string, targetLang, sourceLang string) []string {
	src := s.sourceLanguage(strings.Join(texts, "\n"), sourceLang)
	return s.resolver.TranslateBatch(ctx, texts, src, targetLang)
}

// SupportedLanguages lists the language selector options.
func (s *Service) SupportedLanguages() []language.Option {
	return LanguageOptions(s.provider)
}

// ClearCache drops every cached translation, including the persisted copy.
func (s *Service) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear translation cache: %w", err)
	}
	s.logger.Info().Msg("translation cache cleared")
	return nil
}

// ServiceStats is the observability snapshot returned by Stats.
type ServiceStats struct {
	Provider        string        `json:"provider"`
	RemoteAvailable bool          `json:"remote_available"`
	CacheEntries    int           `json:"cache_entries"`
	InFlight        int           `json:"in_flight"`
	Templates       int           `json:"templates"`
	Phrases         int           `json:"phrases"`
	Labels          int           `json:"labels"`
	Tiers           StatsSnapshot `json:"resolution"`
}

func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		RemoteAvailable: s.RemoteAvailable(),
		InFlight:        s.resolver.inflight.Pending(),
		Tiers:           s.stats.Snapshot(),
	}
	if s.provider != nil {
		stats.Provider = s.provider.Name()
	}
	if s.cache != nil {
		stats.CacheEntries = s.cache.Len()
	}
	stats.Templates, stats.Phrases, stats.Labels = s.store.Counts()
	return stats
}

// RemoteAvailable reports whether the remote tier would currently be tried.
func (s *Service) RemoteAvailable() bool {
	if s.provider == nil {
		return false
	}
	if reporter, ok := s.provider.(availabilityReporter); ok {
		return reporter.Available()
	}
	return true
}

// Probe checks the remote provider's connectivity when it supports probing.
func (s *Service) Probe(ctx context.Context) error {
	if s.provider == nil {
		return fmt.Errorf("no remote translation provider configured")
	}
	p, ok := s.provider.(prober)
	if !ok {
		return nil
	}
	return p.Probe(ctx)
}

// Metrics returns the registry holding the resolver metrics.
func (s *Service) Metrics() *prometheus.Registry {
	return s.stats.Registry()
}

// Close flushes the cache to durable storage.
func (s *Service) Close(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close(ctx)
}

func (s *Service) sourceLanguage(text, requested string) string {
	if !strings.EqualFold(strings.TrimSpace(requested), language.Auto) {
		return requested
	}
	if s.detect != nil {
		if code := s.detect(text); code != "" {
			return code
		}
	}
	return language.English
}
