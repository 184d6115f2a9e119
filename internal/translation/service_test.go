package translation

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"horse.fit/agrolingo/internal/cache"
)

func newTestService(t *testing.T, remote Provider, detect func(string) string) (*Service, *cache.Cache) {
	t.Helper()

	registry := NewRegistry(remote.Name())
	if err := registry.Register(remote); err != nil {
		t.Fatalf("register provider: %v", err)
	}
	c := cache.New(cache.NewMemoryStore(), cache.Options{})
	service, err := NewService(ServiceConfig{
		Registry: registry,
		Store:    mustTerms(t),
		Cache:    c,
		Detect:   detect,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, c
}

func TestServiceTranslateTextDefaultsToEnglishSource(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, &stubRemote{}, nil)
	if got := service.TranslateText(context.Background(), "Tomato", "twi", ""); got != "Ntoosi" {
		t.Fatalf("unexpected translation: %q", got)
	}
}

func TestServiceAutoDetectsSource(t *testing.T) {
	t.Parallel()

	var detected atomic.Int32
	detect := func(string) string {
		detected.Add(1)
		return "tw"
	}
	remote := &stubRemote{}
	service, _ := newTestService(t, remote, detect)

	out := service.Translate(context.Background(), Request{Text: "Ɛte sɛn", SourceLang: "auto", TargetLang: "tw"})
	if out.Tier != TierNoop || out.Text != "Ɛte sɛn" {
		t.Fatalf("expected detected Twi source to short-circuit, got %+v", out)
	}
	if remote.calls.Load() != 0 {
		t.Fatalf("expected no remote call")
	}

	got := service.BatchTranslate(context.Background(), []string{"Ɛte sɛn", "Me din de Kofi"}, "en", "AUTO")
	if len(got) != 2 || got[0] != "[tw] Ɛte sɛn" {
		t.Fatalf("unexpected batch result: %v", got)
	}
	if detected.Load() != 2 {
		t.Fatalf("expected one detection per call, got %d", detected.Load())
	}

	remote.mu.Lock()
	defer remote.mu.Unlock()
	for _, req := range remote.requests {
		if req.SourceLang != "tw" {
			t.Fatalf("expected detected source on remote request, got %+v", req)
		}
	}
}

func TestServiceAutoFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, &stubRemote{}, func(string) string { return "" })
	if got := service.TranslateText(context.Background(), "Tomato", "tw", "auto"); got != "Ntoosi" {
		t.Fatalf("expected English fallback to reach the template tier, got %q", got)
	}
}

func TestServiceClearCacheAndStats(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	service, c := newTestService(t, remote, nil)
	ctx := context.Background()

	service.TranslateText(ctx, "Tomato", "tw", "en")
	service.TranslateText(ctx, "When should I weed", "tw", "en")
	service.TranslateText(ctx, "When should I weed", "tw", "en")

	stats := service.Stats()
	if stats.Provider != "stub" || !stats.RemoteAvailable {
		t.Fatalf("unexpected provider stats: %+v", stats)
	}
	if stats.CacheEntries != 2 {
		t.Fatalf("expected two cache entries, got %d", stats.CacheEntries)
	}
	if stats.Templates == 0 || stats.Phrases == 0 || stats.Labels == 0 {
		t.Fatalf("expected term store counts, got %+v", stats)
	}
	tiers := stats.Tiers.Tiers
	if tiers["template"].Hits != 1 || tiers["remote"].Hits != 1 || tiers["cache"].Hits != 1 {
		t.Fatalf("unexpected tier counts: %+v", tiers)
	}
	if stats.Tiers.Total != 3 {
		t.Fatalf("expected 3 resolutions, got %d", stats.Tiers.Total)
	}

	if err := service.ClearCache(ctx); err != nil {
		t.Fatalf("clear cache: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after clear, got %d", c.Len())
	}
	service.TranslateText(ctx, "When should I weed", "tw", "en")
	if remote.calls.Load() != 2 {
		t.Fatalf("expected a fresh remote call after clear, got %d", remote.calls.Load())
	}
}

func TestServiceSupportedLanguages(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, &stubRemote{}, nil)
	options := service.SupportedLanguages()
	if len(options) != 3 || options[0].Code != "en" {
		t.Fatalf("unexpected options: %+v", options)
	}
	codes := make([]string, 0, len(options))
	for _, option := range options {
		codes = append(codes, option.Code)
	}
	if strings.Join(codes, ",") != "en,ee,tw" {
		t.Fatalf("unexpected option order: %v", codes)
	}
}

func TestServiceUnavailableRemote(t *testing.T) {
	t.Parallel()

	available := &atomic.Bool{}
	service, _ := newTestService(t, &stubRemote{available: available}, nil)
	if service.RemoteAvailable() {
		t.Fatalf("expected remote to be reported unavailable")
	}
	available.Store(true)
	if !service.RemoteAvailable() {
		t.Fatalf("expected remote to be reported available")
	}
}

func TestServiceMetricsExposeTierCounters(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, &stubRemote{}, nil)
	service.TranslateText(context.Background(), "Tomato", "tw", "en")

	families, err := service.Metrics().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() != "agrolingo_translation_tier_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "tier" && label.GetValue() == "template" && metric.GetCounter().GetValue() == 1 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected template counter in gathered metrics")
	}
}

func TestNewServiceUnknownProvider(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(&stubRemote{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := NewService(ServiceConfig{Registry: registry, Provider: "deepl"}); err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}
