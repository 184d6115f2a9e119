package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"horse.fit/agrolingo/internal/cache"
	"horse.fit/agrolingo/internal/inflight"
	"horse.fit/agrolingo/internal/language"
	"horse.fit/agrolingo/internal/termstore"
)

const (
	DefaultLongTextThreshold = 300
	DefaultBatchConcurrency  = 8
)

var errPassthrough = errors.New("remote response could not be read as a translation")

// Deps are the collaborators of a Resolver. Store, Cache and Remote may be nil;
// the matching tiers are then skipped.
type Deps struct {
	Store  *termstore.Store
	Cache  *cache.Cache
	Remote Provider
	Logger zerolog.Logger
	Stats  *Stats
}

// Options tunes a Resolver. Zero values select the defaults.
type Options struct {
	Profile           Profile
	LongTextThreshold int
	BatchConcurrency  int
}

// Request is one resolution. An empty Profile uses the resolver default.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	Profile    Profile
}

// Outcome is the resolved text and the tier that produced it.
type Outcome struct {
	Text     string        `json:"text"`
	Tier     Tier          `json:"tier"`
	Duration time.Duration `json:"-"`
}

// Resolver walks a request through the translation tiers: no-op, cache,
// template, phrase substitution, remote, and finally the original text.
type Resolver struct {
	store  *termstore.Store
	cache  *cache.Cache
	remote Provider
	logger zerolog.Logger
	stats  *Stats

	inflight inflight.Group

	profile           Profile
	longTextThreshold int
	batchConcurrency  int
}

func NewResolver(deps Deps, opts Options) *Resolver {
	if opts.Profile == "" {
		opts.Profile = ProfileHybrid
	}
	if opts.LongTextThreshold <= 0 {
		opts.LongTextThreshold = DefaultLongTextThreshold
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	return &Resolver{
		store:             deps.Store,
		cache:             deps.Cache,
		remote:            deps.Remote,
		logger:            deps.Logger.With().Str("component", "resolver").Logger(),
		stats:             deps.Stats,
		profile:           opts.Profile,
		longTextThreshold: opts.LongTextThreshold,
		batchConcurrency:  opts.BatchConcurrency,
	}
}

// Resolve translates text from src to tgt. It never fails: the worst case is
// text unchanged.
func (r *Resolver) Resolve(ctx context.Context, text, src, tgt string) string {
	return r.ResolveRequest(ctx, Request{Text: text, SourceLang: src, TargetLang: tgt}).Text
}

// ResolveRequest is Resolve with a per-request profile and tier reporting.
func (r *Resolver) ResolveRequest(ctx context.Context, req Request) (out Outcome) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Msg("translation resolver recovered from panic")
			out = Outcome{Text: req.Text, Tier: TierPassthrough}
		}
		out.Duration = time.Since(started)
		r.stats.Record(out.Tier, out.Duration)
	}()

	src := language.NormalizeCode(req.SourceLang)
	if src == "" {
		src = language.English
	}
	tgt := language.NormalizeCode(req.TargetLang)
	if isNoop(req.Text, src, tgt) {
		return Outcome{Text: req.Text, Tier: TierNoop}
	}

	profile := req.Profile
	if profile == "" {
		profile = r.profile
	}
	settings := profile.settings()

	if utf8.RuneCountInString(req.Text) > r.longTextThreshold {
		return r.resolveLong(ctx, req.Text, src, tgt, settings)
	}
	return r.resolveShort(ctx, req.Text, src, tgt, settings)
}

func (r *Resolver) resolveShort(ctx context.Context, text, src, tgt string, settings profileSettings) Outcome {
	if value, tier, ok := r.resolveLocal(text, src, tgt, settings.phrases); ok {
		return Outcome{Text: value, Tier: tier}
	}

	if settings.remote {
		value, err := r.resolveRemote(ctx, text, src, tgt, settings)
		if err == nil {
			return Outcome{Text: value, Tier: TierRemote}
		}
	}

	// Phrase substitution stands in when the profile skipped it in favor of the remote tier.
	if !settings.phrases {
		if value, ok := r.substitutePhrases(text, src, tgt); ok {
			return Outcome{Text: value, Tier: TierPhrase}
		}
	}
	return Outcome{Text: text, Tier: TierPassthrough}
}

// resolveLocal runs the cache, template and phrase tiers. Template and phrase
// results are written to the cache.
func (r *Resolver) resolveLocal(text, src, tgt string, phrases bool) (string, Tier, bool) {
	if r.cache != nil {
		if value, ok := r.cache.Get(src, tgt, text); ok {
			return value, TierCache, true
		}
	}

	if src == language.English {
		if value, id, ok := r.store.MatchTemplate(text, tgt); ok {
			r.logger.Debug().Str("template", id).Str("target", tgt).Msg("template match")
			r.cacheSet(src, tgt, text, value)
			return value, TierTemplate, true
		}
	}

	if phrases {
		if value, ok := r.substitutePhrases(text, src, tgt); ok {
			r.cacheSet(src, tgt, text, value)
			return value, TierPhrase, true
		}
	}
	return "", "", false
}

func (r *Resolver) substitutePhrases(text, src, tgt string) (string, bool) {
	if src != language.English {
		return "", false
	}
	return r.store.SubstitutePhrases(text, tgt)
}

// resolveRemote calls the remote provider once per in-flight key and writes a
// recognized result through to the cache.
func (r *Resolver) resolveRemote(ctx context.Context, text, src, tgt string, settings profileSettings) (string, error) {
	if r.remote == nil {
		return "", fmt.Errorf("no remote provider configured")
	}
	if reporter, ok := r.remote.(availabilityReporter); ok && !reporter.Available() {
		return "", fmt.Errorf("remote provider %s is unavailable", r.remote.Name())
	}

	key := cache.Key(src, tgt, text)
	value, shared, err := r.inflight.Do(ctx, key, func(callCtx context.Context) (string, error) {
		resp, err := r.remote.Translate(callCtx, TranslateRequest{
			Text:       text,
			SourceLang: src,
			TargetLang: tgt,
			Timeout:    settings.timeout,
			MaxRetries: settings.maxRetries,
		})
		if err != nil {
			return "", err
		}
		if resp.Passthrough || strings.TrimSpace(resp.Text) == "" {
			return "", errPassthrough
		}
		r.cacheSet(src, tgt, text, resp.Text)
		return resp.Text, nil
	})
	if err != nil {
		if errors.Is(err, errPassthrough) {
			r.logger.Warn().Str("pair", src+"-"+tgt).Msg("remote translation returned an unrecognized response")
		} else {
			r.stats.RecordRemoteFailure()
			r.logger.Warn().Err(err).Str("provider", r.remote.Name()).Str("pair", src+"-"+tgt).Msg("remote translation failed")
		}
		return "", err
	}

	r.stats.RecordRemoteCall(shared)
	return value, nil
}

func (r *Resolver) cacheSet(src, tgt, text, value string) {
	if r.cache == nil {
		return
	}
	r.cache.Set(src, tgt, text, value)
}

// isNoop reports whether text translates to itself: same language, no target,
// blank text or text made only of numbers.
func isNoop(text, src, tgt string) bool {
	if tgt == "" || src == tgt {
		return true
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	return isNumeric(trimmed)
}

func isNumeric(text string) bool {
	digits := 0
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r), strings.ContainsRune(".,+-%/:", r):
		default:
			return false
		}
	}
	return digits > 0
}
