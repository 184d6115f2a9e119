// Package ghananlp is the HTTP client for the Ghana NLP translation API.
package ghananlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"horse.fit/agrolingo/internal/language"
)

const (
	DefaultEndpoint   = "https://translation-api.ghananlp.org/v1"
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
	DefaultCooldown   = 5 * time.Minute

	apiKeyHeader    = "Ocp-Apim-Subscription-Key"
	maxResponseBody = 1 << 20
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	// MaxRetries is the retry budget per logical call. Negative disables retries.
	MaxRetries int
	BaseDelay  time.Duration
	Cooldown   time.Duration
	// RatePerSec caps outgoing attempts. Zero disables client-side limiting.
	RatePerSec float64
	Pivot      string
	Pairs      language.PairSet
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Request is one logical translation, possibly spanning two pivot hops.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	// Timeout bounds each attempt. Zero uses the client default.
	Timeout time.Duration
	// MaxRetries caps the client retry budget when positive; negative disables
	// retries. It never raises the budget above the client's.
	MaxRetries int
}

// Result is the outcome of a successful call. Recognized is false when the API
// answered with a body of unknown shape; Text is then the input text.
type Result struct {
	Text       string
	Recognized bool
	Hops       int
}

// Availability summarizes whether the client will attempt remote calls.
type Availability struct {
	Configured bool   `json:"configured"`
	Disabled   bool   `json:"disabled"`
	Breaker    string `json:"breaker"`
	Available  bool   `json:"available"`
}

// Client calls the translation API with retry, rate limiting and availability
// tracking. It is safe for concurrent use.
type Client struct {
	endpoint   string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	cooldown   time.Duration
	pivot      string
	pairs      language.PairSet
	http       *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	mu      sync.RWMutex
	apiKey  string
	breaker *gobreaker.CircuitBreaker

	disabled atomic.Bool
}

func New(cfg Config) *Client {
	c := &Client{
		endpoint:   normalizeEndpoint(cfg.Endpoint),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		cooldown:   cfg.Cooldown,
		pivot:      language.NormalizeCode(cfg.Pivot),
		pairs:      cfg.Pairs,
		http:       cfg.HTTPClient,
		logger:     cfg.Logger.With().Str("component", "ghananlp").Logger(),
		apiKey:     strings.TrimSpace(cfg.APIKey),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	switch {
	case c.maxRetries == 0:
		c.maxRetries = DefaultMaxRetries
	case c.maxRetries < 0:
		c.maxRetries = 0
	}
	if c.baseDelay <= 0 {
		c.baseDelay = DefaultBaseDelay
	}
	if c.cooldown <= 0 {
		c.cooldown = DefaultCooldown
	}
	if c.pivot == "" {
		c.pivot = language.English
	}
	if c.pairs == nil {
		c.pairs = language.DefaultPairs()
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if cfg.RatePerSec > 0 {
		burst := max(1, int(cfg.RatePerSec))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	c.breaker = c.newBreaker()
	return c
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ghananlp",
		MaxRequests: 1,
		Timeout:     c.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			return Classify(err) != KindRateLimited
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("rate-limit breaker state changed")
		},
	})
}

// Reconfigure swaps the API key and clears any disable or cooldown state.
func (c *Client) Reconfigure(apiKey string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(apiKey)
	c.breaker = c.newBreaker()
	c.mu.Unlock()
	c.disabled.Store(false)
}

func (c *Client) state() (string, *gobreaker.CircuitBreaker) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.breaker
}

// Available reports whether a call would be attempted right now.
func (c *Client) Available() bool {
	return c.Status().Available
}

func (c *Client) Status() Availability {
	apiKey, breaker := c.state()
	status := Availability{
		Configured: apiKey != "",
		Disabled:   c.disabled.Load(),
		Breaker:    breaker.State().String(),
	}
	status.Available = status.Configured && !status.Disabled && breaker.State() != gobreaker.StateOpen
	return status
}

// SupportsPair reports whether src->tgt can be served directly or via the pivot.
func (c *Client) SupportsPair(src, tgt string) bool {
	return c.pairs.Route(language.NormalizeCode(src), language.NormalizeCode(tgt), c.pivot) != nil
}

// Translate translates req.Text, pivoting through the pivot language when the
// pair is not served directly. Both hops share one retry budget and a failure in
// either fails the whole call.
func (c *Client) Translate(ctx context.Context, req Request) (Result, error) {
	apiKey, breaker := c.state()
	if apiKey == "" || c.disabled.Load() {
		return Result{}, ErrUnavailable
	}
	if breaker.State() == gobreaker.StateOpen {
		return Result{}, ErrUnavailable
	}

	src := language.NormalizeCode(req.SourceLang)
	tgt := language.NormalizeCode(req.TargetLang)
	route := c.pairs.Route(src, tgt, c.pivot)
	if route == nil {
		return Result{}, fmt.Errorf("%w: %s-%s", ErrUnsupportedPair, src, tgt)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	budget := &retryBudget{remaining: c.maxRetries}
	switch {
	case req.MaxRetries > 0:
		budget.remaining = min(req.MaxRetries, c.maxRetries)
	case req.MaxRetries < 0:
		budget.remaining = 0
	}

	text := req.Text
	for i, hop := range route {
		decoded, err := c.translateHop(ctx, breaker, apiKey, hop, text, timeout, budget)
		if err != nil {
			if len(route) > 1 {
				return Result{}, fmt.Errorf("pivot hop %d (%s): %w", i+1, hop, err)
			}
			return Result{}, err
		}
		if decoded.Kind != DecodeOK {
			c.logger.Warn().
				Str("pair", hop.String()).
				Int("body_bytes", len(decoded.Raw)).
				Msg("unrecognized translation response shape")
			return Result{Text: req.Text, Recognized: false, Hops: i + 1}, nil
		}
		text = decoded.Text
	}

	return Result{Text: text, Recognized: true, Hops: len(route)}, nil
}

// Probe checks connectivity and credentials against the languages endpoint.
func (c *Client) Probe(ctx context.Context) error {
	apiKey, _ := c.state()
	if apiKey == "" {
		return ErrUnavailable
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.endpoint+"/languages", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	httpReq.Header.Set(apiKeyHeader, apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send probe request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := &RemoteError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		if Classify(remoteErr) == KindAuth {
			c.disable(remoteErr)
		}
		return remoteErr
	}
	return nil
}

type retryBudget struct {
	remaining int
	used      int
}

func (b *retryBudget) take() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	b.used++
	return true
}

func (c *Client) translateHop(ctx context.Context, breaker *gobreaker.CircuitBreaker, apiKey string, hop language.Pair, text string, timeout time.Duration, budget *retryBudget) (Decoded, error) {
	out, err := breaker.Execute(func() (interface{}, error) {
		return c.attemptWithRetry(ctx, apiKey, hop, text, timeout, budget)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Decoded{}, ErrUnavailable
		}
		return Decoded{}, err
	}
	return out.(Decoded), nil
}

func (c *Client) attemptWithRetry(ctx context.Context, apiKey string, hop language.Pair, text string, timeout time.Duration, budget *retryBudget) (Decoded, error) {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return Decoded{}, err
		}

		decoded, err := c.attempt(ctx, apiKey, hop, text, timeout)
		if err == nil {
			return decoded, nil
		}

		if Classify(err) == KindAuth {
			c.disable(err)
			return Decoded{}, err
		}
		if ctx.Err() != nil {
			return Decoded{}, ctx.Err()
		}
		if !retryable(err) || !budget.take() {
			return Decoded{}, err
		}

		delay := time.Duration(budget.used) * c.baseDelay
		c.logger.Debug().
			Err(err).
			Str("pair", hop.String()).
			Int("retry", budget.used).
			Dur("delay", delay).
			Msg("retrying translation request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Decoded{}, ctx.Err()
		case <-timer.C:
		}
	}
}

type translateRequest struct {
	In   string `json:"in"`
	Lang string `json:"lang"`
}

func (c *Client) attempt(ctx context.Context, apiKey string, hop language.Pair, text string, timeout time.Duration) (Decoded, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(translateRequest{In: text, Lang: hop.String()})
	if err != nil {
		return Decoded{}, fmt.Errorf("marshal translate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return Decoded{}, fmt.Errorf("build translate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set(apiKeyHeader, apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Decoded{}, fmt.Errorf("send translate request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Decoded{}, fmt.Errorf("read translate response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Decoded{}, &RemoteError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return Decode(respBody), nil
}

func (c *Client) disable(cause error) {
	if c.disabled.CompareAndSwap(false, true) {
		c.logger.Error().Err(cause).Msg("translation API rejected credentials; remote tier disabled")
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		switch v := payload.Error.(type) {
		case string:
			return strings.TrimSpace(v)
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return strings.TrimSpace(msg)
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultEndpoint
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed.String()
}
