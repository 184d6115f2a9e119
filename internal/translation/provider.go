package translation

import (
	"context"
	"time"
)

// Provider translates free-form text between languages.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
	Name() string
	SupportedLanguages() []string
}

// TranslateRequest describes one translation request.
type TranslateRequest struct {
	Text       string
	SourceLang string // ISO 639 code (for example: "en", "tw", "gaa")
	TargetLang string
	// Timeout bounds each attempt; zero uses the provider default.
	Timeout time.Duration
	// MaxRetries caps the provider retry budget when positive.
	MaxRetries int
}

// TranslateResponse contains translated text and provider metadata.
type TranslateResponse struct {
	Text         string
	SourceLang   string
	TargetLang   string
	ProviderName string
	LatencyMs    int64
	// Passthrough is set when the provider answered but the answer could not be
	// read as a translation; Text is then the input.
	Passthrough bool
}

// availabilityReporter is implemented by providers that can be disabled at runtime.
type availabilityReporter interface {
	Available() bool
}

// prober is implemented by providers that support a connectivity check.
type prober interface {
	Probe(ctx context.Context) error
}
