package translation

import (
	"context"
	"fmt"
	"time"

	"horse.fit/agrolingo/internal/ghananlp"
)

// GhanaNLPProvider adapts the Ghana NLP client to the Provider interface.
type GhanaNLPProvider struct {
	client *ghananlp.Client
}

func NewGhanaNLPProvider(client *ghananlp.Client) *GhanaNLPProvider {
	return &GhanaNLPProvider{client: client}
}

func (p *GhanaNLPProvider) Name() string {
	return "ghananlp"
}

func (p *GhanaNLPProvider) SupportedLanguages() []string {
	codes := supportedLanguageCodes()
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if p.client.SupportsPair("en", code) || code == "en" {
			out = append(out, code)
		}
	}
	return out
}

func (p *GhanaNLPProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("ghana nlp provider is not initialized")
	}

	started := time.Now()
	res, err := p.client.Translate(ctx, ghananlp.Request{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Timeout:    req.Timeout,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	return &TranslateResponse{
		Text:         res.Text,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		ProviderName: p.Name(),
		LatencyMs:    time.Since(started).Milliseconds(),
		Passthrough:  !res.Recognized,
	}, nil
}

func (p *GhanaNLPProvider) Available() bool {
	return p.client.Available()
}

func (p *GhanaNLPProvider) Probe(ctx context.Context) error {
	return p.client.Probe(ctx)
}

// Status exposes the client's availability for health and stats output.
func (p *GhanaNLPProvider) Status() ghananlp.Availability {
	return p.client.Status()
}
