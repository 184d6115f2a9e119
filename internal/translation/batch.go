package translation

import (
	"context"
	"maps"

	"golang.org/x/sync/errgroup"

	"horse.fit/agrolingo/internal/language"
)

// DiagnosisResult is a disease-detection result as produced by the detection
// backend. Only the fields in diagnosisFields are translated.
type DiagnosisResult map[string]any

var diagnosisFields = []string{"plant", "disease", "remedy"}

// TranslateBatch resolves every text concurrently. out[i] is the translation of
// texts[i].
func (r *Resolver) TranslateBatch(ctx context.Context, texts []string, src, tgt string) []string {
	out := make([]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.batchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			out[i] = r.Resolve(gctx, text, src, tgt)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// TranslateDiagnosis returns a shallow copy of result with its string plant,
// disease and remedy fields translated. Other fields pass through untouched.
func (r *Resolver) TranslateDiagnosis(ctx context.Context, result DiagnosisResult, tgt string) DiagnosisResult {
	if result == nil {
		return nil
	}
	out := maps.Clone(result)

	translated := make([]string, len(diagnosisFields))
	present := make([]bool, len(diagnosisFields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range diagnosisFields {
		text, ok := result[field].(string)
		if !ok {
			continue
		}
		present[i] = true
		g.Go(func() error {
			translated[i] = r.Resolve(gctx, text, language.English, tgt)
			return nil
		})
	}
	_ = g.Wait()

	for i, field := range diagnosisFields {
		if present[i] {
			out[field] = translated[i]
		}
	}
	return out
}

// TranslateLabels translates a map of UI label values, answering from the static
// label table first and resolving the rest.
func (r *Resolver) TranslateLabels(ctx context.Context, labels map[string]string, tgt string) map[string]string {
	if labels == nil {
		return nil
	}
	target := language.NormalizeCode(tgt)
	out := make(map[string]string, len(labels))

	type job struct {
		key  string
		text string
	}
	var jobs []job
	for key, text := range labels {
		if target == language.English {
			out[key] = text
			continue
		}
		if value, ok := r.store.Label(text, target); ok {
			out[key] = value
			continue
		}
		jobs = append(jobs, job{key: key, text: text})
	}

	texts := make([]string, len(jobs))
	for i, j := range jobs {
		texts[i] = j.text
	}
	for i, value := range r.TranslateBatch(ctx, texts, language.English, target) {
		out[jobs[i].key] = value
	}
	return out
}
