package translation

import (
	"context"
	"regexp"
	"strings"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// splitSentences splits on runs of '.', '!' and '?', dropping empty pieces and
// the punctuation itself.
func splitSentences(text string) []string {
	parts := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// joinSentences joins with ". " and closes with a period.
func joinSentences(sentences []string) string {
	parts := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		trimmed := strings.TrimRight(strings.TrimSpace(sentence), ".!? ")
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}

// resolveLong translates sentence by sentence through the local tiers and sends
// whatever is left as one joined remote call.
func (r *Resolver) resolveLong(ctx context.Context, text, src, tgt string, settings profileSettings) Outcome {
	if r.cache != nil {
		if value, ok := r.cache.Get(src, tgt, text); ok {
			return Outcome{Text: value, Tier: TierCache}
		}
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return Outcome{Text: text, Tier: TierPassthrough}
	}

	results := make([]string, len(sentences))
	tier := TierCache
	var pending []int
	for i, sentence := range sentences {
		value, sentenceTier, ok := r.resolveLocal(sentence, src, tgt, settings.phrases)
		if !ok {
			pending = append(pending, i)
			results[i] = sentence
			continue
		}
		results[i] = value
		tier = weakerTier(tier, sentenceTier)
	}

	complete := len(pending) == 0
	if !complete && settings.remote {
		pendingText := make([]string, len(pending))
		for j, idx := range pending {
			pendingText[j] = sentences[idx]
		}

		joined := strings.Join(pendingText, ". ")
		if translated, err := r.resolveRemote(ctx, joined, src, tgt, settings); err == nil {
			if r.placeRemote(results, pending, pendingText, translated, src, tgt) {
				tier = TierRemote
				complete = true
			}
		}
	}

	if !complete && !settings.phrases {
		for _, idx := range pending {
			if value, ok := r.substitutePhrases(sentences[idx], src, tgt); ok {
				results[idx] = value
				tier = weakerTier(tier, TierPhrase)
			}
		}
	}

	if !complete && len(pending) == len(sentences) && tier == TierCache {
		return Outcome{Text: text, Tier: TierPassthrough}
	}

	out := joinSentences(results)
	if complete {
		r.cacheSet(src, tgt, text, out)
	}
	return Outcome{Text: out, Tier: tier}
}

// placeRemote distributes a joined remote translation back over the pending
// sentences. When the sentence count does not survive translation the whole
// result takes the first pending slot, but only if the pending sentences are
// adjacent; otherwise nothing is placed and it reports false.
func (r *Resolver) placeRemote(results []string, pending []int, pendingText []string, translated, src, tgt string) bool {
	parts := splitSentences(translated)
	if len(parts) == len(pending) {
		for j, idx := range pending {
			results[idx] = parts[j]
			r.cacheSet(src, tgt, pendingText[j], parts[j])
		}
		return true
	}

	for j := 1; j < len(pending); j++ {
		if pending[j] != pending[j-1]+1 {
			r.logger.Warn().
				Int("pending", len(pending)).
				Int("translated", len(parts)).
				Msg("remote sentence count changed around local sentences; keeping originals")
			return false
		}
	}

	results[pending[0]] = strings.TrimSpace(translated)
	for _, idx := range pending[1:] {
		results[idx] = ""
	}
	return true
}

var tierRank = map[Tier]int{
	TierCache:       0,
	TierTemplate:    1,
	TierPhrase:      2,
	TierRemote:      3,
	TierPassthrough: 4,
}

// weakerTier returns whichever of a and b comes later in the resolution order.
func weakerTier(a, b Tier) Tier {
	if tierRank[b] > tierRank[a] {
		return b
	}
	return a
}
